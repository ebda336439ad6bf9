package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
)

// ReviewStatus 审核状态
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewSkipped  ReviewStatus = "skipped"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewSkipped:
		return true
	}
	return false
}

func (s ReviewStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, &EnumError{Type: "review status", Value: string(s)}
	}
	return string(s), nil
}

func (s *ReviewStatus) Scan(src interface{}) error {
	v, err := scanEnumString(src)
	if err != nil {
		return err
	}
	if rs := ReviewStatus(v); rs.Valid() {
		*s = rs
		return nil
	}
	return &EnumError{Type: "review status", Value: v}
}

// ReviewQueueItem 待人工审核的行：保存完整原始行，审核通过后仍可取出外部 ID 落库
type ReviewQueueItem struct {
	ID               uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RunID            string         `gorm:"column:run_id;type:varchar(64);not null;index"`
	Kind             EntityKind     `gorm:"column:kind;type:varchar(16);not null;index:idx_review_source,priority:1"`
	Provider         string         `gorm:"column:provider;type:varchar(32);not null;index:idx_review_source,priority:2"`
	RowIndex         int            `gorm:"column:row_index;type:int;not null"`
	DisplayName      string         `gorm:"column:display_name;type:varchar(256)"`
	Country          string         `gorm:"column:country;type:varchar(64)"`
	RowData          datatypes.JSON `gorm:"column:row_data;type:jsonb;not null"`
	MatchStatus      MatchStatus    `gorm:"column:match_status;type:varchar(16);not null"`
	Confidence       Confidence     `gorm:"column:confidence;type:varchar(16);not null"`
	CandidateIDs     datatypes.JSON `gorm:"column:candidate_ids;type:jsonb"`
	StubEntityID     *uint64        `gorm:"column:stub_entity_id;type:bigint"`
	ReviewStatus     ReviewStatus   `gorm:"column:review_status;type:varchar(16);not null;index"`
	ApprovedEntityID *uint64        `gorm:"column:approved_entity_id;type:bigint"`
	ReviewedAt       *time.Time     `gorm:"column:reviewed_at;type:timestamp"`
	Note             string         `gorm:"column:note;type:text"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (ReviewQueueItem) TableName() string { return "review_queue_items" }
