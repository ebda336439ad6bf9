package model

import (
	"time"

	"RosterSync/internal/utils/namenorm"

	"gorm.io/gorm"
)

// EntityKind 规范实体类型
type EntityKind string

const (
	KindClub   EntityKind = "club"
	KindPlayer EntityKind = "player"
)

// Valid 是否为已知类型
func (k EntityKind) Valid() bool {
	return k == KindClub || k == KindPlayer
}

// ParseEntityKind 字符串 -> EntityKind
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.Valid() {
		return "", &EnumError{Type: "entity kind", Value: s}
	}
	return k, nil
}

// Entity 规范实体（球队/球员）。各数据源的外部 ID 各占一列，(kind, 列) 唯一
type Entity struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Kind            EntityKind `gorm:"column:kind;type:varchar(16);not null;index:idx_entities_kind_search,priority:1;uniqueIndex:uq_entities_fbref,priority:1;uniqueIndex:uq_entities_transfermarkt,priority:1;uniqueIndex:uq_entities_fotmob,priority:1;uniqueIndex:uq_entities_sofascore,priority:1;uniqueIndex:uq_entities_understat,priority:1"`
	Name            string     `gorm:"column:name;type:varchar(256);not null"`
	NormalizedName  string     `gorm:"column:normalized_name;type:varchar(256);index"`
	SearchName      string     `gorm:"column:search_name;type:varchar(256);index:idx_entities_kind_search,priority:2"`
	Country         string     `gorm:"column:country;type:varchar(64)"`
	Competition     string     `gorm:"column:competition;type:varchar(32)"` // 联赛编码 "eng.1"
	ClubID          *uint64    `gorm:"column:club_id;type:bigint;index"`    // 球员所属球队
	Position        string     `gorm:"column:position;type:varchar(32)"`
	FbrefID         *string    `gorm:"column:fbref_id;type:varchar(64);uniqueIndex:uq_entities_fbref,priority:2"`
	TransfermarktID *string    `gorm:"column:transfermarkt_id;type:varchar(64);uniqueIndex:uq_entities_transfermarkt,priority:2"`
	FotmobID        *string    `gorm:"column:fotmob_id;type:varchar(64);uniqueIndex:uq_entities_fotmob,priority:2"`
	SofascoreID     *string    `gorm:"column:sofascore_id;type:varchar(64);uniqueIndex:uq_entities_sofascore,priority:2"`
	UnderstatID     *string    `gorm:"column:understat_id;type:varchar(64);uniqueIndex:uq_entities_understat,priority:2"`
	Locked          bool       `gorm:"column:locked;type:boolean;default:false"`
	NeedsMapping    bool       `gorm:"column:needs_mapping;type:boolean;default:false"`
	IsStub          bool       `gorm:"column:is_stub;type:boolean;default:false;index"`
	UpdatedSource   string     `gorm:"column:updated_source;type:varchar(64)"` // 最近一次写入外部 ID 的来源
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entity) TableName() string { return "entities" }

// BeforeSave 维护规范化名称列，供查找时使用
func (e *Entity) BeforeSave(tx *gorm.DB) error {
	// 按列更新时 Model 是空结构体
	if e.Name == "" {
		return nil
	}
	e.NormalizedName = namenorm.Normalize(e.Name)
	e.SearchName = namenorm.NormalizeForSearch(e.Name)
	return nil
}

// ProviderIDColumns 数据源 -> entities 上的外部 ID 列。列名只能来自这里（会拼进 SQL）
var ProviderIDColumns = map[string]string{
	"fbref":         "fbref_id",
	"transfermarkt": "transfermarkt_id",
	"fotmob":        "fotmob_id",
	"sofascore":     "sofascore_id",
	"understat":     "understat_id",
}

// IsProviderIDColumn 列名是否在白名单内
func IsProviderIDColumn(column string) bool {
	for _, c := range ProviderIDColumns {
		if c == column {
			return true
		}
	}
	return false
}

// ProviderIDs 返回实体上已填写的外部 ID（列名 -> 值）
func (e *Entity) ProviderIDs() map[string]string {
	out := make(map[string]string)
	for col, p := range e.providerIDFields() {
		if *p != nil && **p != "" {
			out[col] = **p
		}
	}
	return out
}

// ProviderID 读取某一列的外部 ID
func (e *Entity) ProviderID(column string) string {
	if p, ok := e.providerIDFields()[column]; ok && *p != nil {
		return **p
	}
	return ""
}

func (e *Entity) providerIDFields() map[string]**string {
	return map[string]**string{
		"fbref_id":         &e.FbrefID,
		"transfermarkt_id": &e.TransfermarktID,
		"fotmob_id":        &e.FotmobID,
		"sofascore_id":     &e.SofascoreID,
		"understat_id":     &e.UnderstatID,
	}
}

// SetProviderID 设置某一列的外部 ID，列名不在白名单时返回 false
func (e *Entity) SetProviderID(column, value string) bool {
	p, ok := e.providerIDFields()[column]
	if !ok {
		return false
	}
	if value == "" {
		*p = nil
		return true
	}
	v := value
	*p = &v
	return true
}
