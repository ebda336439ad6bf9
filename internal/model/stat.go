package model

import (
	"time"

	"gorm.io/datatypes"
)

// EntityStat 导入行附带的数值统计，挂在规范实体（或占位实体）上；每个实体每个数据源保留最新一份
type EntityStat struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	EntityID  uint64         `gorm:"column:entity_id;type:bigint;not null;uniqueIndex:uq_entity_stats_provider,priority:1"`
	RunID     string         `gorm:"column:run_id;type:varchar(64);index"`
	Provider  string         `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:uq_entity_stats_provider,priority:2"`
	RowIndex  int            `gorm:"column:row_index;type:int"`
	Stats     datatypes.JSON `gorm:"column:stats;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (EntityStat) TableName() string { return "entity_stats" }
