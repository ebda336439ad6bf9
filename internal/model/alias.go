package model

import "time"

// EntityAlias 已确认指向某实体的名称变体，(alias_name, provider) 唯一，创建后不更新
type EntityAlias struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	EntityID  uint64    `gorm:"column:entity_id;type:bigint;not null;index"`
	Provider  string    `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:uq_alias_name_provider,priority:2"`
	AliasName string    `gorm:"column:alias_name;type:varchar(256);not null;uniqueIndex:uq_alias_name_provider,priority:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (EntityAlias) TableName() string { return "entity_aliases" }
