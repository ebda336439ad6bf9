package repository

import (
	"context"
	"strings"

	"RosterSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AliasRepository 实体别名仓储，别名只增不改
type AliasRepository interface {
	// InsertIfAbsent (alias_name, provider) 已存在时不做任何事，返回是否真正插入
	InsertIfAbsent(ctx context.Context, alias *model.EntityAlias) (bool, error)
	// FindByName 别名忽略大小写精确匹配，只返回指定类型、非占位实体的别名
	FindByName(ctx context.Context, kind model.EntityKind, name string) ([]*model.EntityAlias, error)
	ListByEntity(ctx context.Context, entityID uint64) ([]*model.EntityAlias, error)
	// Repoint 把别名整体转移到另一个实体（占位实体合并时用）
	Repoint(ctx context.Context, fromEntityID, toEntityID uint64) error
	DeleteByEntity(ctx context.Context, entityID uint64) (int64, error)
}

type aliasRepository struct {
	db *gorm.DB
}

func NewAliasRepository(db *gorm.DB) AliasRepository {
	return &aliasRepository{db: db}
}

func (r *aliasRepository) InsertIfAbsent(ctx context.Context, alias *model.EntityAlias) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "alias_name"}, {Name: "provider"}},
		DoNothing: true,
	}).Create(alias)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *aliasRepository) FindByName(ctx context.Context, kind model.EntityKind, name string) ([]*model.EntityAlias, error) {
	var list []*model.EntityAlias
	if err := r.db.WithContext(ctx).
		Joins("JOIN entities ON entities.id = entity_aliases.entity_id").
		Where("entities.kind = ? AND entities.is_stub = ? AND LOWER(entity_aliases.alias_name) = LOWER(?)",
			kind, false, strings.TrimSpace(name)).
		Order("entity_aliases.id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *aliasRepository) ListByEntity(ctx context.Context, entityID uint64) ([]*model.EntityAlias, error) {
	var list []*model.EntityAlias
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *aliasRepository) Repoint(ctx context.Context, fromEntityID, toEntityID uint64) error {
	return r.db.WithContext(ctx).Model(&model.EntityAlias{}).
		Where("entity_id = ?", fromEntityID).
		Update("entity_id", toEntityID).Error
}

func (r *aliasRepository) DeleteByEntity(ctx context.Context, entityID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Delete(&model.EntityAlias{})
	return res.RowsAffected, res.Error
}
