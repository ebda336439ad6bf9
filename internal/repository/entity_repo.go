package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"RosterSync/internal/model"

	"gorm.io/gorm"
)

// EntityRepository 规范实体仓储。查找类方法都排除占位实体
type EntityRepository interface {
	Create(ctx context.Context, e *model.Entity) error
	GetByID(ctx context.Context, id uint64) (*model.Entity, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]*model.Entity, error)
	// FindByName 名称忽略大小写精确匹配
	FindByName(ctx context.Context, kind model.EntityKind, name string) ([]*model.Entity, error)
	// FindByNormalizedName 规范化名称相等；search_name 前缀只用来走 (kind, search_name) 索引，不截断结果。
	// 规范化后的名称只含 [a-z0-9 .-]，不会出现 LIKE 通配符
	FindByNormalizedName(ctx context.Context, kind model.EntityKind, prefix, normalized string) ([]*model.Entity, error)
	// FindByNameToken normalized_name 包含某个词
	FindByNameToken(ctx context.Context, kind model.EntityKind, token string, limit int) ([]*model.Entity, error)
	// FindByProviderID 按外部 ID 查实体（含占位实体），不存在返回 nil, nil
	FindByProviderID(ctx context.Context, kind model.EntityKind, column, value string) (*model.Entity, error)
	UpdateProviderID(ctx context.Context, id uint64, column, value, source string) (int64, error)
	ClearProviderIDs(ctx context.Context, id uint64) error
	CountByKind(ctx context.Context, kind model.EntityKind) (int64, error)
	// DeleteStub 只能删除占位实体，规范实体只会被锁定
	DeleteStub(ctx context.Context, id uint64) (int64, error)
}

type entityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepository{db: db}
}

func (r *entityRepository) Create(ctx context.Context, e *model.Entity) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *entityRepository) GetByID(ctx context.Context, id uint64) (*model.Entity, error) {
	var e model.Entity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entityRepository) GetByIDs(ctx context.Context, ids []uint64) ([]*model.Entity, error) {
	if len(ids) == 0 {
		return []*model.Entity{}, nil
	}
	var list []*model.Entity
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *entityRepository) FindByName(ctx context.Context, kind model.EntityKind, name string) ([]*model.Entity, error) {
	var list []*model.Entity
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND is_stub = ? AND LOWER(name) = LOWER(?)", kind, false, strings.TrimSpace(name)).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *entityRepository) FindByNormalizedName(ctx context.Context, kind model.EntityKind, prefix, normalized string) ([]*model.Entity, error) {
	if normalized == "" {
		return []*model.Entity{}, nil
	}
	db := r.db.WithContext(ctx).Where("kind = ? AND is_stub = ? AND normalized_name = ?", kind, false, normalized)
	if prefix != "" {
		db = db.Where("search_name LIKE ?", prefix+"%")
	}
	var list []*model.Entity
	if err := db.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *entityRepository) FindByNameToken(ctx context.Context, kind model.EntityKind, token string, limit int) ([]*model.Entity, error) {
	if token == "" {
		return []*model.Entity{}, nil
	}
	if limit <= 0 {
		limit = 200
	}
	var list []*model.Entity
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND is_stub = ? AND normalized_name LIKE ?", kind, false, "%"+token+"%").
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *entityRepository) FindByProviderID(ctx context.Context, kind model.EntityKind, column, value string) (*model.Entity, error) {
	if !model.IsProviderIDColumn(column) {
		return nil, fmt.Errorf("未知的外部ID列: %s", column)
	}
	var e model.Entity
	err := r.db.WithContext(ctx).
		Where("kind = ? AND "+column+" = ?", kind, value).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entityRepository) UpdateProviderID(ctx context.Context, id uint64, column, value, source string) (int64, error) {
	if !model.IsProviderIDColumn(column) {
		return 0, fmt.Errorf("未知的外部ID列: %s", column)
	}
	res := r.db.WithContext(ctx).Model(&model.Entity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			column:           value,
			"updated_source": source,
		})
	return res.RowsAffected, res.Error
}

func (r *entityRepository) ClearProviderIDs(ctx context.Context, id uint64) error {
	updates := make(map[string]interface{}, len(model.ProviderIDColumns))
	for _, col := range model.ProviderIDColumns {
		updates[col] = nil
	}
	return r.db.WithContext(ctx).Model(&model.Entity{}).Where("id = ?", id).Updates(updates).Error
}

func (r *entityRepository) CountByKind(ctx context.Context, kind model.EntityKind) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Entity{}).
		Where("kind = ? AND is_stub = ?", kind, false).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *entityRepository) DeleteStub(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND is_stub = ?", id, true).Delete(&model.Entity{})
	return res.RowsAffected, res.Error
}

// IsDuplicateKey 唯一约束冲突（PostgreSQL 23505 / SQLite UNIQUE constraint）
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
