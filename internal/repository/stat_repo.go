package repository

import (
	"context"

	"RosterSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatRepository 导入统计仓储，(entity_id, provider) 唯一
type StatRepository interface {
	Upsert(ctx context.Context, stat *model.EntityStat) error
	ListByEntity(ctx context.Context, entityID uint64) ([]*model.EntityStat, error)
	// MoveAll 把 from 的统计转给 to，同一数据源以 from 的为准
	MoveAll(ctx context.Context, fromEntityID, toEntityID uint64) error
	DeleteByEntity(ctx context.Context, entityID uint64) (int64, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) Upsert(ctx context.Context, stat *model.EntityStat) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"run_id", "row_index", "stats", "updated_at"}),
	}).Create(stat).Error
}

func (r *statRepository) ListByEntity(ctx context.Context, entityID uint64) ([]*model.EntityStat, error) {
	var list []*model.EntityStat
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("provider ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *statRepository) MoveAll(ctx context.Context, fromEntityID, toEntityID uint64) error {
	db := r.db.WithContext(ctx)
	sub := db.Model(&model.EntityStat{}).Select("provider").Where("entity_id = ?", fromEntityID)
	if err := db.Where("entity_id = ? AND provider IN (?)", toEntityID, sub).Delete(&model.EntityStat{}).Error; err != nil {
		return err
	}
	return db.Model(&model.EntityStat{}).
		Where("entity_id = ?", fromEntityID).
		Update("entity_id", toEntityID).Error
}

func (r *statRepository) DeleteByEntity(ctx context.Context, entityID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Delete(&model.EntityStat{})
	return res.RowsAffected, res.Error
}
