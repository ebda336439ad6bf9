package repository

import (
	"context"
	"time"

	"RosterSync/internal/model"

	"gorm.io/gorm"
)

// ReviewScope 审核队列范围，零值表示全部
type ReviewScope struct {
	Kind     model.EntityKind
	Provider string
}

func (s ReviewScope) apply(db *gorm.DB) *gorm.DB {
	if s.Kind != "" {
		db = db.Where("kind = ?", s.Kind)
	}
	if s.Provider != "" {
		db = db.Where("provider = ?", s.Provider)
	}
	return db
}

// ReviewUpdate 审核状态变更
type ReviewUpdate struct {
	Status           model.ReviewStatus
	ApprovedEntityID *uint64
	ReviewedAt       *time.Time
	Note             string
}

// ReviewRepository 审核队列仓储
type ReviewRepository interface {
	// DeletePending 删除范围内仍为 pending 的条目，已审核的保留用于审计
	DeletePending(ctx context.Context, scope ReviewScope) (int64, error)
	// PendingStubIDs 范围内 pending 条目引用、且没有被已审核条目引用的占位实体
	PendingStubIDs(ctx context.Context, scope ReviewScope) ([]uint64, error)
	CreateBatch(ctx context.Context, items []*model.ReviewQueueItem) error
	CountPending(ctx context.Context, scope ReviewScope) (int64, error)
	ListPending(ctx context.Context, scope ReviewScope, page, pageSize int) ([]*model.ReviewQueueItem, int64, error)
	ListByRun(ctx context.Context, runID string) ([]*model.ReviewQueueItem, error)
	GetByID(ctx context.Context, id uint64) (*model.ReviewQueueItem, error)
	// UpdateStatus 单行更新，返回影响行数
	UpdateStatus(ctx context.Context, id uint64, upd ReviewUpdate) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) DeletePending(ctx context.Context, scope ReviewScope) (int64, error) {
	db := scope.apply(r.db.WithContext(ctx).Where("review_status = ?", model.ReviewPending))
	res := db.Delete(&model.ReviewQueueItem{})
	return res.RowsAffected, res.Error
}

func (r *reviewRepository) PendingStubIDs(ctx context.Context, scope ReviewScope) ([]uint64, error) {
	db := r.db.WithContext(ctx)
	reviewed := db.Model(&model.ReviewQueueItem{}).
		Select("stub_entity_id").
		Where("review_status <> ? AND stub_entity_id IS NOT NULL", model.ReviewPending)
	q := scope.apply(db.Model(&model.ReviewQueueItem{}).
		Where("review_status = ? AND stub_entity_id IS NOT NULL", model.ReviewPending).
		Where("stub_entity_id NOT IN (?)", reviewed))
	var ids []uint64
	if err := q.Distinct("stub_entity_id").Order("stub_entity_id ASC").Pluck("stub_entity_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *reviewRepository) CreateBatch(ctx context.Context, items []*model.ReviewQueueItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (r *reviewRepository) CountPending(ctx context.Context, scope ReviewScope) (int64, error) {
	var total int64
	db := scope.apply(r.db.WithContext(ctx).Model(&model.ReviewQueueItem{}).Where("review_status = ?", model.ReviewPending))
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *reviewRepository) ListPending(ctx context.Context, scope ReviewScope, page, pageSize int) ([]*model.ReviewQueueItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := scope.apply(r.db.WithContext(ctx).Model(&model.ReviewQueueItem{}).Where("review_status = ?", model.ReviewPending))
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.ReviewQueueItem
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *reviewRepository) ListByRun(ctx context.Context, runID string) ([]*model.ReviewQueueItem, error) {
	var list []*model.ReviewQueueItem
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("row_index ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint64) (*model.ReviewQueueItem, error) {
	var item model.ReviewQueueItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uint64, upd ReviewUpdate) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ReviewQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"review_status":      upd.Status,
			"approved_entity_id": upd.ApprovedEntityID,
			"reviewed_at":        upd.ReviewedAt,
			"note":               upd.Note,
		})
	return res.RowsAffected, res.Error
}
