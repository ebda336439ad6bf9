package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RosterSync/internal/adapter"
	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/repository"
	"RosterSync/internal/utils/namenorm"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoredRow 审核队列里保存的原始行
type StoredRow struct {
	Provider string            `json:"provider"`
	Fields   map[string]string `json:"fields"`
}

// CandidateView 审核列表中的候选实体
type CandidateView struct {
	EntityID   uint64 `json:"entity_id"`
	Name       string `json:"name"`
	Context    string `json:"context"`
	Similarity int    `json:"similarity"`
}

// ReviewItemView 审核列表条目
type ReviewItemView struct {
	ID           uint64            `json:"id"`
	RunID        string            `json:"run_id"`
	Kind         model.EntityKind  `json:"kind"`
	Provider     string            `json:"provider"`
	RowIndex     int               `json:"row_index"`
	DisplayName  string            `json:"display_name"`
	Country      string            `json:"country"`
	MatchStatus  model.MatchStatus `json:"match_status"`
	Confidence   model.Confidence  `json:"confidence"`
	StubEntityID *uint64           `json:"stub_entity_id,omitempty"`
	Candidates   []CandidateView   `json:"candidates"`
	Fields       map[string]string `json:"fields"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ReviewPage 分页结果
type ReviewPage struct {
	Items    []ReviewItemView `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ReviewService 人工审核队列
type ReviewService struct {
	db      *gorm.DB
	repo    repository.ReviewRepository
	lookup  *LookupService
	applier *ApplierService
	stubs   *StubService
	logger  *logrus.Logger
}

func NewReviewService(db *gorm.DB, lookup *LookupService, applier *ApplierService, stubs *StubService, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		db:      db,
		repo:    repository.NewReviewRepository(db),
		lookup:  lookup,
		applier: applier,
		stubs:   stubs,
		logger:  logger,
	}
}

// ClearPending 删除范围内未处理的条目及其引用的占位实体；已审核的条目和它们引用的占位实体保留
func (s *ReviewService) ClearPending(ctx context.Context, scope repository.ReviewScope) (int64, error) {
	var deleted int64
	var stubIDs []uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewReviewRepository(tx)
		ids, err := repo.PendingStubIDs(ctx, scope)
		if err != nil {
			return fmt.Errorf("查询待审核条目的占位实体失败: %w", err)
		}
		n, err := repo.DeletePending(ctx, scope)
		if err != nil {
			return fmt.Errorf("清理待审核条目失败: %w", err)
		}
		for _, id := range ids {
			if err := s.stubs.Discard(ctx, tx, id); err != nil {
				return err
			}
		}
		deleted, stubIDs = n, ids
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{
		"kind":     scope.Kind,
		"provider": scope.Provider,
		"deleted":  deleted,
		"stubs":    len(stubIDs),
	}).Info("已清理待审核条目")
	return deleted, nil
}

// Enqueue 把 uncertain/no_match 的行写入队列，stubs 为行号到占位实体的映射。返回入队条数
func (s *ReviewService) Enqueue(ctx context.Context, runID string, source repository.ReviewScope, rows []interfaces.Row, results []RowResult, stubs map[int]uint64) (int, error) {
	if !source.Kind.Valid() {
		return 0, fmt.Errorf("入队需要明确的实体类型: %q", source.Kind)
	}
	items := make([]*model.ReviewQueueItem, 0)
	for _, rr := range results {
		if !rr.Result.Status.NeedsReview() {
			continue
		}
		if rr.RowIndex < 0 || rr.RowIndex >= len(rows) {
			return 0, fmt.Errorf("行号越界: %d", rr.RowIndex)
		}
		row := rows[rr.RowIndex]
		rowData, err := json.Marshal(StoredRow{Provider: row.Provider(), Fields: row.Fields()})
		if err != nil {
			return 0, fmt.Errorf("序列化第%d行失败: %w", rr.RowIndex, err)
		}
		candidateIDs, err := json.Marshal(rr.Result.CandidateIDs())
		if err != nil {
			return 0, fmt.Errorf("序列化候选失败: %w", err)
		}
		item := &model.ReviewQueueItem{
			RunID:        runID,
			Kind:         source.Kind,
			Provider:     source.Provider,
			RowIndex:     rr.RowIndex,
			DisplayName:  row.PrimaryName(),
			Country:      row.Country(),
			RowData:      datatypes.JSON(rowData),
			MatchStatus:  rr.Result.Status,
			Confidence:   rr.Result.Confidence,
			CandidateIDs: datatypes.JSON(candidateIDs),
			ReviewStatus: model.ReviewPending,
		}
		if id, ok := stubs[rr.RowIndex]; ok {
			stubID := id
			item.StubEntityID = &stubID
		}
		items = append(items, item)
	}
	if err := s.repo.CreateBatch(ctx, items); err != nil {
		return 0, fmt.Errorf("写入审核队列失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"kind":     source.Kind,
		"provider": source.Provider,
		"queued":   len(items),
	}).Info("待审核条目已入队")
	return len(items), nil
}

func (s *ReviewService) CountPending(ctx context.Context, scope repository.ReviewScope) (int64, error) {
	n, err := s.repo.CountPending(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("统计待审核条目失败: %w", err)
	}
	return n, nil
}

// ListPending 分页列出待审核条目。候选详情在读取时查询，已删除的候选不再展示
func (s *ReviewService) ListPending(ctx context.Context, scope repository.ReviewScope, page, pageSize int) (*ReviewPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	list, total, err := s.repo.ListPending(ctx, scope, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("查询待审核条目失败: %w", err)
	}
	out := &ReviewPage{Items: make([]ReviewItemView, 0, len(list)), Total: total, Page: page, PageSize: pageSize}
	for _, item := range list {
		view, err := s.toView(ctx, item)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, view)
	}
	return out, nil
}

func (s *ReviewService) toView(ctx context.Context, item *model.ReviewQueueItem) (ReviewItemView, error) {
	view := ReviewItemView{
		ID:           item.ID,
		RunID:        item.RunID,
		Kind:         item.Kind,
		Provider:     item.Provider,
		RowIndex:     item.RowIndex,
		DisplayName:  item.DisplayName,
		Country:      item.Country,
		MatchStatus:  item.MatchStatus,
		Confidence:   item.Confidence,
		StubEntityID: item.StubEntityID,
		Candidates:   []CandidateView{},
		CreatedAt:    item.CreatedAt,
	}
	stored, err := decodeStoredRow(item)
	if err != nil {
		return view, err
	}
	view.Fields = stored.Fields

	var ids []uint64
	if len(item.CandidateIDs) > 0 {
		if err := json.Unmarshal(item.CandidateIDs, &ids); err != nil {
			return view, fmt.Errorf("解析审核条目%d的候选失败: %w", item.ID, err)
		}
	}
	cands, err := s.lookup.Describe(ctx, item.Kind, ids)
	if err != nil {
		return view, err
	}
	for _, c := range cands {
		view.Candidates = append(view.Candidates, CandidateView{
			EntityID:   c.EntityID,
			Name:       c.Name,
			Context:    c.Context,
			Similarity: namenorm.Similarity(item.DisplayName, c.Name),
		})
	}
	return view, nil
}

// Approve 审核通过：在一个事务里更新状态、合并占位实体、把原始行写到选定实体。
// entityID 可以不在候选里
func (s *ReviewService) Approve(ctx context.Context, id, entityID uint64, note string) (*model.ReviewQueueItem, error) {
	var approved *model.ReviewQueueItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewRepo := repository.NewReviewRepository(tx)
		item, err := s.loadOpenItem(ctx, reviewRepo, id)
		if err != nil {
			return err
		}

		target, err := repository.NewEntityRepository(tx).GetByID(ctx, entityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%d", ErrEntityNotFound, entityID)
		}
		if err != nil {
			return fmt.Errorf("查询实体失败: %w", err)
		}
		if target.Kind != item.Kind {
			return fmt.Errorf("%w: 条目为%s，实体为%s", ErrKindMismatch, item.Kind, target.Kind)
		}
		if target.IsStub {
			return fmt.Errorf("%w: id=%d", ErrStubTarget, entityID)
		}

		now := time.Now()
		if _, err := reviewRepo.UpdateStatus(ctx, item.ID, repository.ReviewUpdate{
			Status:           model.ReviewApproved,
			ApprovedEntityID: &entityID,
			ReviewedAt:       &now,
			Note:             note,
		}); err != nil {
			return fmt.Errorf("更新审核状态失败: %w", err)
		}

		if item.StubEntityID != nil {
			if err := s.stubs.Merge(ctx, tx, *item.StubEntityID, entityID); err != nil {
				return err
			}
		}

		stored, err := decodeStoredRow(item)
		if err != nil {
			return err
		}
		row, err := adapter.Restore(stored.Provider, stored.Fields)
		if err != nil {
			return fmt.Errorf("还原审核条目%d失败: %w", item.ID, err)
		}
		if err := s.applier.ApplyTo(ctx, tx, ApplyInput{
			RunID:    item.RunID,
			RowIndex: item.RowIndex,
			Row:      row,
			EntityID: entityID,
		}); err != nil {
			return err
		}

		item.ReviewStatus = model.ReviewApproved
		item.ApprovedEntityID = &entityID
		item.ReviewedAt = &now
		item.Note = note
		approved = item
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"item_id": id, "entity_id": entityID}).Warn("审核通过失败")
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"item_id": id, "entity_id": entityID}).Info("审核通过")
	return approved, nil
}

// Reject 驳回：不写任何实体数据
func (s *ReviewService) Reject(ctx context.Context, id uint64, note string) (*model.ReviewQueueItem, error) {
	now := time.Now()
	return s.close(ctx, id, model.ReviewRejected, &now, note)
}

// Skip 暂时跳过，不记录审核时间
func (s *ReviewService) Skip(ctx context.Context, id uint64, note string) (*model.ReviewQueueItem, error) {
	return s.close(ctx, id, model.ReviewSkipped, nil, note)
}

func (s *ReviewService) close(ctx context.Context, id uint64, status model.ReviewStatus, reviewedAt *time.Time, note string) (*model.ReviewQueueItem, error) {
	item, err := s.loadOpenItem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.UpdateStatus(ctx, id, repository.ReviewUpdate{Status: status, ReviewedAt: reviewedAt, Note: note})
	if err != nil {
		return nil, fmt.Errorf("更新审核状态失败: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: id=%d", ErrQueueItemNotFound, id)
	}
	item.ReviewStatus = status
	item.ApprovedEntityID = nil
	item.ReviewedAt = reviewedAt
	item.Note = note
	s.logger.WithFields(logrus.Fields{"item_id": id, "status": status}).Info("审核条目已更新")
	return item, nil
}

// loadOpenItem 已通过的条目数据已经落库，不允许再改状态
func (s *ReviewService) loadOpenItem(ctx context.Context, repo repository.ReviewRepository, id uint64) (*model.ReviewQueueItem, error) {
	item, err := repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id=%d", ErrQueueItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("查询审核条目失败: %w", err)
	}
	if item.ReviewStatus == model.ReviewApproved {
		return nil, fmt.Errorf("%w: id=%d", ErrAlreadyApproved, id)
	}
	return item, nil
}

func decodeStoredRow(item *model.ReviewQueueItem) (*StoredRow, error) {
	var stored StoredRow
	if err := json.Unmarshal(item.RowData, &stored); err != nil {
		return nil, fmt.Errorf("解析审核条目%d的原始行失败: %w", item.ID, err)
	}
	if stored.Provider == "" {
		stored.Provider = item.Provider
	}
	return &stored, nil
}
