package service

import (
	"context"
	"errors"
	"fmt"

	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImportRequest 一次导入
type ImportRequest struct {
	Kind        model.EntityKind
	Provider    string
	Rows        []interfaces.Row
	DryRun      bool // 只匹配不落库
	CreateStubs bool // 球员 no_match 行先建占位实体保存统计
}

// ImportSummary 导入结果
type ImportSummary struct {
	RunID    string           `json:"run_id"`
	Kind     model.EntityKind `json:"kind"`
	Provider string           `json:"provider"`
	DryRun   bool             `json:"dry_run"`
	Total    int              `json:"total"`
	Counts   StatusCounts     `json:"counts"`
	Applied  int              `json:"applied"`
	Skipped  int              `json:"skipped"`
	Errored  int              `json:"errored"`
	Queued   int              `json:"queued"`
	Stubs    int              `json:"stubs"`
	Errors   []RowError       `json:"errors"`
	Results  []RowResult      `json:"results,omitempty"`
}

// SeedSummary 首次建档结果
type SeedSummary struct {
	Created  int        `json:"created"`
	Existing int        `json:"existing"`
	Errored  int        `json:"errored"`
	Errors   []RowError `json:"errors"`
}

// ImportService 串起匹配、自动落库、占位实体和审核队列
type ImportService struct {
	db       *gorm.DB
	matching *MatchingService
	applier  *ApplierService
	stubs    *StubService
	review   *ReviewService
	logger   *logrus.Logger
}

func NewImportService(db *gorm.DB, matching *MatchingService, applier *ApplierService, stubs *StubService, review *ReviewService, logger *logrus.Logger) *ImportService {
	return &ImportService{
		db:       db,
		matching: matching,
		applier:  applier,
		stubs:    stubs,
		review:   review,
		logger:   logger,
	}
}

// Run 执行一次导入：校验前置条件 -> 匹配 -> 清理旧待审核 -> 落库 -> 占位实体 -> 入队。
// 请求校验之后的失败会连同已累计的 summary 一起返回
func (s *ImportService) Run(ctx context.Context, req ImportRequest) (*ImportSummary, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("未知的实体类型: %q", req.Kind)
	}
	if req.Provider == "" {
		return nil, errors.New("数据源不能为空")
	}
	if err := s.checkSeeded(ctx, req.Kind); err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		RunID:    uuid.NewString(),
		Kind:     req.Kind,
		Provider: req.Provider,
		DryRun:   req.DryRun,
		Total:    len(req.Rows),
		Errors:   []RowError{},
	}
	log := s.logger.WithFields(logrus.Fields{
		"run_id":   summary.RunID,
		"kind":     req.Kind,
		"provider": req.Provider,
	})
	log.WithField("rows", len(req.Rows)).Info("开始导入")

	batch, err := s.matching.ClassifyBatch(ctx, req.Kind, req.Rows)
	if batch != nil {
		summary.Counts = batch.Counts
		summary.Errored += len(batch.Errors)
		summary.Errors = append(summary.Errors, batch.Errors...)
	}
	if err != nil {
		return summary, err
	}

	if req.DryRun {
		summary.Results = batch.Results
		log.Info("试运行结束，未写入任何数据")
		return summary, nil
	}

	// 旧的待审核条目必须在本次入队前清掉
	scope := repository.ReviewScope{Kind: req.Kind, Provider: req.Provider}
	if _, err := s.review.ClearPending(ctx, scope); err != nil {
		return summary, err
	}

	// 中途取消时 applied 仍带有已累计的计数
	applied, err := s.applier.ApplyAllConfident(ctx, summary.RunID, req.Rows, batch.Results)
	if applied != nil {
		summary.Applied = applied.Applied
		summary.Skipped = applied.Skipped
		summary.Errored += applied.Errored
		summary.Errors = append(summary.Errors, applied.Errors...)
	}
	if err != nil {
		log.WithError(err).WithField("applied", summary.Applied).Warn("落库中止，本次未入队")
		return summary, err
	}

	stubs := map[int]uint64{}
	if req.CreateStubs && req.Kind == model.KindPlayer {
		stubs = s.createStubs(ctx, summary, req, batch.Results)
	}

	queued, err := s.review.Enqueue(ctx, summary.RunID, scope, req.Rows, batch.Results, stubs)
	if err != nil {
		return summary, err
	}
	summary.Queued = queued

	log.WithFields(logrus.Fields{
		"applied": summary.Applied,
		"queued":  summary.Queued,
		"stubs":   summary.Stubs,
		"errored": summary.Errored,
	}).Info("导入完成")
	return summary, nil
}

func (s *ImportService) checkSeeded(ctx context.Context, kind model.EntityKind) error {
	if kind != model.KindPlayer {
		return nil
	}
	n, err := repository.NewEntityRepository(s.db).CountByKind(ctx, model.KindClub)
	if err != nil {
		return fmt.Errorf("统计球队数量失败: %w", err)
	}
	if n == 0 {
		return ErrLookupNotSeeded
	}
	return nil
}

func (s *ImportService) createStubs(ctx context.Context, summary *ImportSummary, req ImportRequest, results []RowResult) map[int]uint64 {
	stubs := map[int]uint64{}
	for _, rr := range results {
		if rr.Result.Status != model.StatusNoMatch {
			continue
		}
		stub, err := s.stubs.CreateStub(ctx, req.Kind, summary.RunID, rr.RowIndex, req.Rows[rr.RowIndex])
		if err != nil {
			summary.Errored++
			summary.Errors = append(summary.Errors, newRowError(rr.RowIndex, err))
			s.logger.WithError(err).WithField("row_index", rr.RowIndex).Warn("创建占位实体失败")
			continue
		}
		if stub == nil {
			continue
		}
		stubs[rr.RowIndex] = stub.ID
		summary.Stubs++
	}
	return stubs
}

// Seed 首次建档：名称没有精确命中的行直接创建规范实体，并写入外部 ID/别名/统计。
// 球员按所属球队名精确查找球队，找不到或有重名时不挂球队
func (s *ImportService) Seed(ctx context.Context, kind model.EntityKind, provider string, rows []interfaces.Row) (*SeedSummary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("未知的实体类型: %q", kind)
	}
	runID := uuid.NewString()
	summary := &SeedSummary{Errors: []RowError{}}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("建档在第%d行前中止: %w", i, err)
		}
		created, err := s.seedRow(ctx, kind, runID, i, row)
		if err != nil {
			summary.Errored++
			summary.Errors = append(summary.Errors, newRowError(i, err))
			s.logger.WithError(err).WithField("row_index", i).Warn("建档失败")
			continue
		}
		if created {
			summary.Created++
		} else {
			summary.Existing++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"kind":     kind,
		"provider": provider,
		"created":  summary.Created,
		"existing": summary.Existing,
		"errored":  summary.Errored,
	}).Info("建档完成")
	return summary, nil
}

func (s *ImportService) seedRow(ctx context.Context, kind model.EntityKind, runID string, rowIndex int, row interfaces.Row) (bool, error) {
	if row.PrimaryName() == "" {
		return false, errors.New("名称为空")
	}
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewEntityRepository(tx)
		existing, err := repo.FindByName(ctx, kind, row.PrimaryName())
		if err != nil {
			return fmt.Errorf("按名称查询失败: %w", err)
		}
		if len(existing) > 0 {
			return nil
		}
		entity := &model.Entity{
			Kind:          kind,
			Name:          row.PrimaryName(),
			Country:       row.Country(),
			Competition:   row.Competition(),
			Position:      row.Position(),
			UpdatedSource: "seed:" + row.Provider(),
		}
		if kind == model.KindPlayer && row.Club() != "" {
			clubs, err := repo.FindByName(ctx, model.KindClub, row.Club())
			if err != nil {
				return fmt.Errorf("查询所属球队失败: %w", err)
			}
			if len(clubs) == 1 {
				entity.ClubID = &clubs[0].ID
			}
		}
		if err := repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("创建实体失败: %w", err)
		}
		created = true
		return s.applier.ApplyTo(ctx, tx, ApplyInput{RunID: runID, RowIndex: rowIndex, Row: row, EntityID: entity.ID})
	})
	return created, err
}
