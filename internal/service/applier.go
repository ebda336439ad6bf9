package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplierService 把高置信匹配写回规范实体：外部 ID、别名、统计
type ApplierService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewApplierService(db *gorm.DB, logger *logrus.Logger) *ApplierService {
	return &ApplierService{db: db, logger: logger}
}

// ApplyInput 一次写入
type ApplyInput struct {
	RunID    string
	RowIndex int
	Row      interfaces.Row
	EntityID uint64
}

// ApplySummary 批量写入结果
type ApplySummary struct {
	Applied int        `json:"applied"`
	Skipped int        `json:"skipped"`
	Errored int        `json:"errored"`
	Errors  []RowError `json:"errors"`
}

// Apply 只接受 exact_match/alias_match 且 high 的结果；返回是否真正写入
func (s *ApplierService) Apply(ctx context.Context, runID string, rowIndex int, row interfaces.Row, res model.MatchResult) (bool, error) {
	if !res.IsConfident() {
		return false, nil
	}
	in := ApplyInput{RunID: runID, RowIndex: rowIndex, Row: row, EntityID: *res.EntityID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ApplyTo(ctx, tx, in)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ApplyTo 在调用方事务内把一行写到指定实体。人工审核通过时也走这里
func (s *ApplierService) ApplyTo(ctx context.Context, tx *gorm.DB, in ApplyInput) error {
	entityRepo := repository.NewEntityRepository(tx)
	entity, err := entityRepo.GetByID(ctx, in.EntityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id=%d", ErrEntityNotFound, in.EntityID)
	}
	if err != nil {
		return fmt.Errorf("查询实体失败: %w", err)
	}

	source := "import:" + in.Row.Provider()
	if err := s.applyProviderIDs(ctx, entityRepo, entity, in.Row.ProviderIDs(), source); err != nil {
		return err
	}

	aliasRepo := repository.NewAliasRepository(tx)
	for _, v := range in.Row.NameVariations() {
		if _, err := aliasRepo.InsertIfAbsent(ctx, &model.EntityAlias{
			EntityID:  entity.ID,
			Provider:  in.Row.Provider(),
			AliasName: v,
		}); err != nil {
			return fmt.Errorf("写入别名失败: %w", err)
		}
	}

	if stats := in.Row.Stats(); len(stats) > 0 {
		raw, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("序列化统计失败: %w", err)
		}
		if err := repository.NewStatRepository(tx).Upsert(ctx, &model.EntityStat{
			EntityID: entity.ID,
			RunID:    in.RunID,
			Provider: in.Row.Provider(),
			RowIndex: in.RowIndex,
			Stats:    datatypes.JSON(raw),
		}); err != nil {
			return fmt.Errorf("写入统计失败: %w", err)
		}
	}
	return nil
}

// applyProviderIDs 先检查占用再写入；唯一约束兜底，冲突一律报错不覆盖
func (s *ApplierService) applyProviderIDs(ctx context.Context, repo repository.EntityRepository, entity *model.Entity, ids map[string]string, source string) error {
	columns := make([]string, 0, len(ids))
	for col := range ids {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		value := ids[col]
		if value == "" {
			continue
		}
		if !model.IsProviderIDColumn(col) {
			return fmt.Errorf("%w: %s", ErrUnknownProviderColumn, col)
		}
		current := entity.ProviderID(col)
		if current == value {
			continue
		}
		owner, err := repo.FindByProviderID(ctx, entity.Kind, col, value)
		if err != nil {
			return fmt.Errorf("查询外部ID占用失败: %w", err)
		}
		if owner != nil && owner.ID != entity.ID {
			return &ConflictError{Column: col, Value: value, OwnerID: owner.ID, TargetID: entity.ID}
		}
		if entity.Locked && current != "" {
			return fmt.Errorf("%w: 实体%d 的 %s 已为 %s，拒绝改为 %s", ErrEntityLocked, entity.ID, col, current, value)
		}
		n, err := repo.UpdateProviderID(ctx, entity.ID, col, value, source)
		if repository.IsDuplicateKey(err) {
			return &ConflictError{Column: col, Value: value, TargetID: entity.ID}
		}
		if err != nil {
			return fmt.Errorf("写入外部ID失败: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: id=%d", ErrEntityNotFound, entity.ID)
		}
		entity.SetProviderID(col, value)
	}
	return nil
}

// ApplyAllConfident 逐行写入高置信结果，单行失败只记录错误，不中断整批
func (s *ApplierService) ApplyAllConfident(ctx context.Context, runID string, rows []interfaces.Row, results []RowResult) (*ApplySummary, error) {
	summary := &ApplySummary{Errors: []RowError{}}
	for _, rr := range results {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("写入在第%d行前中止: %w", rr.RowIndex, err)
		}
		if !rr.Result.IsConfident() {
			summary.Skipped++
			continue
		}
		if rr.RowIndex < 0 || rr.RowIndex >= len(rows) {
			summary.Errored++
			summary.Errors = append(summary.Errors, newRowError(rr.RowIndex, fmt.Errorf("行号越界: %d", rr.RowIndex)))
			continue
		}
		if _, err := s.Apply(ctx, runID, rr.RowIndex, rows[rr.RowIndex], rr.Result); err != nil {
			summary.Errored++
			summary.Errors = append(summary.Errors, newRowError(rr.RowIndex, err))
			s.logger.WithError(err).WithFields(logrus.Fields{
				"row_index": rr.RowIndex,
				"entity_id": *rr.Result.EntityID,
			}).Warn("自动落库失败")
			continue
		}
		summary.Applied++
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"applied": summary.Applied,
		"skipped": summary.Skipped,
		"errored": summary.Errored,
	}).Info("高置信结果落库完成")
	return summary, nil
}
