package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StubService 占位实体：无法匹配但需要先落库统计数据的行，等人工关联后合并进真实实体
type StubService struct {
	db      *gorm.DB
	applier *ApplierService
	logger  *logrus.Logger
}

func NewStubService(db *gorm.DB, applier *ApplierService, logger *logrus.Logger) *StubService {
	return &StubService{db: db, applier: applier, logger: logger}
}

// CreateStub 为一行创建占位实体并写入外部 ID/别名/统计。
// 若行内某个外部 ID 已属于某个占位实体（重复导入），直接复用；已属于真实实体时不创建，返回 nil
func (s *StubService) CreateStub(ctx context.Context, kind model.EntityKind, runID string, rowIndex int, row interfaces.Row) (*model.Entity, error) {
	var stub *model.Entity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewEntityRepository(tx)

		existing, err := s.findOwner(ctx, repo, kind, row.ProviderIDs())
		if err != nil {
			return err
		}
		if existing != nil && !existing.IsStub {
			s.logger.WithFields(logrus.Fields{
				"row_index": rowIndex,
				"entity_id": existing.ID,
			}).Info("外部ID已属于真实实体，不创建占位实体")
			return nil
		}
		if existing == nil {
			existing = &model.Entity{
				Kind:         kind,
				Name:         row.PrimaryName(),
				Country:      row.Country(),
				Position:     row.Position(),
				IsStub:       true,
				NeedsMapping: true,
			}
			if err := repo.Create(ctx, existing); err != nil {
				return fmt.Errorf("创建占位实体失败: %w", err)
			}
		}
		if err := s.applier.ApplyTo(ctx, tx, ApplyInput{RunID: runID, RowIndex: rowIndex, Row: row, EntityID: existing.ID}); err != nil {
			return err
		}
		stub = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stub, nil
}

func (s *StubService) findOwner(ctx context.Context, repo repository.EntityRepository, kind model.EntityKind, ids map[string]string) (*model.Entity, error) {
	columns := make([]string, 0, len(ids))
	for col := range ids {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		if !model.IsProviderIDColumn(col) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProviderColumn, col)
		}
		owner, err := repo.FindByProviderID(ctx, kind, col, ids[col])
		if err != nil {
			return nil, fmt.Errorf("查询外部ID占用失败: %w", err)
		}
		if owner != nil {
			return owner, nil
		}
	}
	return nil, nil
}

// Merge 在调用方事务内把占位实体并入真实实体：外部 ID 填入目标空位，别名和统计改挂目标，然后删除占位实体。
// 占位实体已不存在（此前已合并）时直接返回
func (s *StubService) Merge(ctx context.Context, tx *gorm.DB, stubID, targetID uint64) error {
	repo := repository.NewEntityRepository(tx)
	stub, err := repo.GetByID(ctx, stubID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.WithField("stub_id", stubID).Info("占位实体已不存在，跳过合并")
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询占位实体失败: %w", err)
	}
	if !stub.IsStub {
		return fmt.Errorf("实体%d不是占位实体，不能合并", stubID)
	}
	target, err := repo.GetByID(ctx, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id=%d", ErrEntityNotFound, targetID)
	}
	if err != nil {
		return fmt.Errorf("查询目标实体失败: %w", err)
	}
	if stub.Kind != target.Kind {
		return fmt.Errorf("%w: 占位实体为%s，目标为%s", ErrKindMismatch, stub.Kind, target.Kind)
	}

	ids := stub.ProviderIDs()
	// 先清空占位实体上的 ID，否则写目标时会撞唯一约束
	if err := repo.ClearProviderIDs(ctx, stub.ID); err != nil {
		return fmt.Errorf("清空占位实体外部ID失败: %w", err)
	}
	columns := make([]string, 0, len(ids))
	for col := range ids {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		value := ids[col]
		current := target.ProviderID(col)
		if current == value {
			continue
		}
		if current != "" {
			return fmt.Errorf("%w: 实体%d 的 %s 为 %s，占位实体为 %s", ErrSlotOccupied, target.ID, col, current, value)
		}
		if _, err := repo.UpdateProviderID(ctx, target.ID, col, value, "merge:stub"); err != nil {
			if repository.IsDuplicateKey(err) {
				return &ConflictError{Column: col, Value: value, TargetID: target.ID}
			}
			return fmt.Errorf("写入外部ID失败: %w", err)
		}
	}

	if err := repository.NewAliasRepository(tx).Repoint(ctx, stub.ID, target.ID); err != nil {
		return fmt.Errorf("转移别名失败: %w", err)
	}
	if err := repository.NewStatRepository(tx).MoveAll(ctx, stub.ID, target.ID); err != nil {
		return fmt.Errorf("转移统计失败: %w", err)
	}
	if _, err := repo.DeleteStub(ctx, stub.ID); err != nil {
		return fmt.Errorf("删除占位实体失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"stub_id": stub.ID, "target_id": target.ID}).Info("占位实体已合并")
	return nil
}

// Discard 在调用方事务内删除占位实体及其别名和统计，用于重新导入前清理旧的待审核条目。
// 占位实体已不存在时直接返回
func (s *StubService) Discard(ctx context.Context, tx *gorm.DB, stubID uint64) error {
	repo := repository.NewEntityRepository(tx)
	stub, err := repo.GetByID(ctx, stubID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("查询占位实体失败: %w", err)
	}
	if !stub.IsStub {
		return fmt.Errorf("实体%d不是占位实体，不能删除", stubID)
	}
	if _, err := repository.NewAliasRepository(tx).DeleteByEntity(ctx, stub.ID); err != nil {
		return fmt.Errorf("删除占位实体别名失败: %w", err)
	}
	if _, err := repository.NewStatRepository(tx).DeleteByEntity(ctx, stub.ID); err != nil {
		return fmt.Errorf("删除占位实体统计失败: %w", err)
	}
	if _, err := repo.DeleteStub(ctx, stub.ID); err != nil {
		return fmt.Errorf("删除占位实体失败: %w", err)
	}
	return nil
}
