package service

import (
	"context"
	"fmt"

	"RosterSync/internal/matcher"
	"RosterSync/internal/model"
	"RosterSync/internal/repository"
	"RosterSync/internal/utils/namenorm"
)

// searchPrefixLen 规范化回退查询时的前缀长度
const searchPrefixLen = 3

// LookupService 只读的实体查找，可在一次匹配中重复调用
type LookupService struct {
	entityRepo repository.EntityRepository
	aliasRepo  repository.AliasRepository
	limit      int
}

func NewLookupService(entityRepo repository.EntityRepository, aliasRepo repository.AliasRepository, candidateLimit int) *LookupService {
	return &LookupService{entityRepo: entityRepo, aliasRepo: aliasRepo, limit: candidateLimit}
}

// ByName 先按名称忽略大小写精确匹配；没有结果时按规范化名称相等查询，搜索形式前缀只用来缩小扫描范围
func (s *LookupService) ByName(ctx context.Context, kind model.EntityKind, name string) ([]model.Candidate, error) {
	if namenorm.Normalize(name) == "" {
		return []model.Candidate{}, nil
	}
	exact, err := s.entityRepo.FindByName(ctx, kind, name)
	if err != nil {
		return nil, fmt.Errorf("按名称查询失败: %w", err)
	}
	if len(exact) > 0 {
		return s.toCandidates(ctx, kind, exact)
	}

	prefix := namenorm.SearchPrefix(name, searchPrefixLen)
	hits, err := s.entityRepo.FindByNormalizedName(ctx, kind, prefix, namenorm.Normalize(name))
	if err != nil {
		return nil, fmt.Errorf("按规范化名称查询失败: %w", err)
	}
	return s.toCandidates(ctx, kind, hits)
}

// ByAlias 别名忽略大小写精确匹配，按实体去重
func (s *LookupService) ByAlias(ctx context.Context, kind model.EntityKind, name string) ([]model.Candidate, error) {
	if namenorm.Normalize(name) == "" {
		return []model.Candidate{}, nil
	}
	aliases, err := s.aliasRepo.FindByName(ctx, kind, name)
	if err != nil {
		return nil, fmt.Errorf("按别名查询失败: %w", err)
	}
	seen := make(map[uint64]struct{})
	ids := make([]uint64, 0, len(aliases))
	for _, a := range aliases {
		if _, ok := seen[a.EntityID]; ok {
			continue
		}
		seen[a.EntityID] = struct{}{}
		ids = append(ids, a.EntityID)
	}
	entities, err := s.entityRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询别名所属实体失败: %w", err)
	}
	return s.toCandidates(ctx, kind, orderByIDs(entities, ids))
}

// ByFuzzyName 球员名模糊查找：用最长的词做 LIKE 预筛选，再用 matcher.SamePerson 判定
func (s *LookupService) ByFuzzyName(ctx context.Context, kind model.EntityKind, name string) ([]model.Candidate, error) {
	token := matcher.LongestToken(name)
	if len(token) < 2 {
		return []model.Candidate{}, nil
	}
	pool, err := s.entityRepo.FindByNameToken(ctx, kind, token, s.limit)
	if err != nil {
		return nil, fmt.Errorf("模糊查询失败: %w", err)
	}
	var hits []*model.Entity
	for _, e := range pool {
		if matcher.SamePerson(name, e.Name) {
			hits = append(hits, e)
		}
	}
	return s.toCandidates(ctx, kind, hits)
}

// Describe 按 ID 顺序取回候选详情，审核列表展示用；已不存在的实体直接跳过
func (s *LookupService) Describe(ctx context.Context, kind model.EntityKind, ids []uint64) ([]model.Candidate, error) {
	if len(ids) == 0 {
		return []model.Candidate{}, nil
	}
	entities, err := s.entityRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询候选实体失败: %w", err)
	}
	return s.toCandidates(ctx, kind, orderByIDs(entities, ids))
}

// toCandidates 球队的上下文是联赛编码，球员的上下文是所属球队名（二次查询）
func (s *LookupService) toCandidates(ctx context.Context, kind model.EntityKind, entities []*model.Entity) ([]model.Candidate, error) {
	out := make([]model.Candidate, 0, len(entities))
	if len(entities) == 0 {
		return out, nil
	}
	clubNames := map[uint64]string{}
	if kind == model.KindPlayer {
		var clubIDs []uint64
		for _, e := range entities {
			if e.ClubID != nil {
				clubIDs = append(clubIDs, *e.ClubID)
			}
		}
		clubs, err := s.entityRepo.GetByIDs(ctx, clubIDs)
		if err != nil {
			return nil, fmt.Errorf("查询球员所属球队失败: %w", err)
		}
		for _, c := range clubs {
			clubNames[c.ID] = c.Name
		}
	}
	for _, e := range entities {
		c := model.Candidate{EntityID: e.ID, Name: e.Name, Context: e.Competition}
		if kind == model.KindPlayer {
			c.Context = ""
			if e.ClubID != nil {
				c.Context = clubNames[*e.ClubID]
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func orderByIDs(entities []*model.Entity, ids []uint64) []*model.Entity {
	byID := make(map[uint64]*model.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	out := make([]*model.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
