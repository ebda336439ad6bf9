package service

import (
	"context"
	"fmt"
	"strings"

	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/utils/country"
	"RosterSync/internal/utils/namenorm"

	"github.com/sirupsen/logrus"
)

// MatchingService 匹配引擎：把一行数据判定为 exact/alias/uncertain/no_match。
// 只有唯一且通过国家/球队校验的候选才会给出 high，多候选一律交给人工
type MatchingService struct {
	lookup *LookupService
	logger *logrus.Logger
}

func NewMatchingService(lookup *LookupService, logger *logrus.Logger) *MatchingService {
	return &MatchingService{lookup: lookup, logger: logger}
}

// RowResult 带行号的匹配结果，行号用于之后把审核条目对应回原始行
type RowResult struct {
	RowIndex int               `json:"row_index"`
	Result   model.MatchResult `json:"result"`
}

// StatusCounts 各状态计数
type StatusCounts map[model.MatchStatus]int

// NeedsReview 是否有需要人工处理的行
func (c StatusCounts) NeedsReview() bool {
	return c[model.StatusUncertain]+c[model.StatusNoMatch] > 0
}

// BatchResult 批量匹配结果
type BatchResult struct {
	Results []RowResult  `json:"results"`
	Counts  StatusCounts `json:"counts"`
	Errors  []RowError   `json:"errors"`
}

// Classify 按固定顺序判定单行，先满足的终态生效
func (s *MatchingService) Classify(ctx context.Context, kind model.EntityKind, row interfaces.Row) (model.MatchResult, error) {
	if !kind.Valid() {
		return model.MatchResult{}, fmt.Errorf("未知的实体类型: %q", kind)
	}
	name := strings.TrimSpace(row.PrimaryName())
	// 1. 主名为空
	if namenorm.Normalize(name) == "" {
		return model.NoMatch(), nil
	}

	// 2. 规范名称
	byName, err := s.lookup.ByName(ctx, kind, name)
	if err != nil {
		return model.MatchResult{}, err
	}
	nameType := model.MatchTypeCanonical
	if len(byName) == 0 && kind == model.KindPlayer {
		if byName, err = s.lookup.ByFuzzyName(ctx, kind, name); err != nil {
			return model.MatchResult{}, err
		}
		nameType = model.MatchTypeFuzzy
	}
	nameOK := s.filterByContext(kind, row, byName)
	if len(nameOK) == 1 {
		return model.Matched(model.StatusExactMatch, nameType, nameOK[0]), nil
	}

	// 3. 别名
	var byAlias []model.Candidate
	for _, v := range variationsWithPrimary(row, name) {
		found, err := s.lookup.ByAlias(ctx, kind, v)
		if err != nil {
			return model.MatchResult{}, err
		}
		byAlias = unionCandidates(byAlias, found)
	}
	aliasOK := s.filterByContext(kind, row, byAlias)
	if len(aliasOK) == 1 {
		return model.Matched(model.StatusAliasMatch, model.MatchTypeAlias, aliasOK[0]), nil
	}

	// 4. 多个通过校验的候选
	validated := unionCandidates(nameOK, aliasOK)
	if len(validated) > 1 {
		s.logCandidates(name, "多个候选，需人工确认", validated)
		return model.Uncertain(model.ConfidenceMedium, validated), nil
	}

	// 5. 有候选但全部被国家/球队校验排除，多半是数据源国家字段有问题
	all := unionCandidates(byName, byAlias)
	if len(all) > 0 {
		s.logCandidates(name, "候选全部未通过国家/球队校验", all)
		return model.Uncertain(model.ConfidenceLow, all), nil
	}

	// 6.
	return model.NoMatch(), nil
}

// ClassifyBatch 顺序处理整批数据。单行存储失败记入错误列表；ctx 取消时在行与行之间中止
func (s *MatchingService) ClassifyBatch(ctx context.Context, kind model.EntityKind, rows []interfaces.Row) (*BatchResult, error) {
	out := &BatchResult{
		Results: make([]RowResult, 0, len(rows)),
		Counts:  make(StatusCounts),
		Errors:  []RowError{},
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("匹配在第%d行前中止: %w", i, err)
		}
		res, err := s.Classify(ctx, kind, row)
		if err != nil {
			s.logger.WithError(err).WithField("row_index", i).Warn("行匹配失败")
			out.Errors = append(out.Errors, newRowError(i, err))
			continue
		}
		out.Results = append(out.Results, RowResult{RowIndex: i, Result: res})
		out.Counts[res.Status]++
	}
	s.logger.WithFields(logrus.Fields{
		"kind":        kind,
		"rows":        len(rows),
		"exact_match": out.Counts[model.StatusExactMatch],
		"alias_match": out.Counts[model.StatusAliasMatch],
		"uncertain":   out.Counts[model.StatusUncertain],
		"no_match":    out.Counts[model.StatusNoMatch],
		"errors":      len(out.Errors),
	}).Info("批量匹配完成")
	return out, nil
}

func (s *MatchingService) filterByContext(kind model.EntityKind, row interfaces.Row, candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if validateContext(kind, row, c) != country.Invalid {
			out = append(out, c)
		}
	}
	return out
}

// validateContext 球队：数据源国家 vs 库内联赛前缀；球员：数据源球队 vs 库内所属球队
func validateContext(kind model.EntityKind, row interfaces.Row, c model.Candidate) country.Validation {
	switch kind {
	case model.KindClub:
		return country.Validate(row.Country(), c.Context)
	case model.KindPlayer:
		rowClub := namenorm.NormalizeForSearch(row.Club())
		candClub := namenorm.NormalizeForSearch(c.Context)
		if rowClub == "" || candClub == "" {
			return country.Unknown
		}
		if rowClub == candClub {
			return country.Valid
		}
		return country.Invalid
	}
	return country.Unknown
}

func (s *MatchingService) logCandidates(name, msg string, candidates []model.Candidate) {
	if !s.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for _, c := range candidates {
		s.logger.WithFields(logrus.Fields{
			"name":       name,
			"candidate":  c.Name,
			"entity_id":  c.EntityID,
			"context":    c.Context,
			"similarity": namenorm.Similarity(name, c.Name),
		}).Debug(msg)
	}
}

// variationsWithPrimary 保证主名也参与别名查询
func variationsWithPrimary(row interfaces.Row, primary string) []string {
	vars := row.NameVariations()
	for _, v := range vars {
		if strings.EqualFold(strings.TrimSpace(v), primary) {
			return vars
		}
	}
	return append([]string{primary}, vars...)
}

// unionCandidates 按实体 ID 去重合并，保持首次出现的顺序
func unionCandidates(a, b []model.Candidate) []model.Candidate {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	out := make([]model.Candidate, 0, len(a)+len(b))
	for _, list := range [][]model.Candidate{a, b} {
		for _, c := range list {
			if _, ok := seen[c.EntityID]; ok {
				continue
			}
			seen[c.EntityID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
