package model

import (
	"database/sql/driver"
	"fmt"
)

// EnumError 库内字符串无法映射为枚举值
type EnumError struct {
	Type  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("非法的%s取值: %q", e.Type, e.Value)
}

// MatchStatus 单行匹配结论
type MatchStatus string

const (
	StatusExactMatch MatchStatus = "exact_match"
	StatusAliasMatch MatchStatus = "alias_match"
	StatusUncertain  MatchStatus = "uncertain"
	StatusNoMatch    MatchStatus = "no_match"
)

// AllMatchStatuses 固定顺序，用于统计输出
var AllMatchStatuses = []MatchStatus{StatusExactMatch, StatusAliasMatch, StatusUncertain, StatusNoMatch}

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusExactMatch, StatusAliasMatch, StatusUncertain, StatusNoMatch:
		return true
	}
	return false
}

// NeedsReview 是否需要进入人工审核队列
func (s MatchStatus) NeedsReview() bool {
	return s == StatusUncertain || s == StatusNoMatch
}

func (s MatchStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, &EnumError{Type: "match status", Value: string(s)}
	}
	return string(s), nil
}

func (s *MatchStatus) Scan(src interface{}) error {
	v, err := scanEnumString(src)
	if err != nil {
		return err
	}
	if st := MatchStatus(v); st.Valid() {
		*s = st
		return nil
	}
	return &EnumError{Type: "match status", Value: v}
}

// Confidence 匹配置信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNone:
		return true
	}
	return false
}

func (c Confidence) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, &EnumError{Type: "confidence", Value: string(c)}
	}
	return string(c), nil
}

func (c *Confidence) Scan(src interface{}) error {
	v, err := scanEnumString(src)
	if err != nil {
		return err
	}
	if cf := Confidence(v); cf.Valid() {
		*c = cf
		return nil
	}
	return &EnumError{Type: "confidence", Value: v}
}

// MatchType 命中的途径
type MatchType string

const (
	MatchTypeNone      MatchType = ""
	MatchTypeCanonical MatchType = "canonical"
	MatchTypeAlias     MatchType = "alias"
	MatchTypeFuzzy     MatchType = "fuzzy"
)

// Candidate 候选实体；Context 对球队是联赛编码，对球员是所属球队名
type Candidate struct {
	EntityID uint64 `json:"entity_id"`
	Name     string `json:"name"`
	Context  string `json:"context,omitempty"`
}

// MatchResult 匹配引擎对一行数据的结论。
// exact_match/alias_match 必然是 high 且只有一个候选
type MatchResult struct {
	Status     MatchStatus `json:"status"`
	Confidence Confidence  `json:"confidence"`
	MatchType  MatchType   `json:"match_type,omitempty"`
	EntityID   *uint64     `json:"matched_entity_id,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// IsConfident 是否可以自动落库
func (r *MatchResult) IsConfident() bool {
	return (r.Status == StatusExactMatch || r.Status == StatusAliasMatch) &&
		r.Confidence == ConfidenceHigh && r.EntityID != nil
}

// CandidateIDs 候选 ID 列表（保持顺序）
func (r *MatchResult) CandidateIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		ids = append(ids, c.EntityID)
	}
	return ids
}

// NoMatch 空结果
func NoMatch() MatchResult {
	return MatchResult{Status: StatusNoMatch, Confidence: ConfidenceNone, Candidates: []Candidate{}}
}

// Matched 单一候选的高置信结果
func Matched(status MatchStatus, matchType MatchType, c Candidate) MatchResult {
	id := c.EntityID
	return MatchResult{
		Status:     status,
		Confidence: ConfidenceHigh,
		MatchType:  matchType,
		EntityID:   &id,
		Candidates: []Candidate{c},
	}
}

// Uncertain 多候选或被国家过滤掉的候选
func Uncertain(confidence Confidence, candidates []Candidate) MatchResult {
	return MatchResult{Status: StatusUncertain, Confidence: confidence, Candidates: candidates}
}

func scanEnumString(src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("无法把 %T 转为枚举字符串", src)
	}
}
