package adapter

import (
	"sort"
	"strconv"
	"strings"

	"RosterSync/internal/interfaces"
)

// Profile 某个数据源的列映射：源列名 -> 核心需要的字段
type Profile struct {
	Provider         string
	NameField        string
	CountryField     string
	ClubField        string
	PositionField    string
	CompetitionField string
	AltNameFields    []string
	IDFields         map[string]string // 源列名 -> entities 外部 ID 列
	StatFields       []string
}

// Wrap 把原始字段包装为 interfaces.Row
func (p *Profile) Wrap(fields map[string]string) *MappedRow {
	cleaned := make(map[string]string, len(fields))
	for k, v := range fields {
		cleaned[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return &MappedRow{profile: p, fields: cleaned}
}

// MappedRow 按 Profile 解释的一行数据
type MappedRow struct {
	profile *Profile
	fields  map[string]string
}

var _ interfaces.Row = (*MappedRow)(nil)

func (r *MappedRow) get(field string) string {
	if field == "" {
		return ""
	}
	return r.fields[field]
}

func (r *MappedRow) Provider() string    { return r.profile.Provider }
func (r *MappedRow) PrimaryName() string { return r.get(r.profile.NameField) }
func (r *MappedRow) Country() string     { return r.get(r.profile.CountryField) }
func (r *MappedRow) Club() string        { return r.get(r.profile.ClubField) }
func (r *MappedRow) Position() string    { return r.get(r.profile.PositionField) }
func (r *MappedRow) Competition() string { return r.get(r.profile.CompetitionField) }

// NameVariations 主名在前，其余别名按列顺序，忽略大小写去重
func (r *MappedRow) NameVariations() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	add(r.PrimaryName())
	for _, f := range r.profile.AltNameFields {
		// 一个单元格里可能用 | 或 ; 分隔多个别名
		for _, part := range strings.FieldsFunc(r.get(f), func(c rune) bool { return c == '|' || c == ';' }) {
			add(part)
		}
	}
	return out
}

// ProviderIDs 只返回非空值
func (r *MappedRow) ProviderIDs() map[string]string {
	srcs := make([]string, 0, len(r.profile.IDFields))
	for src := range r.profile.IDFields {
		srcs = append(srcs, src)
	}
	// 多个源列映射到同一列时结果要稳定
	sort.Strings(srcs)
	out := make(map[string]string)
	for _, src := range srcs {
		col := r.profile.IDFields[src]
		if v := r.get(src); v != "" {
			out[col] = v
		}
	}
	return out
}

// Stats 解析失败的统计列直接忽略
func (r *MappedRow) Stats() map[string]float64 {
	out := make(map[string]float64)
	for _, f := range r.profile.StatFields {
		v := strings.ReplaceAll(r.get(f), ",", "")
		if v == "" {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out[f] = n
		}
	}
	return out
}

func (r *MappedRow) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
