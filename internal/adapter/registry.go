package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ========== 数据源列映射注册表 ==========
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Profile)
)

// Register 注册数据源列映射，重复注册会覆盖
func Register(p *Profile) {
	if p == nil || p.Provider == "" {
		panic("数据源列映射不能为空")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[p.Provider]; exists {
		logrus.Warnf("数据源%s的列映射已注册，将覆盖原有实现", p.Provider)
	}
	registry[p.Provider] = p
}

// GetProfile 获取指定数据源的列映射
func GetProfile(provider string) (*Profile, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[provider]
	if !ok {
		return nil, fmt.Errorf("未支持的数据源: %s", provider)
	}
	return p, nil
}

// ListProfiles 列出所有已注册的数据源（按名称排序）
func ListProfiles() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Restore 从审核队列里保存的原始字段还原为行
func Restore(provider string, fields map[string]string) (*MappedRow, error) {
	p, err := GetProfile(provider)
	if err != nil {
		return nil, err
	}
	return p.Wrap(fields), nil
}

func init() {
	for _, p := range builtinProfiles() {
		Register(p)
	}
}

// builtinProfiles 内置数据源的列映射
func builtinProfiles() []*Profile {
	return []*Profile{
		{
			Provider:         "fbref",
			NameField:        "name",
			CountryField:     "country",
			ClubField:        "squad",
			PositionField:    "pos",
			CompetitionField: "comp",
			AltNameFields:    []string{"alt_names"},
			IDFields:         map[string]string{"fbref_id": "fbref_id", "id": "fbref_id"},
			StatFields:       []string{"mp", "starts", "min", "gls", "ast", "xg", "xag"},
		},
		{
			Provider:         "transfermarkt",
			NameField:        "name",
			CountryField:     "country",
			ClubField:        "club",
			PositionField:    "position",
			CompetitionField: "competition",
			AltNameFields:    []string{"full_name", "aliases"},
			IDFields:         map[string]string{"tm_id": "transfermarkt_id", "transfermarkt_id": "transfermarkt_id"},
			StatFields:       []string{"market_value", "appearances", "goals", "assists"},
		},
		{
			Provider:         "fotmob",
			NameField:        "name",
			CountryField:     "ccode",
			ClubField:        "team",
			PositionField:    "role",
			CompetitionField: "league",
			AltNameFields:    []string{"short_name"},
			IDFields:         map[string]string{"fotmob_id": "fotmob_id", "id": "fotmob_id"},
			StatFields:       []string{"rating", "goals", "assists", "minutes_played"},
		},
		{
			Provider:         "sofascore",
			NameField:        "name",
			CountryField:     "country",
			ClubField:        "team",
			PositionField:    "position",
			CompetitionField: "tournament",
			AltNameFields:    []string{"short_name"},
			IDFields:         map[string]string{"sofascore_id": "sofascore_id", "id": "sofascore_id"},
			StatFields:       []string{"rating", "goals", "assists", "minutes_played"},
		},
		{
			Provider:         "understat",
			NameField:        "player_name",
			CountryField:     "country",
			ClubField:        "team_title",
			PositionField:    "position",
			CompetitionField: "league",
			IDFields:         map[string]string{"understat_id": "understat_id", "id": "understat_id"},
			StatFields:       []string{"games", "time", "goals", "assists", "xg", "xa", "npxg"},
		},
	}
}
