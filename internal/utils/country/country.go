// Package country 国家名称到联赛前缀、地区的静态映射
package country

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Validation 国家与联赛编码的校验结果
type Validation int

const (
	// Unknown 无法校验（国家未知或联赛编码缺失），调用方既不接受也不拒绝
	Unknown Validation = iota
	Valid
	Invalid
)

func (v Validation) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// 地区
const (
	RegionEurope       = "europe"
	RegionSouthAmerica = "south_america"
	RegionNorthAmerica = "north_america"
	RegionAsia         = "asia"
	RegionAfrica       = "africa"
	RegionOceania      = "oceania"
)

type entry struct {
	prefix string
	region string
}

// leagues 国家 -> 联赛前缀（与 entities.competition 的 "prefix.subcode" 对齐）。进程内只读
var leagues = map[string]entry{
	"England":          {"eng", RegionEurope},
	"Scotland":         {"sco", RegionEurope},
	"Wales":            {"wal", RegionEurope},
	"Northern Ireland": {"nir", RegionEurope},
	"Ireland":          {"irl", RegionEurope},
	"Spain":            {"esp", RegionEurope},
	"Germany":          {"ger", RegionEurope},
	"Italy":            {"ita", RegionEurope},
	"France":           {"fra", RegionEurope},
	"Portugal":         {"por", RegionEurope},
	"Netherlands":      {"ned", RegionEurope},
	"Holland":          {"ned", RegionEurope},
	"Belgium":          {"bel", RegionEurope},
	"Austria":          {"aut", RegionEurope},
	"Switzerland":      {"sui", RegionEurope},
	"Turkey":           {"tur", RegionEurope},
	"Türkiye":          {"tur", RegionEurope},
	"Greece":           {"gre", RegionEurope},
	"Denmark":          {"den", RegionEurope},
	"Sweden":           {"swe", RegionEurope},
	"Norway":           {"nor", RegionEurope},
	"Poland":           {"pol", RegionEurope},
	"Czech Republic":   {"cze", RegionEurope},
	"Czechia":          {"cze", RegionEurope},
	"Croatia":          {"cro", RegionEurope},
	"Serbia":           {"srb", RegionEurope},
	"Ukraine":          {"ukr", RegionEurope},
	"Russia":           {"rus", RegionEurope},
	"Brazil":           {"bra", RegionSouthAmerica},
	"Argentina":        {"arg", RegionSouthAmerica},
	"Uruguay":          {"uru", RegionSouthAmerica},
	"Chile":            {"chi", RegionSouthAmerica},
	"Colombia":         {"col", RegionSouthAmerica},
	"United States":    {"usa", RegionNorthAmerica},
	"USA":              {"usa", RegionNorthAmerica},
	"Mexico":           {"mex", RegionNorthAmerica},
	"Canada":           {"can", RegionNorthAmerica},
	"Japan":            {"jpn", RegionAsia},
	"South Korea":      {"kor", RegionAsia},
	"Korea Republic":   {"kor", RegionAsia},
	"China":            {"chn", RegionAsia},
	"Saudi Arabia":     {"ksa", RegionAsia},
	"Australia":        {"aus", RegionOceania},
	"Egypt":            {"egy", RegionAfrica},
	"Morocco":          {"mar", RegionAfrica},
	"South Africa":     {"rsa", RegionAfrica},
	"Nigeria":          {"nga", RegionAfrica},
}

func lookup(name string) (entry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entry{}, false
	}
	// 1. 标题格式  2. 原始大小写  3. 忽略大小写逐个比较
	// Caser 有内部状态，不能跨 goroutine 共享，每次新建
	if e, ok := leagues[cases.Title(language.English).String(name)]; ok {
		return e, true
	}
	if e, ok := leagues[name]; ok {
		return e, true
	}
	for k, e := range leagues {
		if strings.EqualFold(k, name) {
			return e, true
		}
	}
	return entry{}, false
}

// Prefix 返回国家对应的联赛前缀，未知国家返回空串
func Prefix(name string) string {
	e, _ := lookup(name)
	return e.prefix
}

// Region 返回国家所属地区，未知返回空串
func Region(name string) string {
	e, _ := lookup(name)
	return e.region
}

// CompetitionPrefix 取联赛编码中 "." 之前的部分（"eng.1" -> "eng"）
func CompetitionPrefix(competition string) string {
	competition = strings.ToLower(strings.TrimSpace(competition))
	if i := strings.Index(competition, "."); i >= 0 {
		return competition[:i]
	}
	return competition
}

// Validate 校验数据源中的国家与库内联赛编码是否一致
func Validate(countryName, competition string) Validation {
	prefix := Prefix(countryName)
	compPrefix := CompetitionPrefix(competition)
	if prefix == "" || compPrefix == "" {
		return Unknown
	}
	if prefix == compPrefix {
		return Valid
	}
	return Invalid
}
