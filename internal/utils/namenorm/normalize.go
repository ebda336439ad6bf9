package namenorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents NFD 分解后去掉组合音标，再合回 NFC（é -> e, ü -> u）
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// 无法通过分解还原为 ASCII 的常见字母，手动映射
var specialLetters = strings.NewReplacer(
	"ß", "ss",
	"ø", "o",
	"æ", "ae",
	"œ", "oe",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
)

// clubAffixes 俱乐部名称中常见的前后缀，仅用于 NormalizeForSearch
var clubAffixes = map[string]struct{}{
	"fc": {}, "afc": {}, "cf": {}, "sc": {}, "ac": {}, "as": {}, "cd": {}, "ud": {}, "sd": {},
	"fk": {}, "sk": {}, "bk": {}, "if": {}, "sv": {}, "vfb": {}, "vfl": {}, "tsg": {},
	"rc": {}, "rcd": {}, "ssc": {}, "ss": {}, "us": {}, "club": {}, "united": {}, "city": {},
	"de": {}, "the": {}, "1": {},
}

// Normalize 轻量规范化：小写、去音标、只保留字母数字/空格/连字符/句点、折叠空白。
// 用于精确相等比较；空输入返回空串。
func Normalize(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = specialLetters.Replace(s)
	folded, _, err := transform.String(foldAccents, s)
	if err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
		// 其余字符（标点、无法转写的非 ASCII）直接丢弃
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeForSearch 激进规范化：在 Normalize 基础上把标点换成空格并去掉俱乐部词缀。
// 只用于缩小候选集合，不能用来断言两个名称相同。
func NormalizeForSearch(name string) string {
	s := Normalize(name)
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("-", " ", ".", " ").Replace(s)
	tokens := strings.Fields(s)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := clubAffixes[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	// 名称全部由词缀组成时（如 "AC"）保留原样，避免得到空串
	if len(kept) == 0 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(kept, " ")
}

// SearchPrefix 取搜索形式的前 n 个字符，用作 LIKE 前缀过滤
func SearchPrefix(name string, n int) string {
	s := NormalizeForSearch(name)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Tokens 规范化后按空白切分
func Tokens(name string) []string {
	return strings.Fields(Normalize(name))
}
