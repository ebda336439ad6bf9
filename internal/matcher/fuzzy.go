// Package matcher 球员姓名模糊匹配。
// 球队名称由人工维护，走精确/别名匹配；球员名称来源噪声更大，才需要这里的启发式规则。
package matcher

import (
	"strings"

	"RosterSync/internal/utils/namenorm"
)

const (
	minPrefixLen    = 2 // 名字前缀匹配时两边的最短长度
	minSubstringLen = 3 // 子串匹配时两边的最短长度
)

// SamePerson 判断两个展示名是否指向同一个人，满足任一规则即为 true：
//
//  1. 规范化后完全相同
//  2. 姓（最后一个词）相同，且其余词中至少有一对相同或互为前缀（"Mohamed Salah" / "Mo Salah"）
//  3. 一方是另一方的子串，且两边都不短于 3 个字符（只有昵称/单名的情况）
//
// 规则对参数顺序对称。
func SamePerson(a, b string) bool {
	na, nb := namenorm.Normalize(a), namenorm.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if sameSurnameRelatedGiven(strings.Fields(na), strings.Fields(nb)) {
		return true
	}
	return substringMatch(na, nb)
}

func sameSurnameRelatedGiven(ta, tb []string) bool {
	if len(ta) < 2 || len(tb) < 2 {
		return false
	}
	if ta[len(ta)-1] != tb[len(tb)-1] {
		return false
	}
	for _, x := range ta[:len(ta)-1] {
		for _, y := range tb[:len(tb)-1] {
			if tokensRelated(x, y) {
				return true
			}
		}
	}
	return false
}

func tokensRelated(x, y string) bool {
	if x == y {
		return true
	}
	if len(x) < minPrefixLen || len(y) < minPrefixLen {
		return false
	}
	return strings.HasPrefix(x, y) || strings.HasPrefix(y, x)
}

func substringMatch(na, nb string) bool {
	if len(na) < minSubstringLen || len(nb) < minSubstringLen {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// LongestToken 返回规范化后最长的词，供数据库侧 LIKE 预筛选使用
func LongestToken(name string) string {
	longest := ""
	for _, tok := range namenorm.Tokens(name) {
		if len(tok) > len(longest) {
			longest = tok
		}
	}
	return longest
}
