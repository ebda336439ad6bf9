package namenorm

import (
	"github.com/agnivade/levenshtein"
)

// Similarity 基于编辑距离的相似度（0-100），仅用于日志与人工审核展示，不参与匹配判定
func Similarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" && nb == "" {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(na, nb)
	score := 100 - dist*100/longest
	if score < 0 {
		return 0
	}
	return score
}
