package namenorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents case and whitespace", " FC Bayern München ", "fc bayern munchen"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"keeps hyphen and period", "Saint-Étienne A.S.", "saint-etienne a.s."},
		{"drops other punctuation", "Brighton & Hove Albion!", "brighton hove albion"},
		{"special letters", "Ødegaard Straße", "odegaard strasse"},
		{"unsupported script dropped", "Son 손흥민 Heung-min", "son heung-min"},
		{"collapses runs", "Real   \n Madrid", "real madrid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeForSearch(t *testing.T) {
	assert.Equal(t, "bayern munchen", NormalizeForSearch(" FC Bayern München "))
	assert.Equal(t, "arsenal", NormalizeForSearch("Arsenal FC"))
	assert.Equal(t, "manchester", NormalizeForSearch("Manchester United"))
	assert.Equal(t, "koln", NormalizeForSearch("1. FC Köln"))
	assert.Equal(t, "saint etienne", NormalizeForSearch("AS Saint-Étienne"))
	// 全部是词缀时保留原词
	assert.Equal(t, "ac", NormalizeForSearch("AC"))
	assert.Equal(t, "", NormalizeForSearch("  "))
}

func TestSearchPrefix(t *testing.T) {
	assert.Equal(t, "bay", SearchPrefix("FC Bayern München", 3))
	assert.Equal(t, "ac", SearchPrefix("AC", 3))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("Atlético Madrid", "atletico madrid"))
	assert.Equal(t, 0, Similarity("", "Arsenal"))
	assert.Equal(t, 100, Similarity("", " "))

	s := Similarity("Tottenham Hotspur", "Tottenham")
	assert.Greater(t, s, 0)
	assert.Less(t, s, 100)
	assert.Equal(t, s, Similarity("Tottenham", "Tottenham Hotspur"))
}
