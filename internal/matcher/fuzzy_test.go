package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamePerson(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Mohamed Salah", "Mo Salah", true},
		{"James Smith", "John Smith", false},
		{"Kylian Mbappé", "kylian mbappe", true},
		{"Vinícius Júnior", "Vinicius Jr", false},
		{"Neymar", "Neymar Jr", true},
		{"Rodri", "Rodrigo Hernández", true},
		{"Rodri", "Rodrygo", false},
		{"Bruno Fernandes", "Bruno Miguel Borges Fernandes", true},
		{"Jo", "Jo Silva", false},
		{"", "Mo Salah", false},
		{"A Smith", "Ab Smith", false},
		{"Al Smith", "Alan Smith", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, SamePerson(tt.a, tt.b))
		})
	}
}

func TestSamePersonSymmetric(t *testing.T) {
	names := []string{
		"Mohamed Salah", "Mo Salah", "James Smith", "John Smith", "Neymar",
		"Neymar Jr", "Son Heung-min", "Heung-min Son", "Rodri", "", "Al Smith",
	}
	for _, a := range names {
		for _, b := range names {
			assert.Equal(t, SamePerson(a, b), SamePerson(b, a), "%q vs %q", a, b)
		}
	}
}

func TestLongestToken(t *testing.T) {
	assert.Equal(t, "fernandes", LongestToken("Bruno Fernandes"))
	assert.Equal(t, "", LongestToken("  "))
}
