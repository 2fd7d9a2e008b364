package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_Exact(t *testing.T) {
	assert.Equal(t, 1.0, String("example.com", "example.com", 0.5))
	assert.Equal(t, 1.0, String("Example.COM", "example.com", 0.5))
	assert.Equal(t, 1.0, String("ÉCOLE", "école", 0.5))
}

func TestString_Empty(t *testing.T) {
	assert.Equal(t, 0.0, String("", "example", 0.5))
	assert.Equal(t, 0.0, String("example", "", 0.5))
	assert.Equal(t, 0.0, String("", "", 0.5))
}

func TestString_NoSharedRunes(t *testing.T) {
	disjoint := String("abc", "xyz", 0.5)
	assert.Greater(t, disjoint, 0.0)
	assert.Less(t, disjoint, String("abc", "axz", 0.5))
}

func TestString_PartialInOpenInterval(t *testing.T) {
	pairs := [][2]string{
		{"example.com", "exmpl"},
		{"mail.example.com", "example.com"},
		{"example.com", "mail.example.com"},
		{"/login", "/login?next=%2F"},
		{"password", "pass"},
	}
	for _, p := range pairs {
		s := String(p[0], p[1], 0.5)
		assert.Greater(t, s, 0.0, "%q vs %q", p[0], p[1])
		assert.Less(t, s, 1.0, "%q vs %q", p[0], p[1])
	}
}

func TestString_Prefix(t *testing.T) {
	// Four consecutive matches against an eight rune value: 0.5*(4/8+4/4).
	assert.InDelta(t, 0.75, String("password", "pass", 0.5), 1e-9)
}

func TestString_MissesDecay(t *testing.T) {
	full := String("password", "pass", 0.5)
	oneMiss := String("password", "pasz", 0.5)
	twoMiss := String("password", "pazz", 0.5)
	assert.Greater(t, full, oneMiss)
	assert.Greater(t, oneMiss, twoMiss)
}

func TestString_SkippedRunesDecay(t *testing.T) {
	adjacent := String("abcdef", "ab", 0.5)
	skipped := String("abcdef", "af", 0.5)
	assert.Greater(t, adjacent, skipped)
}

func TestString_PenaltyControlsDecay(t *testing.T) {
	low := String("mail.example.com", "example.com", 0.2)
	high := String("mail.example.com", "example.com", 0.8)
	assert.Greater(t, low, high)

	// Misses decay faster too.
	assert.Greater(t, String("password", "pasz", 0.1), String("password", "pasz", 0.9))
}

func TestString_WordBoundaryBonus(t *testing.T) {
	boundary := String("ab.cd", "c", 0.5)
	inner := String("abxcd", "c", 0.5)
	assert.Greater(t, boundary, inner)
}

func TestString_NegativePenaltyTreatedAsZero(t *testing.T) {
	assert.Equal(t, String("abcdef", "af", 0), String("abcdef", "af", -3))
}
