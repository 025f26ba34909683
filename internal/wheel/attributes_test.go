package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	zero, ok := Describe(0)
	require.True(t, ok)
	assert.Equal(t, Green, zero.Color)
	assert.Zero(t, zero.Dozen)
	assert.Zero(t, zero.Column)
	assert.False(t, zero.Even || zero.Odd || zero.Low || zero.High)
	assert.Equal(t, Voisins, zero.Sector)

	n, ok := Describe(27)
	require.True(t, ok)
	assert.Equal(t, Attributes{
		Outcome:    27,
		Color:      Red,
		Odd:        true,
		High:       true,
		Dozen:      3,
		Column:     3,
		Terminal:   7,
		Sector:     Tiers,
		WheelIndex: 11,
	}, n)

	_, ok = Describe(37)
	assert.False(t, ok)
}

func TestColorsAreBalanced(t *testing.T) {
	counts := map[Color]int{}
	for o := MinOutcome; o <= MaxOutcome; o++ {
		counts[ColorOf(o)]++
	}
	assert.Equal(t, map[Color]int{Green: 1, Red: 18, Black: 18}, counts)
}

func TestSectorsCoverWheel(t *testing.T) {
	counts := map[Sector]int{}
	for o := MinOutcome; o <= MaxOutcome; o++ {
		s, ok := SectorOf(o)
		require.True(t, ok, "pocket %d has no sector", o)
		counts[s]++
	}
	assert.Equal(t, map[Sector]int{Voisins: 17, Tiers: 12, Orphelins: 8}, counts)
}
