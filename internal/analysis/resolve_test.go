package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouletteai/roulette-client/internal/wheel"
)

func TestFindPair(t *testing.T) {
	pairs := []HorsePair{
		{Pair: []wheel.Outcome{0, 10}},
		{Pair: []wheel.Outcome{32, 5}},
		{Pair: []wheel.Outcome{32, 24}},
	}

	tests := []struct {
		name  string
		o     wheel.Outcome
		pairs []HorsePair
		want  []wheel.Outcome
		found bool
	}{
		{"empty pairs", 0, nil, nil, false},
		{"no match", 7, pairs, nil, false},
		{"second element", 10, pairs, []wheel.Outcome{0, 10}, true},
		{"duplicate membership first wins", 32, pairs, []wheel.Outcome{32, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindPair(tt.o, tt.pairs)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Pair)
		})
	}
}

func TestFindPairMalformed(t *testing.T) {
	pairs := []HorsePair{{Pair: []wheel.Outcome{4}}, {Pair: []wheel.Outcome{1, 2, 3}}}

	got, ok := FindPair(3, pairs)
	require.True(t, ok, "pairs are not validated for shape")
	assert.Equal(t, []wheel.Outcome{1, 2, 3}, got.Pair)
}

func TestFindZone(t *testing.T) {
	zones := []Zone{
		{Name: "A", Numbers: []wheel.Outcome{1, 2, 3}},
		{Name: "B", Numbers: []wheel.Outcome{3, 4}},
		{Name: "C", Numbers: nil},
	}

	m, ok := FindZone(3, zones)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, 1, m.Ordinal())
	assert.Equal(t, "A", m.Zone.Name)

	m, ok = FindZone(4, zones)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "B", m.Zone.Name)

	_, ok = FindZone(9, zones)
	assert.False(t, ok)

	_, ok = FindZone(1, nil)
	assert.False(t, ok)
}

func TestPressureOf(t *testing.T) {
	assert.Zero(t, PressureOf(5, nil))

	pressures := []NeighborPressure{{Number: 5, Pressure: 7}, {Number: 5, Pressure: 99}, {Number: 8, Pressure: 0}}
	assert.InDelta(t, 7.0, PressureOf(5, pressures), 1e-9, "first entry wins")

	v, found := LookupPressure(8, pressures)
	assert.True(t, found)
	assert.Zero(t, v)

	v, found = LookupPressure(9, pressures)
	assert.False(t, found)
	assert.Zero(t, v)
}
