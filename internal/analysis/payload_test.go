package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

const barePayload = `{
  "status": "ok",
  "numbers": {"14": 3, "2": 3, "0": 1},
  "history": [14, 2, 0, 14, 2, 14, 2],
  "last_spin": {"number": 2, "wheel_index": 6, "color": "black", "parity": "even", "dozen": 1,
    "column": 2, "high_low": "low", "terminal": 2, "sector": "voisins",
    "neighbors_1": [21, 25], "neighbors_3": [19, 4, 21, 25, 17, 34]},
  "physical_zones": [
    {"name": "Voisins du Zero", "key": "voisins", "numbers": [22, 18, 29, 7, 28, 12, 35, 3, 26, 0, 32, 15, 19, 4, 21, 2, 25],
     "hits": 4, "percentage": 57.14, "status": "🔥 Quente", "explanation": "x"}
  ],
  "neighbors": [{"number": 21, "pressure": 3}],
  "horses": [{"pair": [0, 10]}],
  "absences": {"numbers": [5], "zones": [], "horses": [], "terminals": [9]},
  "stats": {"total_spins": 7, "hottest_number": 14, "hottest_hits": 3, "color": {"red": 3}},
  "strategies": [{"name": "S", "triggers": [14], "stats": {"hits": 1, "misses": 0,
    "details": [{"number": 14, "status": "hit", "reason": "trigger"}]}}],
  "alerts": ["Zona quente", {"message": "Terminal 9 ausente"}, {}],
  "errors": [],
  "valid_count": 7,
  "invalid_count": 0
}`

func TestDecodeBarePayload(t *testing.T) {
	p, err := DecodePayload([]byte(barePayload))
	require.NoError(t, err)

	assert.Equal(t, "ok", p.Status)
	assert.Equal(t, 3, p.Numbers[14])
	assert.Len(t, p.History, 7)
	require.NotNil(t, p.LastSpin)
	require.NotNil(t, p.LastSpin.Dozen)
	assert.Equal(t, 1, *p.LastSpin.Dozen)
	assert.Equal(t, []wheel.Outcome{21, 25}, p.LastSpin.Neighbors1)
	require.Len(t, p.Zones, 1)
	assert.Equal(t, TemperatureHot, p.Zones[0].Temperature())
	assert.Equal(t, []wheel.Outcome{5}, p.Absences.Numbers)
	require.NotNil(t, p.Stats.HottestNumber)
	assert.Equal(t, wheel.Outcome(14), *p.Stats.HottestNumber)
	assert.Equal(t, 1, p.Strategies[0].Stats.Hits)

	require.Len(t, p.Alerts, 3)
	assert.Equal(t, "Zona quente", p.Alerts[0].Text())
	assert.Equal(t, "Terminal 9 ausente", p.Alerts[1].Text())
	assert.Equal(t, "Alert", p.Alerts[2].Text())
}

func TestDecodeEnvelope(t *testing.T) {
	body := `{"status": "success", "session_id": "abc", "data": {"status": "ok", "history": [1, 2]}}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Status)
	assert.Equal(t, "abc", p.SessionID)
	assert.Equal(t, []wheel.Outcome{1, 2}, p.History)
}

func TestDecodeLegacyShapes(t *testing.T) {
	body := `{
  "history": [0, 32],
  "physical_zones": [],
  "neighbors": {"0": {"neighbors": [26, 32]}, "32": {"neighbors": [0, 15]}},
  "horses": [{"pair": [0, 10]}],
  "strategies": ["Zonas quentes indicam maior recorrencia recente", ""],
  "alerts": [7, true, null, {"message": 12}]
}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err, "a 2xx body with older collection shapes must still decode")

	assert.Equal(t, []wheel.Outcome{0, 32}, p.History)
	assert.Empty(t, p.Neighbors)
	assert.InDelta(t, 0, PressureOf(32, p.Neighbors), 0)

	require.Len(t, p.Strategies, 2)
	assert.Equal(t, "Zonas quentes indicam maior recorrencia recente", p.Strategies[0].Name)
	assert.Equal(t, "Strategy", p.Strategies[1].Text())

	require.Len(t, p.Alerts, 4)
	assert.Equal(t, "7", p.Alerts[0].Text())
	assert.Equal(t, "true", p.Alerts[1].Text())
	assert.Equal(t, "Alert", p.Alerts[2].Text())
	assert.Equal(t, "12", p.Alerts[3].Text())
}

func TestDecodeSkipsMalformedPressureEntries(t *testing.T) {
	body := `{"history": [], "neighbors": [{"number": 21, "pressure": 3}, "x", {"number": "?"}, {"number": 4, "pressure": 1.5}]}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, NeighborPressures{{Number: 21, Pressure: 3}, {Number: 4, Pressure: 1.5}}, p.Neighbors)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := DecodePayload([]byte(`{"history": "nope"}`))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))

	_, err = DecodePayload([]byte(`<html>`))
	require.Error(t, err)
}

func TestTopNumbers(t *testing.T) {
	p := &Payload{Numbers: map[wheel.Outcome]int{14: 3, 2: 3, 0: 1, 36: 5}}

	assert.Equal(t, []NumberCount{
		{Number: 36, Count: 5},
		{Number: 2, Count: 3},
		{Number: 14, Count: 3},
	}, p.TopNumbers(3))

	assert.Len(t, p.TopNumbers(0), 4)
	assert.Nil(t, Empty().TopNumbers(5))
}

func TestZoneStatus(t *testing.T) {
	tests := []struct {
		status string
		label  string
		temp   Temperature
	}{
		{"", StatusNeutral, TemperatureNeutral},
		{"  ", StatusNeutral, TemperatureNeutral},
		{StatusHot, StatusHot, TemperatureHot},
		{StatusCold, StatusCold, TemperatureCold},
		{"❄️ Frio", "❄️ Frio", TemperatureCold},
		{"Neutra", "Neutra", TemperatureNeutral},
	}
	for _, tt := range tests {
		z := Zone{Status: tt.status}
		assert.Equal(t, tt.label, z.StatusOrDefault())
		assert.Equal(t, tt.temp, z.Temperature())
	}
}

func TestEmptyPayload(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	var nilPayload *Payload
	assert.True(t, nilPayload.IsEmpty())
	assert.False(t, (&Payload{History: []wheel.Outcome{3}}).IsEmpty())
}
