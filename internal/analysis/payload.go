// Package analysis models the backend's analysis snapshot and resolves
// wheel-topology facts about a selected outcome against it.
package analysis

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Status labels the backend attaches to zones.
const (
	StatusHot     = "🔥 Quente"
	StatusCold    = "❄️ Fria"
	StatusNeutral = "Neutra"
)

// Temperature is the coarse classification of a zone status label.
type Temperature string

const (
	TemperatureHot     Temperature = "hot"
	TemperatureCold    Temperature = "cold"
	TemperatureNeutral Temperature = "neutral"
)

// Zone is a backend-defined grouping of outcomes. Membership is taken as-is.
type Zone struct {
	Name        string          `json:"name,omitempty"`
	Key         string          `json:"key,omitempty"`
	Numbers     []wheel.Outcome `json:"numbers"`
	Hits        int             `json:"hits"`
	Percentage  float64         `json:"percentage"`
	Status      string          `json:"status,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
}

// Contains reports whether o is a member of the zone.
func (z *Zone) Contains(o wheel.Outcome) bool {
	return slices.Contains(z.Numbers, o)
}

// StatusOrDefault returns the status label, or "Neutra" when the backend sent none.
func (z *Zone) StatusOrDefault() string {
	if strings.TrimSpace(z.Status) == "" {
		return StatusNeutral
	}
	return z.Status
}

// Temperature classifies the status label. Labels are matched by their
// keyword so "Quente" and "🔥 Quente" are both hot.
func (z *Zone) Temperature() Temperature {
	switch s := z.StatusOrDefault(); {
	case strings.Contains(s, "Quente"):
		return TemperatureHot
	case strings.Contains(s, "Fria"), strings.Contains(s, "Frio"):
		return TemperatureCold
	default:
		return TemperatureNeutral
	}
}

// HorsePair is a backend pairing of outcomes. Its shape is not validated;
// well-formed pairs hold exactly two outcomes.
type HorsePair struct {
	Pair []wheel.Outcome `json:"pair"`
}

// Contains reports whether o is in the pair.
func (h *HorsePair) Contains(o wheel.Outcome) bool {
	return slices.Contains(h.Pair, o)
}

// NeighborPressure is the backend's neighborhood density signal for one outcome.
type NeighborPressure struct {
	Number   wheel.Outcome `json:"number"`
	Pressure float64       `json:"pressure"`
}

// NeighborPressures is the pressure list of a payload. Older backends send an
// object of adjacency lists keyed by outcome instead; anything that is not a
// list is read as no pressure data, and malformed entries are skipped.
type NeighborPressures []NeighborPressure

// UnmarshalJSON implements json.Unmarshaler.
func (n *NeighborPressures) UnmarshalJSON(data []byte) error {
	*n = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		if !bytes.Equal(data, []byte("null")) {
			GetLogger().Debug("Ignoring neighbors that are not a pressure list",
				logger.String("shape", shapeOf(data)))
		}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(NeighborPressures, 0, len(raw))
	for _, item := range raw {
		var np NeighborPressure
		if err := json.Unmarshal(item, &np); err != nil {
			GetLogger().Debug("Skipping malformed neighbor pressure entry", logger.Error(err))
			continue
		}
		out = append(out, np)
	}
	*n = out
	return nil
}

// Spin is the backend's per-spin breakdown.
type Spin struct {
	Number     wheel.Outcome   `json:"number"`
	WheelIndex int             `json:"wheel_index"`
	Color      string          `json:"color"`
	Parity     *string         `json:"parity"`
	Dozen      *int            `json:"dozen"`
	Column     *int            `json:"column"`
	HighLow    *string         `json:"high_low"`
	Terminal   int             `json:"terminal"`
	Sector     string          `json:"sector"`
	Neighbors1 []wheel.Outcome `json:"neighbors_1"`
	Neighbors3 []wheel.Outcome `json:"neighbors_3"`
}

// Absences lists what has not appeared within the backend's window.
type Absences struct {
	Numbers   []wheel.Outcome `json:"numbers"`
	Zones     []Zone          `json:"zones"`
	Horses    []HorsePair     `json:"horses"`
	Terminals []int           `json:"terminals"`
}

// TerminalStat describes one final digit.
type TerminalStat struct {
	Terminal   int     `json:"terminal"`
	Hits       int     `json:"hits"`
	Percentage float64 `json:"percentage"`
	Absence    int     `json:"absence"`
	Status     string  `json:"status"`
}

// Terminals is the final-digit analysis.
type Terminals struct {
	Window int            `json:"window"`
	Counts map[string]int `json:"counts"`
	Detail []TerminalStat `json:"detail"`
	Top    []TerminalStat `json:"top"`
	Cold   []TerminalStat `json:"cold"`
}

// Stats are session-wide aggregates. Breakdown maps are keyed by the
// backend's labels ("red", "even", "1", "none", ...).
type Stats struct {
	TotalSpins    int            `json:"total_spins"`
	HottestNumber *wheel.Outcome `json:"hottest_number"`
	HottestHits   int            `json:"hottest_hits"`
	Color         map[string]int `json:"color"`
	Parity        map[string]int `json:"parity"`
	Dozens        map[string]int `json:"dozens"`
	Columns       map[string]int `json:"columns"`
	HighLow       map[string]int `json:"high_low"`
}

// StrategyDetail is one evaluated spin of a strategy.
type StrategyDetail struct {
	Number wheel.Outcome `json:"number"`
	Status string        `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// StrategyStats summarises a strategy run.
type StrategyStats struct {
	Hits    int              `json:"hits"`
	Misses  int              `json:"misses"`
	Details []StrategyDetail `json:"details"`
}

// Strategy is a backend-evaluated user strategy. Older backends send
// explanatory strings instead, which become strategies with only a name.
type Strategy struct {
	Name     string          `json:"name"`
	Triggers []wheel.Outcome `json:"triggers"`
	Stats    StrategyStats   `json:"stats"`
}

// Text returns the name or "Strategy" when it is blank.
func (s Strategy) Text() string {
	if strings.TrimSpace(s.Name) == "" {
		return "Strategy"
	}
	return s.Name
}

// UnmarshalJSON accepts a strategy object or any scalar used as its name.
func (s *Strategy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Strategy
		var v plain
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Strategy(v)
		return nil
	}
	*s = Strategy{Name: scalarText(data)}
	return nil
}

// Alert is a backend alert. The backend sends either a bare value or an object with a message.
type Alert struct {
	Message string `json:"message,omitempty"`
}

// UnmarshalJSON accepts {"message": "text"} or any scalar as the message.
func (a *Alert) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Message any `json:"message"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		a.Message = anyText(obj.Message)
		return nil
	}
	a.Message = scalarText(data)
	return nil
}

// scalarText renders a JSON value as display text: strings unquoted, null
// as "", anything else verbatim.
func scalarText(data []byte) string {
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	}
	return string(data)
}

func anyText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func shapeOf(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	switch data[0] {
	case '{':
		return "object"
	case '"':
		return "string"
	default:
		return "scalar"
	}
}

// Text returns the message or "Alert" when it is blank.
func (a Alert) Text() string {
	if strings.TrimSpace(a.Message) == "" {
		return "Alert"
	}
	return a.Message
}

// Payload is one analysis snapshot. It is never mutated after decoding;
// a new submission replaces it wholesale.
type Payload struct {
	Status       string                `json:"status,omitempty"`
	SessionID    string                `json:"session_id,omitempty"`
	Message      string                `json:"message,omitempty"`
	Numbers      map[wheel.Outcome]int `json:"numbers,omitempty"`
	History      []wheel.Outcome       `json:"history"`
	Spins        []Spin                `json:"spins,omitempty"`
	LastSpin     *Spin                 `json:"last_spin,omitempty"`
	Zones        []Zone                `json:"physical_zones"`
	Neighbors    NeighborPressures     `json:"neighbors"`
	Horses       []HorsePair           `json:"horses"`
	Absences     *Absences             `json:"absences,omitempty"`
	Terminals    *Terminals            `json:"terminals,omitempty"`
	Stats        *Stats                `json:"stats,omitempty"`
	Strategies   []Strategy            `json:"strategies,omitempty"`
	Alerts       []Alert               `json:"alerts,omitempty"`
	Errors       []string              `json:"errors,omitempty"`
	ValidCount   int                   `json:"valid_count,omitempty"`
	InvalidCount int                   `json:"invalid_count,omitempty"`
}

// Empty returns a payload with no analysis, as shown after clearing.
func Empty() *Payload {
	return &Payload{}
}

// IsEmpty reports whether the payload carries no analysis data.
func (p *Payload) IsEmpty() bool {
	return p == nil || (len(p.History) == 0 && len(p.Numbers) == 0 && len(p.Zones) == 0 &&
		len(p.Neighbors) == 0 && len(p.Horses) == 0)
}

// NumberCount is one entry of the frequency map.
type NumberCount struct {
	Number wheel.Outcome `json:"number"`
	Count  int           `json:"count"`
}

// TopNumbers returns up to n frequency entries, most frequent first and
// ties broken by the lower outcome. n <= 0 returns all entries.
func (p *Payload) TopNumbers(n int) []NumberCount {
	if p == nil || len(p.Numbers) == 0 {
		return nil
	}
	out := make([]NumberCount, 0, len(p.Numbers))
	for o, c := range p.Numbers {
		out = append(out, NumberCount{Number: o, Count: c})
	}
	slices.SortFunc(out, func(a, b NumberCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// envelope is the versioned API response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

// DecodePayload parses a backend response. Both the bare payload and the
// {"status", "session_id", "data": {...}} envelope are accepted.
func DecodePayload(data []byte) (*Payload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, decodeError(err, len(data))
	}

	body := data
	wrapped := len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null"))
	if wrapped {
		body = env.Data
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, decodeError(err, len(data))
	}

	if wrapped {
		if p.SessionID == "" {
			p.SessionID = env.SessionID
		}
		if p.Status == "" {
			p.Status = env.Status
		}
	}
	return &p, nil
}

func decodeError(err error, size int) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryFileParsing).
		Context("operation", "decode_payload").
		Context("body_size", size).
		Build()
}
