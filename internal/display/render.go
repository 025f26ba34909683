package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/session"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

const labelWidth = 12

// Renderer writes human-readable views of the session for the terminal.
// Colors are applied only when w is a color-capable terminal.
type Renderer struct {
	w      io.Writer
	label  lipgloss.Style
	title  lipgloss.Style
	muted  lipgloss.Style
	hot    lipgloss.Style
	cold   lipgloss.Style
	pocket map[wheel.Color]lipgloss.Style
}

// NewRenderer creates a renderer bound to w.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:     w,
		label: r.NewStyle().Width(labelWidth).Bold(true),
		title: r.NewStyle().Bold(true).Underline(true),
		muted: r.NewStyle().Faint(true),
		hot:   r.NewStyle().Foreground(lipgloss.Color("208")),
		cold:  r.NewStyle().Foreground(lipgloss.Color("39")),
		pocket: map[wheel.Color]lipgloss.Style{
			wheel.Green: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
			wheel.Red:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			wheel.Black: r.NewStyle().Bold(true),
		},
	}
}

// Outcome renders o in its pocket color.
func (r *Renderer) Outcome(o wheel.Outcome) string {
	style, ok := r.pocket[wheel.ColorOf(o)]
	if !ok || !o.Valid() {
		return o.String()
	}
	return style.Render(o.String())
}

func (r *Renderer) line(label, value string) error {
	_, err := fmt.Fprintln(r.w, r.label.Render(label)+value)
	return err
}

// History renders the display window, oldest first, with the selected entry bracketed.
func (r *Renderer) History(history []wheel.Outcome, sel *analysis.Selection) string {
	if len(history) == 0 {
		return r.muted.Render("no spins yet")
	}
	parts := make([]string, len(history))
	for i, o := range history {
		s := r.Outcome(o)
		if sel != nil && sel.Index == i && sel.Outcome == o {
			s = "[" + s + "]"
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}

// RenderInspection writes the resolved facts about the selected outcome.
func (r *Renderer) RenderInspection(res analysis.InspectionResult) error {
	o := res.Selection.Outcome
	attrs := res.Attributes

	header := fmt.Sprintf("Number %s", r.Outcome(o))
	if attrs.Color != "" {
		header += r.muted.Render(fmt.Sprintf(" (%s, %s, wheel index %d)", attrs.Color, attrs.Sector, attrs.WheelIndex))
	}
	if _, err := fmt.Fprintln(r.w, r.title.Render(header)); err != nil {
		return err
	}

	if !res.HasNeighbors {
		return r.line("Neighbors", r.muted.Render("not on this wheel"))
	}

	lines := [][2]string{
		{"Neighbors", fmt.Sprintf("%s ← %s → %s", r.Outcome(res.Neighbors.Left), r.Outcome(o), r.Outcome(res.Neighbors.Right))},
		{"Pressure", fmt.Sprintf("%s: %s   %s: %s",
			res.Neighbors.Left, r.pressure(res.Left), res.Neighbors.Right, r.pressure(res.Right))},
		{"Around", r.neighborhood(res.Neighborhood)},
		{"Horse", r.horse(res.Horse, res.HorseOpposite)},
		{"Zone", r.zone(res.Zone)},
	}
	if o != 0 {
		lines = append(lines,
			[2]string{"Dozen", strconv.Itoa(attrs.Dozen)},
			[2]string{"Column", strconv.Itoa(attrs.Column)},
			[2]string{"Parity", parity(attrs)},
			[2]string{"Range", highLow(attrs)},
		)
	}
	lines = append(lines, [2]string{"Terminal", strconv.Itoa(attrs.Terminal)})

	for _, l := range lines {
		if err := r.line(l[0], l[1]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) pressure(p analysis.Pressure) string {
	if !p.Found {
		return r.muted.Render("n/a")
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// neighborhood lists the wider neighborhood as number:pressure pairs.
func (r *Renderer) neighborhood(ps []analysis.Pressure) string {
	if len(ps) == 0 {
		return r.muted.Render("none")
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = r.Outcome(p.Number) + ":" + r.pressure(p)
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) horse(h *analysis.HorsePair, opposite bool) string {
	if h == nil {
		return r.muted.Render("none")
	}
	parts := make([]string, len(h.Pair))
	for i, o := range h.Pair {
		parts[i] = r.Outcome(o)
	}
	out := strings.Join(parts, " - ")
	if opposite {
		out += r.muted.Render(" (opposite)")
	}
	return out
}

func (r *Renderer) zone(m *analysis.ZoneMatch) string {
	if m == nil {
		return r.muted.Render("none")
	}
	name := m.Zone.Name
	if name == "" {
		name = m.Zone.Key
	}
	return fmt.Sprintf("#%d %s %s", m.Ordinal(), name, r.zoneStatus(m.Zone))
}

func (r *Renderer) zoneStatus(z analysis.Zone) string {
	status := z.StatusOrDefault()
	switch z.Temperature() {
	case analysis.TemperatureHot:
		return r.hot.Render(status)
	case analysis.TemperatureCold:
		return r.cold.Render(status)
	default:
		return r.muted.Render(status)
	}
}

// RenderState writes the history window and a summary of the current analysis.
func (r *Renderer) RenderState(st session.State, top int) error {
	if err := r.line("History", r.History(st.History, st.Selection)); err != nil {
		return err
	}

	p := st.Payload
	if p.IsEmpty() {
		return r.line("Analysis", r.muted.Render("empty"))
	}

	if counts := p.TopNumbers(top); len(counts) > 0 {
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = fmt.Sprintf("%s×%d", r.Outcome(c.Number), c.Count)
		}
		if err := r.line("Top", strings.Join(parts, " ")); err != nil {
			return err
		}
	}

	for i, z := range p.Zones {
		m := analysis.ZoneMatch{Index: i, Zone: z}
		value := fmt.Sprintf("%s  %d hits (%.1f%%)", r.zone(&m), z.Hits, z.Percentage)
		if err := r.line("Zone", value); err != nil {
			return err
		}
	}

	if p.Stats != nil && p.Stats.HottestNumber != nil {
		value := fmt.Sprintf("%s (%d hits, %d spins)", r.Outcome(*p.Stats.HottestNumber), p.Stats.HottestHits, p.Stats.TotalSpins)
		if err := r.line("Hottest", value); err != nil {
			return err
		}
	}

	for _, a := range p.Alerts {
		if err := r.line("Alert", r.hot.Render(a.Text())); err != nil {
			return err
		}
	}
	for _, st := range p.Strategies {
		if err := r.line("Strategy", st.Text()); err != nil {
			return err
		}
	}
	return nil
}

func parity(a wheel.Attributes) string {
	if a.Even {
		return "even"
	}
	return "odd"
}

func highLow(a wheel.Attributes) string {
	if a.High {
		return "high (19-36)"
	}
	return "low (1-18)"
}
