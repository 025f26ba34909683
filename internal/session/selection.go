package session

import "github.com/rouletteai/roulette-client/internal/analysis"

// Inspector tracks the selected outcome and whether its inspection is open.
//
// The lifecycle is closed -> open on Select and open -> closed on Close.
// Closing keeps the selection so the display can keep highlighting it;
// nothing re-validates it when the history window moves on.
type Inspector struct {
	selection analysis.Selection
	selected  bool
	open      bool
}

// Select records the user's pick and opens the inspection. Re-selecting
// the same entry is a no-op.
func (in *Inspector) Select(sel analysis.Selection) {
	in.selection = sel
	in.selected = true
	in.open = true
}

// Close ends the inspection. Closing a closed inspector is harmless.
func (in *Inspector) Close() {
	in.open = false
}

// Selection returns the last selection, if any, whether open or not.
func (in *Inspector) Selection() (analysis.Selection, bool) {
	return in.selection, in.selected
}

// IsOpen reports whether an inspection is in progress.
func (in *Inspector) IsOpen() bool {
	return in.open
}
