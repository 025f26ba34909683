package display

import (
	"encoding/json"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/session"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// StateResponse is the body of GET /api/v1/state and of pushed state messages.
type StateResponse struct {
	Status string `json:"status"`
	session.State
}

func newStateResponse(st session.State) StateResponse {
	if st.Payload == nil {
		st.Payload = analysis.Empty()
	}
	status := "ok"
	if st.Payload.IsEmpty() {
		status = "empty"
	}
	return StateResponse{Status: status, State: st}
}

// SpinRequest accepts the number as a JSON string or a JSON number.
type SpinRequest struct {
	Number json.RawMessage `json:"number"`
}

// raw returns the submitted text for validation by the session.
func (r SpinRequest) raw() string {
	if len(r.Number) == 0 {
		return ""
	}
	if r.Number[0] == '"' {
		var s string
		if err := json.Unmarshal(r.Number, &s); err != nil {
			return string(r.Number)
		}
		return s
	}
	return string(r.Number)
}

// SpinResponse reports the outcome of a submission.
type SpinResponse struct {
	Number  wheel.Outcome `json:"number"`
	Token   uint64        `json:"token"`
	Applied bool          `json:"applied"`
	State   StateResponse `json:"state"`
}

// SelectionRequest selects an entry of the history window. When Number is
// omitted the value currently shown at Index is used.
type SelectionRequest struct {
	Index  int  `json:"index"`
	Number *int `json:"number,omitempty"`
}

// LiveURL is the body of the live-stream preference endpoints.
type LiveURL struct {
	URL string `json:"url"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
