package tracker

// ObservationEvent is published for every refresh that found the thread.
type ObservationEvent struct {
	Board       string      `json:"board"`
	Observation Observation `json:"observation"`
	Threshold   Threshold   `json:"threshold"`
}

// AlertEvent is published for every dispatch attempt.
type AlertEvent struct {
	Board       string      `json:"board"`
	Observation Observation `json:"observation"`
	Message     string      `json:"message"`
	Title       string      `json:"title"`
	Delivered   bool        `json:"delivered"`
	Error       string      `json:"error,omitempty"`
}

// StateEvent is published after every tick. The Observation it points to is
// never modified after publication.
type StateEvent struct {
	Board     string `json:"board"`
	Title     string `json:"title"`
	Tick      uint64 `json:"tick"`
	Refreshed bool   `json:"refreshed"`
	Phase     Phase  `json:"phase"`
	State     State  `json:"state"`
}
