package tracker

import (
	"time"

	"pagenine/internal/catalog"
)

// AlertPage is the first page on which the tracked thread triggers alerts.
const AlertPage = 9

// Observation is the latest known fact about the tracked thread. A refresh
// always produces a new Observation; existing values are never modified.
type Observation struct {
	Page             int       `json:"page"`
	ThreadID         int64     `json:"thread_id"`
	Title            string    `json:"title"`
	ObservedAt       time.Time `json:"observed_at"`
	Position         int       `json:"position"`
	PageLength       int       `json:"page_length"`
	BumpLimitReached bool      `json:"bump_limit_reached"`
}

// Ratio is Position/PageLength, the thread's relative depth within its page.
func (o Observation) Ratio() float64 {
	if o.PageLength <= 0 {
		return 0
	}
	return float64(o.Position) / float64(o.PageLength)
}

// FindThread runs the catalog matcher and stamps the match with now.
func FindThread(cat catalog.Catalog, fragment string, now time.Time) (Observation, bool) {
	m, ok := cat.Find(fragment)
	if !ok {
		return Observation{}, false
	}
	return Observation{
		Page:             m.Page,
		ThreadID:         m.Thread.No,
		Title:            m.Thread.Sub,
		ObservedAt:       now,
		Position:         m.Position,
		PageLength:       m.PageLength,
		BumpLimitReached: m.Thread.BumpLimitReached(),
	}, true
}

// State is the tracking state carried from one tick to the next.
//
// LastNotifiedPage is 0 when no alert is active; otherwise it is a page the
// thread was actually observed on when an alert went out.
type State struct {
	LastObservation  *Observation `json:"last_observation,omitempty"`
	LastNotifiedPage int          `json:"last_notified_page"`
}

type Phase string

const (
	PhaseNoObservation Phase = "no_observation"
	PhaseTracking      Phase = "tracking"
	PhaseAlerted       Phase = "alerted"
)

func (s State) Phase() Phase {
	switch {
	case s.LastObservation == nil:
		return PhaseNoObservation
	case s.LastObservation.Page >= AlertPage && s.LastNotifiedPage == s.LastObservation.Page:
		return PhaseAlerted
	default:
		return PhaseTracking
	}
}
