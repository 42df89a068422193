package tracker

// Reason explains an alert decision.
type Reason string

const (
	ReasonBelowThreshold  Reason = "below_threshold"
	ReasonAlreadyNotified Reason = "already_notified"
	ReasonBumpLimit       Reason = "bump_limit"
	ReasonCrossing        Reason = "crossing"
)

// Decision is the outcome of Decide.
//
// When Notify is set the caller dispatches one notification and settles the
// next LastNotifiedPage with Settle. Otherwise NextNotifiedPage is final.
type Decision struct {
	Notify           bool
	Reason           Reason
	NextNotifiedPage int

	page int
}

// Decide evaluates the alert rules for obs against the prior state, in order:
//  1. below AlertPage: no alert, and any previous alert is released (0);
//  2. same page as the last alert: nothing to do;
//  3. bump limit reached while suppressOnBumpLimit is set: nothing to do;
//  4. otherwise: alert.
func Decide(st State, obs Observation, suppressOnBumpLimit bool) Decision {
	switch {
	case obs.Page < AlertPage:
		return Decision{Reason: ReasonBelowThreshold, NextNotifiedPage: 0}
	case obs.Page == st.LastNotifiedPage:
		return Decision{Reason: ReasonAlreadyNotified, NextNotifiedPage: st.LastNotifiedPage}
	case suppressOnBumpLimit && obs.BumpLimitReached:
		return Decision{Reason: ReasonBumpLimit, NextNotifiedPage: st.LastNotifiedPage}
	default:
		return Decision{Notify: true, Reason: ReasonCrossing, NextNotifiedPage: st.LastNotifiedPage, page: obs.Page}
	}
}

// Settle returns LastNotifiedPage after the dispatch attempt finished with
// err. A failed dispatch keeps the previous value so an unchanged page
// retries on the next tick.
func (d Decision) Settle(err error) int {
	if d.Notify && err == nil {
		return d.page
	}
	return d.NextNotifiedPage
}
