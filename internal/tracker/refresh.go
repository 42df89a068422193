package tracker

import (
	"math"
	"time"
)

// Threshold is one row of the refresh table: a page (range) and the minimum
// number of whole minutes since the last observation before re-fetching.
// Always means the catalog is re-fetched on every tick.
type Threshold struct {
	Pages   string `json:"pages"`
	Minutes int    `json:"minutes"`
	Always  bool   `json:"always"`
}

// ThresholdFor returns the refresh row that applies to o. The table is an
// empirical tuning of catalog churn; it is a lookup, not a formula.
func ThresholdFor(o Observation) Threshold {
	switch o.Page {
	case 1:
		return Threshold{Pages: "1", Minutes: 15}
	case 2, 3:
		return Threshold{Pages: "2-3", Minutes: 10}
	case 4, 5:
		return Threshold{Pages: "4-5", Minutes: 7}
	case 6:
		return Threshold{Pages: "6", Minutes: 5}
	case 7:
		return Threshold{Pages: "7", Minutes: 3}
	case 8:
		if o.Ratio() < 0.5 {
			return Threshold{Pages: "8 (top half)", Minutes: 2}
		}
		return Threshold{Pages: "8 (bottom half)", Always: true}
	default:
		return Threshold{Pages: "9+", Always: true}
	}
}

// ElapsedMinutes rounds the time since o was observed to the nearest second
// and then truncates to whole minutes: 276s is 4, 305s is 5.
func ElapsedMinutes(o Observation, now time.Time) int {
	secs := int64(math.Round(now.Sub(o.ObservedAt).Seconds()))
	return int(secs / 60)
}

// NeedsRefresh reports whether the catalog should be fetched again.
// Without a previous observation it always does.
func NeedsRefresh(o *Observation, now time.Time) bool {
	if o == nil {
		return true
	}
	th := ThresholdFor(*o)
	if th.Always {
		return true
	}
	return ElapsedMinutes(*o, now) >= th.Minutes
}
