package tracker

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func obsAt(page, position, length int) Observation {
	return Observation{Page: page, ThreadID: 1, Title: "x", ObservedAt: t0, Position: position, PageLength: length}
}

func TestNeedsRefreshWithoutObservation(t *testing.T) {
	t.Parallel()
	if !NeedsRefresh(nil, t0) {
		t.Fatal("expected refresh without prior observation")
	}
}

func TestNeedsRefreshThresholds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		page    int
		minutes int // first whole minute that refreshes
	}{
		{1, 15},
		{2, 10},
		{3, 10},
		{4, 7},
		{5, 7},
		{6, 5},
		{7, 3},
	}
	for _, tt := range tests {
		o := obsAt(tt.page, 1, 10)
		before := t0.Add(time.Duration(tt.minutes)*time.Minute - time.Second)
		at := t0.Add(time.Duration(tt.minutes) * time.Minute)
		if NeedsRefresh(&o, before) {
			t.Fatalf("page %d refreshed %v before threshold", tt.page, at.Sub(before))
		}
		if !NeedsRefresh(&o, at) {
			t.Fatalf("page %d did not refresh at %d minutes", tt.page, tt.minutes)
		}
	}
}

func TestNeedsRefreshPageOneMinuteGranularity(t *testing.T) {
	t.Parallel()
	o := obsAt(1, 1, 10)
	if NeedsRefresh(&o, t0.Add(14*time.Minute)) {
		t.Fatal("page 1 at 14 min must not refresh")
	}
	if !NeedsRefresh(&o, t0.Add(15*time.Minute)) {
		t.Fatal("page 1 at 15 min must refresh")
	}
}

func TestNeedsRefreshPageSixBoundary(t *testing.T) {
	t.Parallel()
	o := obsAt(6, 1, 10)
	if NeedsRefresh(&o, t0.Add(4*time.Minute+59*time.Second)) {
		t.Fatal("page 6 at 4:59 must not refresh")
	}
	if !NeedsRefresh(&o, t0.Add(5*time.Minute)) {
		t.Fatal("page 6 at 5:00 must refresh")
	}
}

func TestNeedsRefreshPageEight(t *testing.T) {
	t.Parallel()
	top := obsAt(8, 4, 10) // 0.4
	if NeedsRefresh(&top, t0.Add(time.Minute+59*time.Second)) {
		t.Fatal("page 8 top half refreshed before 2 minutes")
	}
	if !NeedsRefresh(&top, t0.Add(2*time.Minute)) {
		t.Fatal("page 8 top half did not refresh at 2 minutes")
	}

	for _, pos := range []int{5, 10} { // 0.5 and 1.0
		bottom := obsAt(8, pos, 10)
		if !NeedsRefresh(&bottom, t0) {
			t.Fatalf("page 8 position %d/10 must refresh every tick", pos)
		}
	}
}

func TestNeedsRefreshAlertPages(t *testing.T) {
	t.Parallel()
	for _, page := range []int{9, 10, 11} {
		o := obsAt(page, 1, 10)
		if !NeedsRefresh(&o, t0) {
			t.Fatalf("page %d must always refresh", page)
		}
	}
}

func TestElapsedMinutesRounding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{276 * time.Second, 4},
		{300 * time.Second, 5},
		{305 * time.Second, 5},
		{299*time.Second + 500*time.Millisecond, 5},
		{299*time.Second + 499*time.Millisecond, 4},
		{59*time.Second + 600*time.Millisecond, 1},
	}
	o := obsAt(1, 1, 10)
	for _, tt := range tests {
		if got := ElapsedMinutes(o, t0.Add(tt.elapsed)); got != tt.want {
			t.Fatalf("ElapsedMinutes(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
	// 276s is 4 minutes: page 6 (5 min) must not refresh yet.
	p6 := obsAt(6, 1, 10)
	if NeedsRefresh(&p6, t0.Add(276*time.Second)) {
		t.Fatal("276s must count as 4 minutes")
	}
}

func TestThresholdFor(t *testing.T) {
	t.Parallel()
	if th := ThresholdFor(obsAt(3, 1, 10)); th.Minutes != 10 || th.Always {
		t.Fatalf("page 3: %+v", th)
	}
	if th := ThresholdFor(obsAt(8, 9, 10)); !th.Always {
		t.Fatalf("page 8 bottom: %+v", th)
	}
	if th := ThresholdFor(obsAt(12, 1, 10)); !th.Always || th.Pages != "9+" {
		t.Fatalf("page 12: %+v", th)
	}
}
