package tracker

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		kind   SpecKind
		every  time.Duration
		source string
	}{
		{"", SpecInterval, DefaultInterval, "duration"},
		{"30s", SpecInterval, 30 * time.Second, "duration"},
		{"1m30s", SpecInterval, 90 * time.Second, "duration"},
		{"00:01", SpecInterval, time.Minute, "hhmm"},
		{"interval:45s", SpecInterval, 45 * time.Second, "duration"},
		{"every: 2m", SpecInterval, 2 * time.Minute, "duration"},
		{"@every 30s", SpecCron, 0, "cron"},
		{"*/30 * * * * *", SpecCron, 0, "cron"},
		{"cron:@hourly", SpecCron, 0, "cron"},
	}
	for _, tt := range tests {
		got, err := ParseSchedule(tt.in)
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", tt.in, err)
		}
		if got.Kind != tt.kind || got.Every != tt.every || got.Source != tt.source {
			t.Fatalf("ParseSchedule(%q) = %+v", tt.in, got)
		}
		if _, err := got.Schedule(); err != nil {
			t.Fatalf("Schedule(%q): %v", tt.in, err)
		}
	}
}

func TestParseScheduleRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"soon", "-5s", "0s", "00:00", "00:75", "cron:", "cron:not a cron", "interval:"} {
		if _, err := ParseSchedule(in); err == nil {
			t.Fatalf("ParseSchedule(%q) accepted", in)
		}
	}
}

func TestScheduleNext(t *testing.T) {
	t.Parallel()
	spec, err := ParseSchedule("30s")
	if err != nil {
		t.Fatal(err)
	}
	sched, err := spec.Schedule()
	if err != nil {
		t.Fatal(err)
	}
	if got := sched.Next(t0); !got.Equal(t0.Add(30 * time.Second)) {
		t.Fatalf("Next = %v", got)
	}

	spec, err = ParseSchedule("250ms")
	if err != nil {
		t.Fatal(err)
	}
	sched, err = spec.Schedule()
	if err != nil {
		t.Fatal(err)
	}
	if got := sched.Next(t0); !got.Equal(t0.Add(250 * time.Millisecond)) {
		t.Fatalf("sub-second Next = %v", got)
	}
	if spec.String() != "250ms" {
		t.Fatalf("String = %q", spec.String())
	}
}
