package businessday

import (
	"testing"
	"time"
)

func mustParseConfig(t *testing.T, start, end string) Config {
	t.Helper()
	cfg, err := ParseConfig(start, end)
	if err != nil {
		t.Fatalf("parse config %s-%s: %v", start, end, err)
	}
	return cfg
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("04:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tod.Hour != 4 || tod.Minute != 30 {
		t.Fatalf("expected 04:30, got %v", tod)
	}

	for _, bad := range []string{"", "4", "24:00", "12:60", "ab:cd", "12:00:00", "-1:15"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDayLength(t *testing.T) {
	cases := []struct {
		start, end string
		want       time.Duration
	}{
		{"08:00", "18:00", 10 * time.Hour},
		{"22:00", "04:00", 6 * time.Hour},
		{"06:00", "06:00", 24 * time.Hour},
		{"22:30", "04:15", 5*time.Hour + 45*time.Minute},
	}
	for _, c := range cases {
		cfg := mustParseConfig(t, c.start, c.end)
		if got := cfg.DayLength(); got != c.want {
			t.Fatalf("%s-%s: expected %v, got %v", c.start, c.end, c.want, got)
		}
	}
}

func TestOvernightInferred(t *testing.T) {
	if !mustParseConfig(t, "22:00", "04:00").Overnight() {
		t.Fatalf("22:00-04:00 should be overnight")
	}
	if !mustParseConfig(t, "06:00", "06:00").Overnight() {
		t.Fatalf("equal start and end should wrap")
	}
	if mustParseConfig(t, "08:00", "18:00").Overnight() {
		t.Fatalf("08:00-18:00 should not be overnight")
	}
}

func TestComputeRangeOvernight(t *testing.T) {
	cfg := mustParseConfig(t, "22:00", "04:00")
	ref := time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)

	rng := ComputeRange(ref, cfg)

	wantStart := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	if !rng.Start.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, rng.Start)
	}
	if !rng.End.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, rng.End)
	}
	if !rng.Contains(ref) {
		t.Fatalf("reference should fall inside its own business day")
	}
}

func TestComputeRangeAfterStart(t *testing.T) {
	cfg := mustParseConfig(t, "22:00", "04:00")
	ref := time.Date(2024, 1, 2, 23, 15, 0, 0, time.UTC)

	rng := ComputeRange(ref, cfg)

	wantStart := time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC)
	if !rng.Start.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, rng.Start)
	}
	if !rng.End.Equal(time.Date(2024, 1, 3, 4, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", rng.End)
	}
}

func TestEqualStartEndIsExactly24h(t *testing.T) {
	cfg := mustParseConfig(t, "05:00", "05:00")

	// Sample every 37 minutes across three days: every instant must
	// belong to exactly the window computed for it, and windows must
	// tile without gaps.
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*24*60/37; i++ {
		ref := base.Add(time.Duration(i*37) * time.Minute)
		rng := ComputeRange(ref, cfg)
		if rng.End.Sub(rng.Start) != 24*time.Hour {
			t.Fatalf("expected 24h window, got %v", rng.End.Sub(rng.Start))
		}
		if !rng.Contains(ref) {
			t.Fatalf("ref %v not inside its window %v", ref, rng)
		}
		// Next window begins exactly where this one ends.
		next := ComputeRange(rng.End, cfg)
		if !next.Start.Equal(rng.End) {
			t.Fatalf("windows should tile: end %v, next start %v", rng.End, next.Start)
		}
	}
}

func TestComputeRangeDayGranularity(t *testing.T) {
	cfg := mustParseConfig(t, "09:00", "17:00")
	// Exactly at start: the day begins now.
	ref := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rng := ComputeRange(ref, cfg)
	if !rng.Start.Equal(ref) {
		t.Fatalf("expected day to start at reference, got %v", rng.Start)
	}
	// One minute earlier: still yesterday's day.
	rng = ComputeRange(ref.Add(-time.Minute), cfg)
	if !rng.Start.Equal(time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected yesterday's start, got %v", rng.Start)
	}
}

func TestComputeJustEndedRange(t *testing.T) {
	cfg := mustParseConfig(t, "22:00", "04:00")
	now := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)

	rng := ComputeJustEndedRange(now, cfg, nil)

	if !rng.Start.Equal(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected start at previous 22:00, got %v", rng.Start)
	}
	if !rng.End.Equal(now) {
		t.Fatalf("expected end at now, got %v", rng.End)
	}
}

func TestComputeJustEndedRangeManualCloseTruncates(t *testing.T) {
	cfg := mustParseConfig(t, "22:00", "04:00")
	now := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	manual := time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)

	rng := ComputeJustEndedRange(now, cfg, &manual)

	if !rng.Start.Equal(manual) {
		t.Fatalf("expected start truncated to manual close %v, got %v", manual, rng.Start)
	}

	// A watermark before the computed start must not widen the window.
	old := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rng = ComputeJustEndedRange(now, cfg, &old)
	if !rng.Start.Equal(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("stale watermark must not move the start, got %v", rng.Start)
	}
}

func TestRangeHours(t *testing.T) {
	cfg := mustParseConfig(t, "22:00", "04:00")
	rng := ComputeRange(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), cfg)
	if rng.Hours() != 6 {
		t.Fatalf("expected 6 hour day, got %d", rng.Hours())
	}
}
