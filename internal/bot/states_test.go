package bot

import (
	"testing"
	"time"
)

func TestStateStoreExpiry(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	s := NewStateStore(time.Minute)
	s.now = func() time.Time { return now }

	s.Await(1, StepProfileDetails)
	s.Await(2, StepBirthTime)

	if got := s.Current(1); got != StepProfileDetails {
		t.Fatalf("Current = %q, want %q", got, StepProfileDetails)
	}

	now = now.Add(30 * time.Second)
	s.Await(2, StepBirthTime)

	now = now.Add(45 * time.Second)
	if got := s.Current(1); got != StepIdle {
		t.Fatalf("expired state read as %q", got)
	}
	if got := s.Current(2); got != StepBirthTime {
		t.Fatalf("Await must restart expiry, got %q", got)
	}

	now = now.Add(time.Minute)
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
}

func TestStateStoreClear(t *testing.T) {
	s := NewStateStore(time.Minute)

	s.Await(7, StepManualTimezone)
	s.Clear(7)

	if got := s.Current(7); got != StepIdle {
		t.Fatalf("Current after Clear = %q", got)
	}
}
