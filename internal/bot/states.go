package bot

import (
	"sync"
	"time"
)

// Step names the follow-up the bot is waiting for in a chat. The zero value
// means the chat is idle.
type Step string

const (
	StepIdle           Step = ""
	StepProfileDetails Step = "profile_details"
	StepManualTimezone Step = "manual_timezone"
	StepBirthTime      Step = "birth_time"
)

type UserState struct {
	Step      Step
	ExpiresAt time.Time
}

// StateStore holds one pending step per chat. Entries expire after ttl and are
// then read as idle.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[int64]*UserState
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[int64]*UserState),
	}
}

// Await sets the pending step for chatID and restarts its expiry.
func (s *StateStore) Await(chatID int64, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[chatID] = &UserState{
		Step:      step,
		ExpiresAt: s.now().Add(s.ttl),
	}
}

func (s *StateStore) Current(chatID int64) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[chatID]
	if !ok {
		return StepIdle
	}

	if !s.now().Before(state.ExpiresAt) {
		delete(s.states, chatID)
		return StepIdle
	}

	return state.Step
}

func (s *StateStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, chatID)
}

// Sweep drops expired entries.
func (s *StateStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for chatID, state := range s.states {
		if !now.Before(state.ExpiresAt) {
			delete(s.states, chatID)
			removed++
		}
	}

	return removed
}
