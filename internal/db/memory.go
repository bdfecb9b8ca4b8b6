package db

import (
	"context"
	"sync"
)

// MemoryProfileRepository keeps profiles in process memory. Used with
// STORE_DRIVER=memory and in tests.
type MemoryProfileRepository struct {
	mu   sync.RWMutex
	docs map[int64]Fields
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		docs: make(map[int64]Fields),
	}
}

func (r *MemoryProfileRepository) Save(_ context.Context, chatID int64, fields Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[chatID]
	if !ok {
		doc = make(Fields, len(fields))
		r.docs[chatID] = doc
	}

	for k, v := range fields {
		doc[k] = v
	}

	return nil
}

func (r *MemoryProfileRepository) Load(_ context.Context, chatID int64) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[chatID]
	if !ok {
		return nil, ErrProfileNotFound
	}

	return ProfileFromFields(chatID, doc), nil
}

// Fields returns a copy of the stored document.
func (r *MemoryProfileRepository) Fields(chatID int64) Fields {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Fields, len(r.docs[chatID]))
	for k, v := range r.docs[chatID] {
		out[k] = v
	}

	return out
}
