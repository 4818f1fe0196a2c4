// Package memory keeps credentials in process memory. Nothing survives a
// restart; it backs tests and one-shot CLI runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"estatemetrics/internal/storage"
)

type entry struct {
	value    string
	deadline time.Time // zero means no expiry
}

type Storage struct {
	mu    sync.Mutex
	ttl   storage.TTLs
	slots map[string]entry
	now   func() time.Time
}

func New(ttl storage.TTLs) *Storage {
	return &Storage{
		ttl:   ttl,
		slots: make(map[string]entry),
		now:   time.Now,
	}
}

// WithClock replaces the clock used for slot expiry.
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

func (s *Storage) Credentials(_ context.Context) (storage.Credentials, error) {
	const op = "storage.memory.Credentials"

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	values := make(map[string]string, len(s.slots))
	for name, e := range s.slots {
		if !e.deadline.IsZero() && !now.Before(e.deadline) {
			delete(s.slots, name)
			continue
		}
		values[name] = e.value
	}

	c, err := storage.Decode(values)
	if err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Storage) Persist(_ context.Context, c storage.Credentials) error {
	const op = "storage.memory.Persist"

	slots, err := storage.Slots(c, s.ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, slot := range slots {
		if slot.Value == "" {
			delete(s.slots, slot.Name)
			continue
		}

		e := entry{value: slot.Value}
		if slot.TTL > 0 {
			e.deadline = now.Add(slot.TTL)
		}
		s.slots[slot.Name] = e
	}

	return nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.slots)

	return nil
}
