// Package store holds all debate sessions in process memory. It is the only
// owner of debate and message state; nothing is persisted and nothing is
// deleted before process exit.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dev.helix.deliberation/internal/models"
)

// ErrTopicRequired is returned when a debate is created without a topic.
var ErrTopicRequired = errors.New("topic is required")

// debateIDLayout derives session ids from the creation timestamp.
const debateIDLayout = "20060102_150405"

type entry struct {
	mu     sync.Mutex
	debate *models.Debate
}

// Store maps debate ids to debate state. Appends serialize per debate so a
// session's turn chain and asynchronous interventions cannot interleave.
type Store struct {
	mu      sync.RWMutex
	debates map[string]*entry

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		debates: make(map[string]*entry),
		now:     time.Now,
	}
}

// Create validates the topic, generates a fresh timestamp-derived id, and
// inserts an active debate with an empty message log. Ids created within the
// same second get a numeric suffix so every id stays unique.
func (s *Store) Create(topic string) (string, error) {
	if topic == "" {
		return "", ErrTopicRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.Format(debateIDLayout)
	for n := 2; ; n++ {
		if _, exists := s.debates[id]; !exists {
			break
		}
		id = fmt.Sprintf("%s_%d", now.Format(debateIDLayout), n)
	}

	s.debates[id] = &entry{
		debate: &models.Debate{
			ID:        id,
			Topic:     topic,
			StartTime: now,
			Status:    models.DebateStatusActive,
			Messages:  []models.Message{},
		},
	}
	return id, nil
}

// Get returns a snapshot of the debate, or false when the id is unknown.
// The returned copy is safe to read while the debate keeps growing.
func (s *Store) Get(id string) (models.Debate, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Debate{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := *e.debate
	snapshot.Messages = append([]models.Message(nil), e.debate.Messages...)
	return snapshot, true
}

// Append adds a message to the debate's log in order. Appending to an
// unknown id is a silent no-op; the return value reports whether the
// message was stored.
func (s *Store) Append(id string, msg models.Message) bool {
	e, ok := s.lookup(id)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.debate.Messages = append(e.debate.Messages, msg)
	return true
}

// Context returns the last n messages of the debate, oldest first, or false
// when the id is unknown.
func (s *Store) Context(id string, n int) ([]models.Message, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	msgs := e.debate.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]models.Message(nil), msgs...), true
}

// Topic returns the debate's topic, or false when the id is unknown.
func (s *Store) Topic(id string) (string, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return "", false
	}
	return e.debate.Topic, true
}

// Exists reports whether the id names a known debate.
func (s *Store) Exists(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// Len returns the number of debates held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.debates)
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.debates[id]
	return e, ok
}
