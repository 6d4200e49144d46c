package core

import (
	"time"

	"github.com/dkeye/Poker/internal/domain"
	"github.com/google/uuid"
)

// Store maps session ids to session state. It holds no lock: only the
// orchestrator loop may touch it.
type Store struct {
	sessions map[domain.SessionID]*domain.Session
	newID    func() domain.SessionID
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[domain.SessionID]*domain.Session),
		newID:    func() domain.SessionID { return domain.SessionID(uuid.NewString()) },
		now:      time.Now,
	}
}

// Create registers a fresh session with an id that is not in use.
func (s *Store) Create(title string, creator domain.ParticipantID) *domain.Session {
	id := s.newID()
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		id = s.newID()
	}
	return s.put(id, title, creator)
}

// CreateWithID registers a session under a caller-chosen id. An existing
// session with that id is returned untouched.
func (s *Store) CreateWithID(id domain.SessionID, title string, creator domain.ParticipantID) (*domain.Session, bool) {
	if sess, ok := s.sessions[id]; ok {
		return sess, false
	}
	return s.put(id, title, creator), true
}

func (s *Store) Get(id domain.SessionID) (*domain.Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete is a no-op for unknown ids.
func (s *Store) Delete(id domain.SessionID) {
	delete(s.sessions, id)
}

func (s *Store) Len() int { return len(s.sessions) }

// IdleSince lists sessions whose last activity is before cutoff.
func (s *Store) IdleSince(cutoff time.Time) []domain.SessionID {
	var out []domain.SessionID
	for id, sess := range s.sessions {
		if sess.LastActive.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) Now() time.Time { return s.now() }

func (s *Store) put(id domain.SessionID, title string, creator domain.ParticipantID) *domain.Session {
	sess := domain.NewSession(id, title, creator, s.now())
	s.sessions[id] = sess
	return sess
}
