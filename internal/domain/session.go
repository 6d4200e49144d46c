package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
)

const (
	DefaultTitle = "New Session"
	MaxTitleLen  = 80
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("only the session creator may do that")
)

type SessionID string

type State int

const (
	StateOpen State = iota
	StateRevealed
)

func (s State) String() string {
	if s == StateRevealed {
		return "revealed"
	}
	return "open"
}

// Session is a single estimation room. Members keep insertion order and are
// unique by id.
type Session struct {
	ID         SessionID
	Title      string
	CreatorID  ParticipantID
	Members    []*Participant
	Revealed   bool
	CreatedAt  time.Time
	LastActive time.Time
}

func NewSession(id SessionID, title string, creator ParticipantID, now time.Time) *Session {
	return &Session{
		ID:         id,
		Title:      sanitizeTitle(title, DefaultTitle),
		CreatorID:  creator,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) State() State {
	if s.Revealed {
		return StateRevealed
	}
	return StateOpen
}

func (s *Session) IsEmpty() bool { return len(s.Members) == 0 }

func (s *Session) Member(id ParticipantID) (*Participant, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.Members[i], true
}

// AddMember adds a participant unless one with the same id exists, in which
// case the existing member is renamed and returned. A blank name keeps the
// existing member's name. added reports which case ran.
func (s *Session) AddMember(id ParticipantID, name string) (member *Participant, added bool) {
	if existing, ok := s.Member(id); ok {
		existing.SetName(name)
		return existing, false
	}
	p := NewParticipant(id, name)
	s.Members = append(s.Members, p)
	return p, true
}

func (s *Session) RemoveMember(id ParticipantID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.Members = slices.Delete(s.Members, i, i+1)
	return true
}

// SetTitle keeps the prior title when the new one is blank.
func (s *Session) SetTitle(title string) {
	s.Title = sanitizeTitle(title, s.Title)
}

// CastVote records value for the member. Votes are refused while revealed.
func (s *Session) CastVote(id ParticipantID, value int) bool {
	if s.Revealed {
		return false
	}
	m, ok := s.Member(id)
	if !ok {
		return false
	}
	m.Vote = &value
	return true
}

func (s *Session) Reveal() { s.Revealed = true }

func (s *Session) Reset() {
	for _, m := range s.Members {
		m.ClearVote()
	}
	s.Revealed = false
}

func (s *Session) Votes() []int {
	out := make([]int, 0, len(s.Members))
	for _, m := range s.Members {
		if m.Vote != nil {
			out = append(out, *m.Vote)
		}
	}
	return out
}

func (s *Session) Touch(now time.Time) { s.LastActive = now }

func (s *Session) indexOf(id ParticipantID) int {
	return slices.IndexFunc(s.Members, func(m *Participant) bool { return m.ID == id })
}

func sanitizeTitle(title, fallback string) string {
	title = truncate(strings.TrimSpace(title), MaxTitleLen)
	if title == "" {
		return fallback
	}
	return title
}
