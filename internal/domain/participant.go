// Package domain contains the planning poker entities and their invariants.
// No transport or lifecycle logic here.
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxParticipantIDLen = 64
	MaxNameLen          = 36
	DefaultName         = "Anonymous"
)

type ParticipantID string

// Participant is one voting identity within a session.
type Participant struct {
	ID   ParticipantID
	Name string
	Vote *int
}

// NewParticipant avoids ad-hoc struct literals in adapters.
func NewParticipant(id ParticipantID, name string) *Participant {
	return &Participant{ID: id, Name: SanitizeName(name, DefaultName)}
}

// SetName applies a sanitized name; an empty one keeps the current name.
func (p *Participant) SetName(name string) {
	p.Name = SanitizeName(name, p.Name)
}

func (p *Participant) HasVoted() bool { return p.Vote != nil }

func (p *Participant) ClearVote() { p.Vote = nil }

// SanitizeName trims and truncates a display name. Empty input yields
// fallback, or DefaultName when fallback is empty too.
func SanitizeName(name, fallback string) string {
	name = truncate(strings.TrimSpace(name), MaxNameLen)
	if name != "" {
		return name
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" {
		return fallback
	}
	return DefaultName
}

// SanitizeParticipantID trims an id and bounds its length. An empty result
// means the caller must fall back to a transport identity.
func SanitizeParticipantID(id string) ParticipantID {
	return ParticipantID(truncate(strings.TrimSpace(id), MaxParticipantIDLen))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
