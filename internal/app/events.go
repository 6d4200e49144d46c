package app

import (
	"encoding/json"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

type EventType string

const (
	EventSessionState   EventType = "session_state"
	EventSessionCreated EventType = "session_created"
	EventSessionDeleted EventType = "session_deleted"
	EventWhoAmI         EventType = "whoami"
	EventError          EventType = "error"
	EventPong           EventType = "pong"
)

// Event is the envelope of every frame the server sends.
type Event struct {
	Type        EventType            `json:"type"`
	Session     *domain.Snapshot     `json:"session,omitempty"`
	SessionID   domain.SessionID     `json:"session_id,omitempty"`
	Participant domain.ParticipantID `json:"participant_id,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func StateEvent(s domain.Snapshot) Event {
	return Event{Type: EventSessionState, Session: &s}
}

func CreatedEvent(id domain.SessionID) Event {
	return Event{Type: EventSessionCreated, SessionID: id}
}

func DeletedEvent(id domain.SessionID) Event {
	return Event{Type: EventSessionDeleted, SessionID: id}
}

func WhoAmIEvent(participant domain.ParticipantID, session domain.SessionID) Event {
	return Event{Type: EventWhoAmI, Participant: participant, SessionID: session}
}

func ErrorEvent(code string) Event {
	return Event{Type: EventError, Error: code}
}

func PongEvent() Event {
	return Event{Type: EventPong}
}

func Encode(e Event) (core.Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
