package signal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	CodeBadPayload  = "bad_payload"
	CodeUnknownType = "unknown_type"
	CodeRateLimited = "rate_limited"
	CodeForbidden   = "forbidden"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal"
)

type envelope struct {
	Type string `json:"type"`
}

type participantRef struct {
	ID   string `json:"id" validate:"max=256"`
	Name string `json:"name"`
}

type createMessage struct {
	Title       string         `json:"title"`
	Participant participantRef `json:"participant"`
}

type joinMessage struct {
	SessionID   string         `json:"session_id" validate:"max=128"`
	Participant participantRef `json:"participant"`
}

// sessionMessage covers leave, reveal, reset and delete.
type sessionMessage struct {
	SessionID string `json:"session_id" validate:"max=128"`
}

type renameMessage struct {
	SessionID     string `json:"session_id" validate:"max=128"`
	ParticipantID string `json:"participant_id" validate:"max=256"`
	Name          string `json:"name" validate:"required"`
}

type updateTitleMessage struct {
	SessionID string `json:"session_id" validate:"max=128"`
	Title     string `json:"title" validate:"required"`
}

type voteMessage struct {
	SessionID     string `json:"session_id" validate:"max=128"`
	ParticipantID string `json:"participant_id" validate:"max=256"`
	Value         *int   `json:"value" validate:"required"`
}

func decode[T any](v *validator.Validate, data []byte) (T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode: %w", err)
	}
	if err := v.Struct(msg); err != nil {
		return msg, fmt.Errorf("validate: %w", err)
	}
	return msg, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
