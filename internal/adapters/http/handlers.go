package http

import (
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/dkeye/Poker/internal/adapters/signal"
	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type Handlers struct {
	orch      *app.Orchestrator
	publicURL string
	version   string
}

type ParticipantRequest struct {
	ID   string `json:"id" binding:"max=256"`
	Name string `json:"name"`
}

type CreateSessionRequest struct {
	Title       string             `json:"title"`
	Participant ParticipantRequest `json:"participant"`
}

type JoinSessionRequest struct {
	Participant ParticipantRequest `json:"participant"`
}

type CreateSessionResponse struct {
	ID      domain.SessionID `json:"id"`
	Session domain.Snapshot  `json:"session"`
}

func token(c *gin.Context) domain.ParticipantID {
	return domain.SanitizeParticipantID(c.GetString(signal.ClientTokenKey))
}

// participant picks the id from the body and falls back to the cookie token.
func participant(c *gin.Context, p ParticipantRequest) domain.ParticipantID {
	if id := domain.SanitizeParticipantID(p.ID); id != "" {
		return id
	}
	return token(c)
}

func sessionID(c *gin.Context) domain.SessionID {
	return domain.SessionID(strings.TrimSpace(c.Param("id")))
}

// bind decodes an optional JSON body, an empty one leaves req zero.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fail maps an orchestrator error onto a status code.
func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(stdhttp.StatusForbidden, gin.H{"error": "only the creator may do this"})
	case errors.Is(err, app.ErrStopped):
		c.JSON(stdhttp.StatusServiceUnavailable, gin.H{"error": "shutting down"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("op", op).Msg("request failed")
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := bind(c, &req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	snap, err := h.orch.Create(c.Request.Context(), app.CreateRequest{
		Participant: participant(c, req.Participant),
		Name:        req.Participant.Name,
		Title:       req.Title,
	})
	if err != nil {
		fail(c, "create", err)
		return
	}
	c.JSON(stdhttp.StatusCreated, CreateSessionResponse{ID: snap.ID, Session: snap})
}

func (h *Handlers) getSession(c *gin.Context) {
	snap, err := h.orch.Snapshot(c.Request.Context(), sessionID(c), token(c))
	if err != nil {
		fail(c, "get", err)
		return
	}
	c.JSON(stdhttp.StatusOK, snap)
}

func (h *Handlers) joinSession(c *gin.Context) {
	var req JoinSessionRequest
	if err := bind(c, &req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	snap, err := h.orch.Join(c.Request.Context(), app.JoinRequest{
		Session:     sessionID(c),
		Participant: participant(c, req.Participant),
		Name:        req.Participant.Name,
		MustExist:   true,
	})
	if err != nil {
		fail(c, "join", err)
		return
	}
	c.JSON(stdhttp.StatusOK, snap)
}

func (h *Handlers) revealSession(c *gin.Context) {
	if err := h.orch.Reveal(c.Request.Context(), sessionID(c)); err != nil {
		fail(c, "reveal", err)
		return
	}
	c.Status(stdhttp.StatusNoContent)
}

func (h *Handlers) resetSession(c *gin.Context) {
	if err := h.orch.Reset(c.Request.Context(), sessionID(c)); err != nil {
		fail(c, "reset", err)
		return
	}
	c.Status(stdhttp.StatusNoContent)
}

func (h *Handlers) deleteSession(c *gin.Context) {
	if err := h.orch.DeleteSession(c.Request.Context(), sessionID(c), token(c)); err != nil {
		fail(c, "delete", err)
		return
	}
	c.Status(stdhttp.StatusNoContent)
}

// shareURL is the link the web client opens for a session.
func (h *Handlers) shareURL(c *gin.Context, id domain.SessionID) string {
	base := strings.TrimRight(h.publicURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/session/" + string(id)
}

func (h *Handlers) qr(c *gin.Context) {
	id := sessionID(c)
	if id == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "missing session id"})
		return
	}
	png, err := qrcode.Encode(h.shareURL(c, id), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("qr generation failed")
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(stdhttp.StatusOK, "image/png", png)
}

func (h *Handlers) deck(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"options": h.orch.Deck().Cards()})
}

func (h *Handlers) whoami(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"participant_id": token(c)})
}

func (h *Handlers) health(c *gin.Context) {
	st, err := h.orch.Stats(c.Request.Context())
	if err != nil {
		c.JSON(stdhttp.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok", "stats": st})
}

func (h *Handlers) versionInfo(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"version": h.version})
}
