package signal

import (
	"context"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// resolve fills a missing session or participant id from the connection's
// current binding, and the participant from the cookie token after that.
func (ctl *SignalWSController) resolve(ctx context.Context, cl *client, session, participant string) (domain.SessionID, domain.ParticipantID, error) {
	sid := domain.SessionID(trimmed(session))
	pid := domain.SanitizeParticipantID(participant)
	if sid == "" || pid == "" {
		b, ok, err := ctl.Orch.Binding(ctx, cl.id)
		if err != nil {
			return "", "", err
		}
		if ok {
			if sid == "" {
				sid = b.Session
			}
			if pid == "" {
				pid = b.Participant
			}
		}
	}
	if pid == "" {
		pid = cl.token
	}
	return sid, pid, nil
}

// limitKey is the identity create attempts are counted against. The signed
// cookie token is preferred over ids taken from the payload.
func (ctl *SignalWSController) limitKey(cl *client, pid domain.ParticipantID) domain.ParticipantID {
	if cl.token != "" {
		return cl.token
	}
	return pid
}

func (ctl *SignalWSController) handleCreate(ctx context.Context, cl *client, data []byte) {
	p, err := decode[createMessage](ctl.validate, data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	pid := domain.SanitizeParticipantID(p.Participant.ID)
	if pid == "" {
		pid = cl.token
	}
	if !ctl.limiter.Allow(ctl.limitKey(cl, pid)) {
		log.Warn().Str("module", "signal").Str("token", string(cl.token)).Msg("create rate limited")
		ctl.sendError(cl, CodeRateLimited)
		return
	}

	snap, err := ctl.Orch.Create(ctx, app.CreateRequest{
		Conn:        cl.id,
		Participant: pid,
		Name:        p.Participant.Name,
		Title:       p.Title,
	})
	if err != nil {
		ctl.report(cl, "create", err)
		return
	}
	ctl.sendEvent(cl, app.CreatedEvent(snap.ID))
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, cl *client, data []byte) {
	p, err := decode[joinMessage](ctl.validate, data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	pid := domain.SanitizeParticipantID(p.Participant.ID)
	if pid == "" {
		pid = cl.token
	}

	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Str("session", p.SessionID).Msg("join")
	_, err = ctl.Orch.Join(ctx, app.JoinRequest{
		Conn:        cl.id,
		Session:     domain.SessionID(trimmed(p.SessionID)),
		Participant: pid,
		Name:        p.Participant.Name,
	})
	ctl.report(cl, "join", err)
}

// handleLeave leaves the current session, the socket stays open.
func (ctl *SignalWSController) handleLeave(ctx context.Context, cl *client) {
	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Msg("leave")
	ctl.report(cl, "leave", ctl.Orch.Leave(ctx, cl.id))
}

func (ctl *SignalWSController) handleDelete(ctx context.Context, cl *client, data []byte) {
	p, err := decode[sessionMessage](ctl.validate, data)
	if err != nil {
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, actor, err := ctl.resolve(ctx, cl, p.SessionID, "")
	if err != nil {
		ctl.report(cl, "delete", err)
		return
	}
	log.Info().Str("module", "signal").Str("session", string(sid)).Str("actor", string(actor)).Msg("delete")
	ctl.report(cl, "delete", ctl.Orch.DeleteSession(ctx, sid, actor))
}
