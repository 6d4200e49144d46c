package signal

import (
	"context"

	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleVote(ctx context.Context, cl *client, data []byte) {
	p, err := decode[voteMessage](ctl.validate, data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad vote payload")
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, pid, err := ctl.resolve(ctx, cl, p.SessionID, p.ParticipantID)
	if err != nil {
		ctl.report(cl, "vote", err)
		return
	}
	ctl.report(cl, "vote", ctl.Orch.Vote(ctx, sid, pid, *p.Value))
}

func (ctl *SignalWSController) handleReveal(ctx context.Context, cl *client, data []byte) {
	p, err := decode[sessionMessage](ctl.validate, data)
	if err != nil {
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, _, err := ctl.resolve(ctx, cl, p.SessionID, "")
	if err != nil {
		ctl.report(cl, "reveal", err)
		return
	}
	ctl.report(cl, "reveal", ctl.Orch.Reveal(ctx, sid))
}

func (ctl *SignalWSController) handleReset(ctx context.Context, cl *client, data []byte) {
	p, err := decode[sessionMessage](ctl.validate, data)
	if err != nil {
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, _, err := ctl.resolve(ctx, cl, p.SessionID, "")
	if err != nil {
		ctl.report(cl, "reset", err)
		return
	}
	ctl.report(cl, "reset", ctl.Orch.Reset(ctx, sid))
}

func (ctl *SignalWSController) handleUpdateTitle(ctx context.Context, cl *client, data []byte) {
	p, err := decode[updateTitleMessage](ctl.validate, data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad update_title payload")
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, actor, err := ctl.resolve(ctx, cl, p.SessionID, "")
	if err != nil {
		ctl.report(cl, "update_title", err)
		return
	}
	ctl.report(cl, "update_title", ctl.Orch.UpdateTitle(ctx, sid, actor, p.Title))
}
