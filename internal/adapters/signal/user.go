package signal

import (
	"context"

	"github.com/dkeye/Poker/internal/app"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(ctx context.Context, cl *client, data []byte) {
	p, err := decode[renameMessage](ctl.validate, data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(cl, CodeBadPayload)
		return
	}
	sid, pid, err := ctl.resolve(ctx, cl, p.SessionID, p.ParticipantID)
	if err != nil {
		ctl.report(cl, "rename", err)
		return
	}
	log.Info().Str("module", "signal").Str("participant", string(pid)).Str("name", p.Name).Msg("rename")
	ctl.report(cl, "rename", ctl.Orch.Rename(ctx, sid, pid, p.Name))
}

func (ctl *SignalWSController) handleWhoAmI(ctx context.Context, cl *client) {
	b, ok, err := ctl.Orch.Binding(ctx, cl.id)
	if err != nil {
		ctl.report(cl, "whoami", err)
		return
	}
	if !ok {
		b.Participant = cl.token
	}
	ctl.sendEvent(cl, app.WhoAmIEvent(b.Participant, b.Session))
}
