package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(ctl.settings.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cl *client) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump closing")
		cancel()
		cl.conn.Close()

		// The server ctx may already be gone, cleanup still has to reach the loop.
		dctx, done := context.WithTimeout(context.Background(), ctl.settings.WriteWait)
		defer done()
		if err := ctl.Orch.Disconnect(dctx, cl.id); err != nil && !errors.Is(err, app.ErrStopped) {
			log.Error().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("disconnect")
		}
	}()

	ws := cl.conn.conn
	ws.SetReadLimit(ctl.settings.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, cl, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cl *client, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("bad json")
		ctl.sendError(cl, CodeBadPayload)
		return
	}

	switch env.Type {
	case "create":
		ctl.handleCreate(ctx, cl, data)
	case "join":
		ctl.handleJoin(ctx, cl, data)
	case "leave":
		ctl.handleLeave(ctx, cl)
	case "rename":
		ctl.handleRename(ctx, cl, data)
	case "update_title":
		ctl.handleUpdateTitle(ctx, cl, data)
	case "vote":
		ctl.handleVote(ctx, cl, data)
	case "reveal":
		ctl.handleReveal(ctx, cl, data)
	case "reset":
		ctl.handleReset(ctx, cl, data)
	case "delete":
		ctl.handleDelete(ctx, cl, data)
	case "whoami":
		ctl.handleWhoAmI(ctx, cl)
	case "ping":
		ctl.handlePing(cl)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(cl, CodeUnknownType)
	}
}

func (ctl *SignalWSController) sendEvent(cl *client, e app.Event) {
	f, err := app.Encode(e)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendEvent encode")
		return
	}
	if err := cl.conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Str("type", string(e.Type)).Msg("sendEvent")
	}
}

func (ctl *SignalWSController) sendError(cl *client, code string) {
	ctl.sendEvent(cl, app.ErrorEvent(code))
}

// report turns an orchestrator error into an error frame for the sender.
// Shutdown and cancellation are only logged.
func (ctl *SignalWSController) report(cl *client, op string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrForbidden):
		ctl.sendError(cl, CodeForbidden)
	case errors.Is(err, domain.ErrSessionNotFound):
		ctl.sendError(cl, CodeNotFound)
	case errors.Is(err, app.ErrStopped), errors.Is(err, context.Canceled):
		log.Debug().Err(err).Str("module", "signal").Str("op", op).Msg("dropped during shutdown")
	default:
		log.Error().Err(err).Str("module", "signal").Str("op", op).Str("conn", string(cl.id)).Msg("operation failed")
		ctl.sendError(cl, CodeInternal)
	}
}
