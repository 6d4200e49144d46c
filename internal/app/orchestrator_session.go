package app

import (
	"context"

	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

type Stats struct {
	Sessions    int `json:"sessions"`
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

func (o *Orchestrator) Rename(ctx context.Context, session domain.SessionID, participant domain.ParticipantID, name string) error {
	return o.exec(ctx, "rename", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		m, ok := sess.Member(participant)
		if !ok {
			return errIgnored
		}
		m.SetName(name)
		o.touch(sess)
		o.broadcast(sess)
		return nil
	})
}

// UpdateTitle changes the session title. With strict creator mode only the
// creator may do it, unless the session has no creator.
func (o *Orchestrator) UpdateTitle(ctx context.Context, session domain.SessionID, actor domain.ParticipantID, title string) error {
	return o.exec(ctx, "update_title", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		if !o.allowed(sess, actor) {
			return domain.ErrForbidden
		}
		sess.SetTitle(title)
		o.touch(sess)
		o.broadcast(sess)
		return nil
	})
}

// Vote records value for the participant, snapped to the deck. Votes are
// refused while the session is revealed. An unknown participant is added so
// a vote racing ahead of its join is not lost.
func (o *Orchestrator) Vote(ctx context.Context, session domain.SessionID, participant domain.ParticipantID, value int) error {
	return o.exec(ctx, "vote", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		if sess.Revealed {
			log.Debug().Str("module", "app.orchestrator").Str("session", string(session)).
				Str("participant", string(participant)).Msg("vote refused, session revealed")
			return errRejected
		}
		if _, ok := sess.Member(participant); !ok {
			sess.AddMember(participant, "")
		}
		sess.CastVote(participant, o.deck.Nearest(value))
		o.touch(sess)
		o.broadcast(sess)
		return nil
	})
}

func (o *Orchestrator) Reveal(ctx context.Context, session domain.SessionID) error {
	return o.exec(ctx, "reveal", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		sess.Reveal()
		o.touch(sess)
		log.Info().Str("module", "app.orchestrator").Str("session", string(session)).Int("votes", len(sess.Votes())).Msg("votes revealed")
		o.broadcast(sess)
		return nil
	})
}

func (o *Orchestrator) Reset(ctx context.Context, session domain.SessionID) error {
	return o.exec(ctx, "reset", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		sess.Reset()
		o.touch(sess)
		o.broadcast(sess)
		return nil
	})
}

// DeleteSession sends one terminal notice to the room, evicts every
// connection and removes the session.
func (o *Orchestrator) DeleteSession(ctx context.Context, session domain.SessionID, actor domain.ParticipantID) error {
	return o.exec(ctx, "delete", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return errIgnored
		}
		if !o.allowed(sess, actor) {
			return domain.ErrForbidden
		}
		notice, err := Encode(DeletedEvent(session))
		if err != nil {
			return err
		}
		o.destroy(session, notice)
		return nil
	})
}

// Snapshot reads the session as viewer sees it.
func (o *Orchestrator) Snapshot(ctx context.Context, session domain.SessionID, viewer domain.ParticipantID) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := o.exec(ctx, "snapshot", func() error {
		sess, ok := o.store.Get(session)
		if !ok {
			return domain.ErrSessionNotFound
		}
		snap = sess.View(viewer, o.deck)
		return nil
	})
	return snap, err
}

func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := o.exec(ctx, "stats", func() error {
		st = Stats{Sessions: o.store.Len(), Connections: o.conns.Len(), Rooms: o.rooms.Rooms()}
		return nil
	})
	return st, err
}

func (o *Orchestrator) allowed(sess *domain.Session, actor domain.ParticipantID) bool {
	return !o.strictCreator || sess.CreatorID == "" || sess.CreatorID == actor
}
