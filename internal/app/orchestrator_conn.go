package app

import (
	"context"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinRequest adds a participant to a session. Conn is empty for callers
// without a live connection (HTTP). With MustExist an unknown session is an
// error instead of being created.
type JoinRequest struct {
	Conn        core.ConnID
	Session     domain.SessionID
	Participant domain.ParticipantID
	Name        string
	MustExist   bool
}

type CreateRequest struct {
	Conn        core.ConnID
	Participant domain.ParticipantID
	Name        string
	Title       string
}

// Connect registers a live connection. It is not bound to any session yet.
func (o *Orchestrator) Connect(ctx context.Context, conn core.ConnID, sig core.SignalConnection) error {
	return o.exec(ctx, "connect", func() error {
		o.conns.Attach(conn, sig)
		return nil
	})
}

// Disconnect drops the connection and removes the participant it stood for,
// even if the same participant is still open on another connection.
func (o *Orchestrator) Disconnect(ctx context.Context, conn core.ConnID) error {
	return o.exec(ctx, "disconnect", func() error {
		if !o.disconnect(conn) {
			return errIgnored
		}
		return nil
	})
}

func (o *Orchestrator) disconnect(conn core.ConnID) bool {
	o.rooms.UnsubscribeAll(conn)
	b, ok := o.conns.Detach(conn)
	if !ok {
		return false
	}
	log.Info().Str("module", "app.orchestrator").Str("conn", string(conn)).
		Str("session", string(b.Session)).Str("participant", string(b.Participant)).Msg("disconnect")
	o.removeParticipant(b.Session, b.Participant)
	return true
}

// Create opens a new session with the caller as creator and first member.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := o.exec(ctx, "create", func() error {
		sess := o.store.Create(req.Title, req.Participant)
		sess.AddMember(req.Participant, req.Name)
		o.attach(req.Conn, sess.ID, req.Participant)
		log.Info().Str("module", "app.orchestrator").Str("session", string(sess.ID)).
			Str("creator", string(req.Participant)).Msg("session created")
		o.broadcast(sess)
		snap = sess.View(req.Participant, o.deck)
		return nil
	})
	return snap, err
}

// Join adds the participant if needed and subscribes the connection to the
// session room. Rejoining with the same participant id never duplicates it.
func (o *Orchestrator) Join(ctx context.Context, req JoinRequest) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := o.exec(ctx, "join", func() error {
		sess, ok := o.store.Get(req.Session)
		if !ok {
			if req.MustExist {
				return domain.ErrSessionNotFound
			}
			if req.Session == "" {
				sess = o.store.Create("", req.Participant)
			} else {
				sess, _ = o.store.CreateWithID(req.Session, "", req.Participant)
			}
			log.Info().Str("module", "app.orchestrator").Str("session", string(sess.ID)).Msg("session created on join")
		}
		_, added := sess.AddMember(req.Participant, req.Name)
		o.attach(req.Conn, sess.ID, req.Participant)
		o.touch(sess)
		log.Info().Str("module", "app.orchestrator").Str("session", string(sess.ID)).
			Str("participant", string(req.Participant)).Bool("new_member", added).Msg("join")
		o.broadcast(sess)
		snap = sess.View(req.Participant, o.deck)
		return nil
	})
	return snap, err
}

// Leave removes the participant bound to conn from the session and stops
// the connection's subscription. The connection itself stays open.
func (o *Orchestrator) Leave(ctx context.Context, conn core.ConnID) error {
	return o.exec(ctx, "leave", func() error {
		b, ok := o.conns.Lookup(conn)
		if !ok {
			return errIgnored
		}
		o.leave(conn, b)
		return nil
	})
}

// Binding reports which session and participant conn currently stands for.
func (o *Orchestrator) Binding(ctx context.Context, conn core.ConnID) (core.Binding, bool, error) {
	var (
		b  core.Binding
		ok bool
	)
	err := o.exec(ctx, "binding", func() error {
		b, ok = o.conns.Lookup(conn)
		return nil
	})
	return b, ok, err
}

func (o *Orchestrator) leave(conn core.ConnID, b core.Binding) {
	o.conns.Unbind(conn)
	o.rooms.Unsubscribe(b.Session, conn)
	o.removeParticipant(b.Session, b.Participant)
}

// attach binds conn to the participant in session. A previous binding to
// another session or another participant is left first, so no member is
// kept alive without a connection.
func (o *Orchestrator) attach(conn core.ConnID, session domain.SessionID, participant domain.ParticipantID) {
	if conn == "" {
		return
	}
	sig, ok := o.conns.Signal(conn)
	if !ok {
		return
	}
	if prev, ok := o.conns.Lookup(conn); ok && (prev.Session != session || prev.Participant != participant) {
		log.Info().Str("module", "app.orchestrator").Str("conn", string(conn)).
			Str("from_session", string(prev.Session)).Str("from_participant", string(prev.Participant)).Msg("leaving previous binding")
		o.leave(conn, prev)
	}
	o.conns.Bind(conn, core.Binding{Session: session, Participant: participant})
	o.rooms.Subscribe(session, core.Subscriber{Conn: conn, Viewer: participant, Signal: sig})
}

func (o *Orchestrator) removeParticipant(session domain.SessionID, participant domain.ParticipantID) {
	sess, ok := o.store.Get(session)
	if !ok || !sess.RemoveMember(participant) {
		return
	}
	if sess.IsEmpty() {
		o.destroy(sess.ID, nil)
		return
	}
	o.touch(sess)
	o.broadcast(sess)
}
