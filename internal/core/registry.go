package core

import (
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// Binding is the (session, participant) pair a connection currently represents.
type Binding struct {
	Session     domain.SessionID
	Participant domain.ParticipantID
}

type connEntry struct {
	Signal  SignalConnection
	Binding *Binding
}

// Registry tracks live connections and what they are bound to. Like Store it
// is confined to the orchestrator loop.
type Registry struct {
	conns map[ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*connEntry)}
}

// Attach records a new, unbound connection.
func (r *Registry) Attach(id ConnID, sig SignalConnection) {
	r.conns[id] = &connEntry{Signal: sig}
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Msg("attached connection")
}

// Detach forgets the connection and returns its last binding, if any.
func (r *Registry) Detach(id ConnID) (Binding, bool) {
	e, ok := r.conns[id]
	if !ok {
		return Binding{}, false
	}
	delete(r.conns, id)
	log.Debug().Str("module", "core.registry").Str("conn", string(id)).Msg("detached connection")
	if e.Binding == nil {
		return Binding{}, false
	}
	return *e.Binding, true
}

func (r *Registry) Signal(id ConnID) (SignalConnection, bool) {
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Signal, true
}

// Bind associates an attached connection with a session participant. It
// returns false for unknown connections.
func (r *Registry) Bind(id ConnID, b Binding) bool {
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Binding = &b
	log.Info().Str("module", "core.registry").Str("conn", string(id)).
		Str("session", string(b.Session)).Str("participant", string(b.Participant)).Msg("bound connection")
	return true
}

func (r *Registry) Lookup(id ConnID) (Binding, bool) {
	e, ok := r.conns[id]
	if !ok || e.Binding == nil {
		return Binding{}, false
	}
	return *e.Binding, true
}

// Unbind clears the binding but keeps the connection attached.
func (r *Registry) Unbind(id ConnID) {
	if e, ok := r.conns[id]; ok {
		e.Binding = nil
	}
}

// BoundTo lists connections bound to the session.
func (r *Registry) BoundTo(session domain.SessionID) []ConnID {
	var out []ConnID
	for id, e := range r.conns {
		if e.Binding != nil && e.Binding.Session == session {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.conns) }
