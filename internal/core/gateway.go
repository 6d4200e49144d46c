package core

import (
	"slices"

	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
)

// Gateway fans frames out to the connections subscribed to a session room.
// Subscribers are kept in subscription order. It never closes
// adapter-owned resources and, like Store, has no lock of its own.
type Gateway struct {
	rooms map[domain.SessionID][]Subscriber
}

func NewGateway() *Gateway {
	return &Gateway{rooms: make(map[domain.SessionID][]Subscriber)}
}

// Subscribe adds sub to the room. Subscribing the same connection twice
// only refreshes its viewer.
func (g *Gateway) Subscribe(session domain.SessionID, sub Subscriber) {
	room := g.rooms[session]
	if i := indexOfConn(room, sub.Conn); i >= 0 {
		room[i] = sub
		return
	}
	g.rooms[session] = append(room, sub)
	log.Debug().Str("module", "core.gateway").Str("session", string(session)).Str("conn", string(sub.Conn)).Msg("subscribed")
}

func (g *Gateway) Unsubscribe(session domain.SessionID, conn ConnID) {
	room := g.rooms[session]
	i := indexOfConn(room, conn)
	if i < 0 {
		return
	}
	room = slices.Delete(room, i, i+1)
	if len(room) == 0 {
		delete(g.rooms, session)
		return
	}
	g.rooms[session] = room
}

// UnsubscribeAll removes conn from every room.
func (g *Gateway) UnsubscribeAll(conn ConnID) {
	for session := range g.rooms {
		g.Unsubscribe(session, conn)
	}
}

// Drop forgets the room without notifying anyone and returns who was in it.
func (g *Gateway) Drop(session domain.SessionID) []Subscriber {
	room := g.rooms[session]
	delete(g.rooms, session)
	return room
}

func (g *Gateway) Subscribers(session domain.SessionID) []Subscriber {
	return slices.Clone(g.rooms[session])
}

// Publish renders one frame per subscriber and enqueues it without blocking.
func (g *Gateway) Publish(session domain.SessionID, render RenderFunc) PublishResult {
	res := PublishResult{}
	for _, sub := range g.rooms[session] {
		frame, err := render(sub)
		if err != nil {
			log.Error().Err(err).Str("module", "core.gateway").Str("session", string(session)).Msg("render frame")
			continue
		}
		if err := sub.Signal.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sub)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.gateway").Str("session", string(session)).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

// Evict sends a final frame to every subscriber and empties the room.
func (g *Gateway) Evict(session domain.SessionID, notice Frame) PublishResult {
	res := g.Publish(session, func(Subscriber) (Frame, error) { return notice, nil })
	delete(g.rooms, session)
	return res
}

func (g *Gateway) Rooms() int { return len(g.rooms) }

func indexOfConn(room []Subscriber, conn ConnID) int {
	return slices.IndexFunc(room, func(s Subscriber) bool { return s.Conn == conn })
}
