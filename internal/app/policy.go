package app

import (
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a subscriber whose send buffer is full.
type Policy interface {
	OnBackPressure(session domain.SessionID, sub core.Subscriber) BackpressureAction
}

// SimplePolicy kicks slow subscribers. A kicked connection is closed and
// cleaned up like any other disconnect, so it never silently misses a state.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.SessionID, core.Subscriber) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the subscriber.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(domain.SessionID, core.Subscriber) BackpressureAction {
	return DropFrame
}
