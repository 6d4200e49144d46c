package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/dkeye/Poker/internal/app"
	minReapInterval = 10 * time.Millisecond
)

var (
	// ErrStopped is returned once the event loop has exited.
	ErrStopped = errors.New("orchestrator stopped")

	// Internal outcomes of tolerated no-ops. Callers see nil.
	errIgnored  = errors.New("ignored")
	errRejected = errors.New("rejected")
)

type Options struct {
	Deck           domain.Deck
	Policy         Policy
	Metrics        *Metrics
	SessionTimeout time.Duration
	StrictCreator  bool
}

type command struct {
	ctx  context.Context
	op   string
	run  func() error
	done chan error
}

// Orchestrator is the session state machine. Every operation, from any
// connection and for any session, runs one at a time on the goroutine that
// called Run; store, registry and gateway are never touched elsewhere.
type Orchestrator struct {
	store *core.Store
	conns *core.Registry
	rooms *core.Gateway

	deck           domain.Deck
	policy         Policy
	metrics        *Metrics
	sessionTimeout time.Duration
	strictCreator  bool
	tracer         trace.Tracer

	inbox   chan command
	stopped chan struct{}
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Policy == nil {
		opts.Policy = SimplePolicy{}
	}
	return &Orchestrator{
		store:          core.NewStore(),
		conns:          core.NewRegistry(),
		rooms:          core.NewGateway(),
		deck:           opts.Deck,
		policy:         opts.Policy,
		metrics:        opts.Metrics,
		sessionTimeout: opts.SessionTimeout,
		strictCreator:  opts.StrictCreator,
		tracer:         otel.Tracer(tracerName),
		inbox:          make(chan command),
		stopped:        make(chan struct{}),
	}
}

func (o *Orchestrator) Deck() domain.Deck { return o.deck }

// Run processes commands until ctx is done. It must be called exactly once.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.stopped)

	var reap <-chan time.Time
	if o.sessionTimeout > 0 {
		ticker := time.NewTicker(max(o.sessionTimeout/2, minReapInterval))
		defer ticker.Stop()
		reap = ticker.C
	}

	log.Info().Str("module", "app.orchestrator").Dur("session_timeout", o.sessionTimeout).Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.orchestrator").Msg("event loop stopped")
			return ctx.Err()
		case cmd := <-o.inbox:
			o.handle(cmd)
		case now := <-reap:
			o.reapIdle(now)
		}
	}
}

// exec hands run to the loop and waits for it. Once the loop has accepted
// a command it always runs to completion, even if ctx ends meanwhile.
func (o *Orchestrator) exec(ctx context.Context, op string, run func() error) error {
	cmd := command{ctx: ctx, op: op, run: run, done: make(chan error, 1)}
	select {
	case o.inbox <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return ErrStopped
	}
	err := <-cmd.done
	if errors.Is(err, errIgnored) || errors.Is(err, errRejected) {
		return nil
	}
	return err
}

func (o *Orchestrator) handle(cmd command) {
	_, span := o.tracer.Start(cmd.ctx, "orchestrator."+cmd.op,
		trace.WithAttributes(attribute.String("poker.op", cmd.op)))
	start := time.Now()

	err := o.safeRun(cmd)

	o.metrics.observeOp(cmd.op, err, time.Since(start))
	o.metrics.setGauges(o.store.Len(), o.conns.Len())
	if err != nil && !errors.Is(err, errIgnored) && !errors.Is(err, errRejected) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	cmd.done <- err
}

func (o *Orchestrator) safeRun(cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", cmd.op, r)
			log.Error().Str("module", "app.orchestrator").Str("op", cmd.op).Interface("panic", r).Msg("operation panicked")
		}
	}()
	return cmd.run()
}

// broadcast publishes the session to its room, rendered for each viewer.
func (o *Orchestrator) broadcast(sess *domain.Session) {
	res := o.rooms.Publish(sess.ID, func(sub core.Subscriber) (core.Frame, error) {
		return Encode(StateEvent(sess.View(sub.Viewer, o.deck)))
	})
	o.afterPublish(sess.ID, res)
}

func (o *Orchestrator) afterPublish(session domain.SessionID, res core.PublishResult) {
	o.metrics.observePublish(res)
	for _, slow := range res.Dropped {
		switch o.policy.OnBackPressure(session, slow) {
		case KickMember:
			log.Warn().Str("module", "app.orchestrator").Str("session", string(session)).
				Str("conn", string(slow.Conn)).Msg("kicking slow subscriber")
			o.metrics.kicked()
			slow.Signal.Close()
			o.disconnect(slow.Conn)
		case DropFrame, NoAction:
		}
	}
}

// destroy removes the session. With a notice every subscriber receives it
// once before being evicted; without one the room is dropped silently.
func (o *Orchestrator) destroy(id domain.SessionID, notice core.Frame) {
	if notice != nil {
		res := o.rooms.Evict(id, notice)
		o.metrics.observePublish(res)
	} else {
		o.rooms.Drop(id)
	}
	for _, conn := range o.conns.BoundTo(id) {
		o.conns.Unbind(conn)
	}
	o.store.Delete(id)
	log.Info().Str("module", "app.orchestrator").Str("session", string(id)).Msg("session destroyed")
}

func (o *Orchestrator) reapIdle(now time.Time) {
	idle := o.store.IdleSince(now.Add(-o.sessionTimeout))
	if len(idle) == 0 {
		return
	}
	for _, id := range idle {
		notice, err := Encode(DeletedEvent(id))
		if err != nil {
			log.Error().Err(err).Str("module", "app.orchestrator").Msg("encode deleted notice")
			continue
		}
		o.destroy(id, notice)
	}
	o.metrics.setGauges(o.store.Len(), o.conns.Len())
	log.Info().Str("module", "app.orchestrator").Int("reaped", len(idle)).Msg("reaped idle sessions")
}

func (o *Orchestrator) touch(sess *domain.Session) {
	sess.Touch(o.store.Now())
}
