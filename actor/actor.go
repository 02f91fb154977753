package actor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickStatus is the outcome Engine.Tick reports for one unit of work.
type TickStatus int

const (
	Working TickStatus = iota
	Idle
	Finished
)

// Engine is the work driven by an actor's Tick loop: a Producer or
// Consumer implements this, advancing one step of snapshot/CDC
// production or batch consumption per call.
type Engine interface {
	Tick(ctx context.Context) (TickStatus, error)
	Stop(ctx context.Context)
}

// Message is the closed set of mailbox messages an actor handles. Only
// one concrete type below is populated per Message; Kind discriminates.
type Kind int

const (
	MsgStart Kind = iota
	MsgTick
	MsgStop
	MsgFlush
	MsgStartSnapshot
	MsgStartCdc
	MsgSetActorRef
	MsgSetEventBus
)

type Message struct {
	Kind   Kind
	Reason string
	Done   chan<- struct{}
	Ref    *Actor
	Bus    EventBus
}

// Config tunes an actor's idle-reschedule delay and circuit breaker.
type Config struct {
	IdleDelay time.Duration
	Breaker   BreakerConfig
}

// DefaultProducerConfig matches the ≈500ms idle-delay default used by
// producer actors.
func DefaultProducerConfig() Config {
	return Config{IdleDelay: 500 * time.Millisecond, Breaker: DefaultBreakerConfig()}
}

// DefaultConsumerConfig matches the ≈100ms idle-delay default used by
// consumer actors.
func DefaultConsumerConfig() Config {
	return Config{IdleDelay: 100 * time.Millisecond, Breaker: DefaultBreakerConfig()}
}

// Actor owns a bounded mailbox and serializes message handling: at
// most one handle() call runs at a time, with no re-entrancy.
type Actor struct {
	name    string
	mailbox chan Message
	engine  Engine
	cfg     Config
	breaker *CircuitBreaker
	log     *zap.Logger

	mu  sync.Mutex
	bus EventBus
	ref *Actor
}

// New builds an actor wrapping engine, with a mailbox of the given
// capacity.
func New(name string, engine Engine, cfg Config, log *zap.Logger, mailboxCap int) *Actor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Actor{
		name:    name,
		mailbox: make(chan Message, mailboxCap),
		engine:  engine,
		cfg:     cfg,
		breaker: NewCircuitBreaker(cfg.Breaker),
		log:     log.With(zap.String("actor", name)),
	}
}

// Send enqueues a message, blocking if the mailbox is full.
func (a *Actor) Send(m Message) { a.mailbox <- m }

// SetActorRef records self, the actor's own reference, so collaborators
// handed only a Message can address replies back to it.
func (a *Actor) SetActorRef(self *Actor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ref = self
}

// Run drives the mailbox loop until ctx is cancelled or the engine
// reports Finished. It self-sends Tick messages to advance work,
// matching the cooperative scheduling model: no re-entrant handle()
// calls, and cancellation is observed only at message boundaries.
func (a *Actor) Run(ctx context.Context) {
	defer close(a.mailbox)
	a.Send(Message{Kind: MsgTick})
	for {
		select {
		case <-ctx.Done():
			a.engine.Stop(context.Background())
			return
		case msg, ok := <-a.mailbox:
			if !ok {
				return
			}
			if a.handle(ctx, msg) {
				return
			}
		}
	}
}

// handle processes one message and reports whether the actor should
// stop entirely.
func (a *Actor) handle(ctx context.Context, msg Message) (stop bool) {
	switch msg.Kind {
	case MsgStop:
		a.engine.Stop(ctx)
		if msg.Done != nil {
			close(msg.Done)
		}
		return true

	case MsgTick:
		if ctx.Err() != nil {
			a.engine.Stop(context.Background())
			return true
		}
		status, err := a.engine.Tick(ctx)
		if err != nil {
			state, delay := a.breaker.RecordFailure()
			a.log.Warn("tick failed", zap.Error(err), zap.String("state", state.String()))
			if state == Open {
				a.log.Error("circuit breaker open, stopping actor")
				a.publish(Event{Kind: CircuitBreakerTripped, Err: err})
				a.engine.Stop(ctx)
				return true
			}
			go a.scheduleAfter(delay, Message{Kind: MsgTick})
			return false
		}
		a.breaker.RecordSuccess()
		if ctx.Err() != nil {
			a.engine.Stop(context.Background())
			return true
		}
		switch status {
		case Working:
			a.Send(Message{Kind: MsgTick})
		case Idle:
			go a.scheduleAfter(a.cfg.IdleDelay, Message{Kind: MsgTick})
		case Finished:
			a.log.Info("actor finished")
			a.publish(Event{Kind: RunFinished})
			return true
		}
		return false

	case MsgSetActorRef:
		a.SetActorRef(msg.Ref)
		return false

	case MsgSetEventBus:
		a.SetEventBus(msg.Bus)
		return false

	case MsgFlush, MsgStart, MsgStartSnapshot, MsgStartCdc:
		// Recognized but carry no actor-runtime-level behavior beyond
		// being observable to the engine via its own Tick/Stop calls.
		return false
	}
	return false
}

func (a *Actor) scheduleAfter(d time.Duration, m Message) {
	t := time.NewTimer(d)
	defer t.Stop()
	<-t.C
	defer func() { recover() }() // mailbox may have closed underneath us
	a.Send(m)
}
