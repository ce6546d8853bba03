// Package session owns all per-login state: the directory subscription
// that keeps a resolved identity validated, the presence heartbeat, and
// the explicit state machine driving both. Nothing here is a package-level
// global; one Runner exists per logged-in connection.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/directory"
	"github.com/mlhuang/critterchat/internal/domain"
	"go.uber.org/zap"
)

// Reason tells a consumer why a terminal update happened.
const (
	ReasonSuperseded = "superseded"
	ReasonLogout     = "logout"
	ReasonStoreError = "store_error"
)

// Update is one state change pushed to the rendering collaborator.
type Update struct {
	Model    domain.RenderModel
	Terminal bool
	Reason   string
}

// Runner keeps one resolved login continuously validated. On every
// directory snapshot it re-checks, in order: session binding, ban status,
// then publishes the active profile. A foreign session id or a store
// failure ends the session; expiry of a ban flips kicked back to active on
// the next snapshot.
type Runner struct {
	store     *directory.Store
	toucher   Toucher
	sessionID uuid.UUID
	key       string
	interval  time.Duration
	log       *zap.SugaredLogger

	mu        sync.Mutex
	state     domain.SessionState
	identity  *domain.Identity
	heartbeat *Heartbeat
	unsub     directory.Unsubscribe
	updates   chan Update
	stopped   bool
	closed    bool
}

type RunnerConfig struct {
	Store             *directory.Store
	Toucher           Toucher
	SessionID         uuid.UUID
	Identity          *domain.Identity
	HeartbeatInterval time.Duration
	Logger            *zap.SugaredLogger
}

// NewRunner starts watching a freshly resolved identity. The initial
// record is evaluated immediately, so the first Update arrives without
// waiting for a store write.
func NewRunner(cfg RunnerConfig) *Runner {
	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = domain.HeartbeatInterval
	}

	r := &Runner{
		store:     cfg.Store,
		toucher:   cfg.Toucher,
		sessionID: cfg.SessionID,
		key:       cfg.Identity.Key,
		interval:  interval,
		log:       cfg.Logger,
		state:     domain.StateAuthenticating,
		updates:   make(chan Update, subscriberCapacity),
	}

	sub, unsub := r.store.SubscribeIdentity(r.key)
	r.unsub = unsub

	r.evaluate(cfg.Identity, time.Now())
	go r.watch(sub)

	return r
}

const subscriberCapacity = 16

// Updates is the stream the rendering collaborator consumes. It closes
// after a terminal update.
func (r *Runner) Updates() <-chan Update {
	return r.updates
}

// State returns the current session state.
func (r *Runner) State() domain.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Identity returns the most recent validated record.
func (r *Runner) Identity() *domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity
}

func (r *Runner) watch(sub <-chan *domain.Identity) {
	for identity := range sub {
		r.evaluate(identity, time.Now())
	}
}

// Sync re-reads the record and re-evaluates it. This is how a kicked
// session can discover ban expiry without waiting for a write.
func (r *Runner) Sync(ctx context.Context) {
	identity, err := r.store.GetIdentity(ctx, r.key)
	if err != nil {
		r.log.Errorw("session sync failed", "key", r.key, "error", err)
		r.terminate(ReasonStoreError)
		return
	}
	r.evaluate(identity, time.Now())
}

func (r *Runner) evaluate(identity *domain.Identity, now time.Time) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}

	if identity.SessionID != r.sessionID {
		r.mu.Unlock()
		r.log.Infow("session superseded", "key", r.key, "session", r.sessionID)
		r.terminate(ReasonSuperseded)
		return
	}

	prev := r.state
	next := domain.Transition(prev, domain.SessionEvent{
		Type:     domain.EventSnapshot,
		Identity: identity,
		Now:      now,
	})
	r.state = next
	r.identity = identity

	if next == domain.StateActive && prev != domain.StateActive {
		r.heartbeat = NewHeartbeat(r.toucher, r.key, r.interval, r.log)
		r.heartbeat.Start()
	}
	hb := r.heartbeat
	if next != domain.StateActive {
		r.heartbeat = nil
	}
	model := domain.Render(next, identity, identity.SymbolList())
	r.mu.Unlock()

	if next != domain.StateActive && hb != nil {
		hb.Stop()
	}

	if next != prev || next == domain.StateActive {
		r.push(Update{Model: model})
	}
}

func (r *Runner) push(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.updates <- u:
	default:
		// Consumer is behind; drop the oldest update in its favor.
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- u:
		default:
		}
	}
}

// Stop ends the session voluntarily.
func (r *Runner) Stop() {
	r.terminate(ReasonLogout)
}

func (r *Runner) terminate(reason string) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.state = domain.StateLoggedOut
	hb := r.heartbeat
	r.heartbeat = nil
	unsub := r.unsub
	r.mu.Unlock()

	if hb != nil {
		hb.Stop()
	}
	if unsub != nil {
		unsub()
	}

	r.push(Update{
		Model:    domain.Render(domain.StateLoggedOut, nil, nil),
		Terminal: true,
		Reason:   reason,
	})

	r.mu.Lock()
	r.closed = true
	close(r.updates)
	r.mu.Unlock()
}
