package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Toucher refreshes the freshness timestamp of one identity.
type Toucher interface {
	Touch(ctx context.Context, key string) error
}

// Heartbeat refreshes LastSeenAt once immediately and then on a fixed
// cadence until stopped. A failed touch is logged and swallowed; the next
// tick self-heals. One Heartbeat covers one stay in the active state and
// is not restartable.
type Heartbeat struct {
	toucher  Toucher
	key      string
	interval time.Duration
	log      *zap.SugaredLogger

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewHeartbeat(toucher Toucher, key string, interval time.Duration, log *zap.SugaredLogger) *Heartbeat {
	return &Heartbeat{
		toucher:  toucher,
		key:      key,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (h *Heartbeat) Start() {
	h.started = true
	go h.run()
}

func (h *Heartbeat) run() {
	defer close(h.done)

	h.touch()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.touch()
		}
	}
}

func (h *Heartbeat) touch() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.toucher.Touch(ctx, h.key); err != nil {
		h.log.Warnw("heartbeat touch failed", "key", h.key, "error", err)
	}
}

// Stop ends the heartbeat. No touch fires after Stop returns.
func (h *Heartbeat) Stop() {
	if !h.started {
		return
	}
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}
