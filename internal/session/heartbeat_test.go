package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mlhuang/critterchat/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingToucher counts touches for one key.
type recordingToucher struct {
	mu      sync.Mutex
	touches []string
	err     error
}

func (r *recordingToucher) Touch(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touches = append(r.touches, key)
	return r.err
}

func (r *recordingToucher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.touches)
}

func TestHeartbeatTouchesImmediately(t *testing.T) {
	toucher := &recordingToucher{}
	hb := session.NewHeartbeat(toucher, "🐶🐱🦊", time.Hour, zap.NewNop().Sugar())

	hb.Start()
	defer hb.Stop()

	require.Eventually(t, func() bool {
		return toucher.count() == 1
	}, time.Second, 10*time.Millisecond, "first touch should fire without waiting for the interval")
}

func TestHeartbeatTicks(t *testing.T) {
	toucher := &recordingToucher{}
	hb := session.NewHeartbeat(toucher, "🐶🐱🦊", 20*time.Millisecond, zap.NewNop().Sugar())

	hb.Start()
	defer hb.Stop()

	require.Eventually(t, func() bool {
		return toucher.count() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestHeartbeatStop(t *testing.T) {
	toucher := &recordingToucher{}
	hb := session.NewHeartbeat(toucher, "🐶🐱🦊", 10*time.Millisecond, zap.NewNop().Sugar())

	hb.Start()
	require.Eventually(t, func() bool {
		return toucher.count() >= 1
	}, time.Second, time.Millisecond)

	hb.Stop()
	after := toucher.count()

	// No touch fires once Stop has returned.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, toucher.count())

	// Stop is idempotent.
	hb.Stop()
}

func TestHeartbeatStopWithoutStart(t *testing.T) {
	toucher := &recordingToucher{}
	hb := session.NewHeartbeat(toucher, "🐶🐱🦊", time.Minute, zap.NewNop().Sugar())

	// Must not block waiting for a goroutine that never ran.
	done := make(chan struct{})
	go func() {
		hb.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a prior Start")
	}
	assert.Equal(t, 0, toucher.count())
}

func TestHeartbeatSwallowsTouchErrors(t *testing.T) {
	toucher := &recordingToucher{err: context.DeadlineExceeded}
	hb := session.NewHeartbeat(toucher, "🐶🐱🦊", 10*time.Millisecond, zap.NewNop().Sugar())

	hb.Start()
	defer hb.Stop()

	// Failures do not kill the loop; later ticks keep touching.
	require.Eventually(t, func() bool {
		return toucher.count() >= 3
	}, time.Second, time.Millisecond)
}
