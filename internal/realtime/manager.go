// Package realtime provides the reconnection manager shared by every realtime
// listener: it owns exactly one live subscription, re-establishes it after a
// fixed backoff on failure, and guarantees teardown leaves no orphaned timer
// or duplicate subscription behind.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/pkg/ids"
)

// Event is one change notification from a channel.
type Event struct {
	Channel string
	Payload string
}

// Subscription is a live feed of events. The Events channel closes when the
// subscription dies, whether from an error or from Close.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Subscriber establishes subscriptions. name is unique per attempt so a
// backend can never confuse a reconnect with a stale handle.
type Subscriber interface {
	Subscribe(ctx context.Context, name, channel string) (Subscription, error)
}

// Manager keeps one subscription to one channel alive. On loss it schedules
// exactly one re-subscribe after the configured backoff, cancelling any retry
// already pending. Retries continue until Teardown.
type Manager struct {
	sub     Subscriber
	channel string
	handle  func(Event)
	backoff time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	current Subscription
	retry   *time.Timer
	down    bool
}

// NewManager creates a manager for channel; handle is invoked for every event.
func NewManager(sub Subscriber, channel string, handle func(Event), backoff time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		sub:     sub,
		channel: channel,
		handle:  handle,
		backoff: backoff,
		log:     log,
	}
}

// Start attempts the initial subscribe. A failed first attempt is not an
// error; the retry loop takes over.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeLocked()
}

// Teardown synchronously cancels the live subscription and any pending retry.
// Safe to call more than once. After Teardown the manager never subscribes
// again; a dead session cannot be resurrected by a late timer.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = true
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}

// Kick forces a fresh subscription now, e.g. after the surrounding UI regains
// visibility. A healthy live subscription is left alone.
func (m *Manager) Kick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down || m.current != nil {
		return
	}
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.subscribeLocked()
}

func (m *Manager) subscribeLocked() {
	if m.down {
		return
	}
	// unique per attempt so reconnects never reuse a handle
	name := fmt.Sprintf("%s-%s", m.channel, ids.NewKSUID())
	sub, err := m.sub.Subscribe(context.Background(), name, m.channel)
	if err != nil {
		m.log.Warn("realtime: subscribe failed",
			zap.String("channel", m.channel), zap.Error(err))
		m.scheduleRetryLocked()
		return
	}
	m.current = sub
	m.log.Debug("realtime: subscribed",
		zap.String("channel", m.channel), zap.String("name", name))
	go m.pump(sub)
}

// pump forwards events until the subscription's channel closes, then hands
// control back to the retry logic.
func (m *Manager) pump(sub Subscription) {
	for ev := range sub.Events() {
		m.handle(ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down || m.current != sub {
		return
	}
	m.current = nil
	m.log.Warn("realtime: subscription lost", zap.String("channel", m.channel))
	m.scheduleRetryLocked()
}

func (m *Manager) scheduleRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
	}
	m.retry = time.AfterFunc(m.backoff, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.retry = nil
		if m.down || m.current != nil {
			return
		}
		m.subscribeLocked()
	})
}
