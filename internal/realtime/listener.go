package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PQSubscriber implements Subscriber over Postgres LISTEN/NOTIFY. Each
// Subscribe call opens its own pq.Listener, so the Manager's retry logic owns
// the reconnect policy end to end: connection trouble is surfaced as a closed
// event channel instead of being papered over inside lib/pq.
type PQSubscriber struct {
	dsn string
	log *zap.Logger
}

func NewPQSubscriber(dsn string, log *zap.Logger) *PQSubscriber {
	return &PQSubscriber{dsn: dsn, log: log}
}

func (s *PQSubscriber) Subscribe(ctx context.Context, name, channel string) (Subscription, error) {
	sub := &pqSubscription{
		events: make(chan Event),
		dead:   make(chan struct{}),
	}

	listener := pq.NewListener(s.dsn, time.Second, 10*time.Second,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
				s.log.Warn("pq listener connection problem",
					zap.String("subscription", name), zap.Error(err))
				sub.markDead()
			}
		})
	sub.listener = listener

	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	go sub.run()
	return sub, nil
}

type pqSubscription struct {
	listener *pq.Listener
	events   chan Event
	dead     chan struct{}
	once     sync.Once
}

func (s *pqSubscription) markDead() {
	s.once.Do(func() { close(s.dead) })
}

func (s *pqSubscription) run() {
	defer close(s.events)
	for {
		select {
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// lib/pq signals a re-established connection with a nil
				// notification; events may have been missed meanwhile, so
				// treat it as a loss and let the manager resubscribe
				return
			}
			select {
			case s.events <- Event{Channel: n.Channel, Payload: n.Extra}:
			case <-s.dead:
				return
			}
		case <-s.dead:
			return
		}
	}
}

func (s *pqSubscription) Events() <-chan Event { return s.events }

func (s *pqSubscription) Close() error {
	s.markDead()
	return s.listener.Close()
}
