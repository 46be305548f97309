package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/internal/modules/member"
	"github.com/oshimalab/foodstore-backend/internal/realtime"
)

// Watcher drives the presence state machine for one kiosk:
//
//	Idle → (card matched) → ActiveSession(member) → (card removed or a
//	different card resolves) → Idle
//
// It holds exactly one live subscription to the session-state feed; loss and
// recovery are the realtime manager's job. Ending the session on removal is a
// safety property: whoever's card was active, lifting any card returns the
// kiosk to Idle so the next person can never continue a stranger's cart.
type Watcher struct {
	kioskID string
	members member.Repository
	mgr     *realtime.Manager
	log     *zap.Logger

	mu      sync.Mutex
	session Session
	waiters []chan string
}

// NewWatcher creates the watcher for kioskID over the given feed subscriber.
func NewWatcher(kioskID string, members member.Repository, sub realtime.Subscriber, backoff time.Duration, log *zap.Logger) *Watcher {
	w := &Watcher{
		kioskID: kioskID,
		members: members,
		log:     log,
		session: Session{State: StateIdle},
	}
	w.mgr = realtime.NewManager(sub, Channel, w.onEvent, backoff, log)
	return w
}

// Start begins watching the session-state feed.
func (w *Watcher) Start() { w.mgr.Start() }

// Teardown cancels the subscription (and any pending reconnect) with no side
// effects on stored state.
func (w *Watcher) Teardown() { w.mgr.Teardown() }

// Kick forces an immediate resubscribe attempt, used when the kiosk UI
// regains visibility after being backgrounded.
func (w *Watcher) Kick() { w.mgr.Kick() }

// Session returns the current session snapshot.
func (w *Watcher) Session() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// AwaitNextCard blocks until the next card is presented at this kiosk and
// returns its UID, resolved or not — registration needs exactly the raw next
// scan. Cancelling ctx abandons the wait with no side effects.
func (w *Watcher) AwaitNextCard(ctx context.Context) (string, error) {
	ch := make(chan string, 1)
	w.mu.Lock()
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		for i, c := range w.waiters {
			if c == ch {
				w.waiters = append(w.waiters[:i], w.waiters[i+1:]...)
				break
			}
		}
		w.mu.Unlock()
	}()

	select {
	case uid := <-ch:
		return uid, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *Watcher) onEvent(ev realtime.Event) {
	var st statusEvent
	if err := json.Unmarshal([]byte(ev.Payload), &st); err != nil {
		w.log.Warn("presence: bad status payload", zap.Error(err))
		return
	}
	if st.KioskID != w.kioskID {
		return
	}

	if st.CurrentUID == nil {
		w.onCardRemoved()
		return
	}
	w.onCardPresented(*st.CurrentUID)
}

func (w *Watcher) onCardPresented(uid string) {
	// deliver the raw scan to registration waiters first
	w.mu.Lock()
	for _, ch := range w.waiters {
		select {
		case ch <- uid:
		default:
		}
	}
	already := w.session.State == StateActive && w.session.CardUID == uid
	w.mu.Unlock()
	if already {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := w.members.GetByCardUID(ctx, uid)
	switch {
	case errors.Is(err, member.ErrNotFound):
		w.log.Info("presence: unknown card ignored", zap.String("uid", uid))
		w.endIfActive("unknown card presented")
		return
	case err != nil:
		w.log.Warn("presence: member lookup failed", zap.Error(err))
		return
	case !m.IsActive:
		w.log.Info("presence: inactive member's card ignored",
			zap.String("uid", uid), zap.String("member_id", m.ID.String()))
		w.endIfActive("inactive member's card presented")
		return
	}

	w.mu.Lock()
	w.session = Session{
		State:       StateActive,
		MemberID:    m.ID,
		MemberName:  m.Name,
		MemberGrade: m.Grade,
		CardUID:     uid,
		StartedAt:   time.Now(),
	}
	w.mu.Unlock()
	w.log.Info("presence: session started",
		zap.String("member_id", m.ID.String()), zap.String("name", m.Name))
}

func (w *Watcher) onCardRemoved() {
	w.endIfActive("card removed")
}

// endIfActive unconditionally returns the kiosk to Idle if a session is
// active, regardless of whose session it was.
func (w *Watcher) endIfActive(reason string) {
	w.mu.Lock()
	wasActive := w.session.State == StateActive
	memberID := w.session.MemberID
	w.session = Session{State: StateIdle}
	w.mu.Unlock()
	if wasActive {
		w.log.Info("presence: session ended",
			zap.String("member_id", memberID.String()), zap.String("reason", reason))
	}
}
