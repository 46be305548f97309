package presence

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the kiosk's position in the presence state machine.
// There are exactly two states: Idle and ActiveSession.
type SessionState string

const (
	StateIdle   SessionState = "IDLE"
	StateActive SessionState = "ACTIVE_SESSION"
)

// Session is the kiosk's current checkout session, bound to the member whose
// card is physically on the reader.
type Session struct {
	State       SessionState `json:"state"`
	MemberID    uuid.UUID    `json:"member_id,omitempty"`
	MemberName  string       `json:"member_name,omitempty"`
	MemberGrade string       `json:"member_grade,omitempty"`
	CardUID     string       `json:"card_uid,omitempty"`
	StartedAt   time.Time    `json:"started_at,omitempty"`
}

// KioskStatus is the shared session-state row: the card currently presented
// at a kiosk, or nothing.
type KioskStatus struct {
	KioskID    string    `json:"kiosk_id"`
	CurrentUID *string   `json:"current_uid"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// statusEvent is the pg_notify payload emitted by the kiosk_status trigger.
type statusEvent struct {
	KioskID    string  `json:"kiosk_id"`
	CurrentUID *string `json:"current_uid"`
}

// Channel is the notification channel carrying kiosk_status changes.
const Channel = "kiosk_status"

// SetCardRequest is the bridge-integration payload. A null uid means the
// card was removed.
type SetCardRequest struct {
	UID *string `json:"uid"`
}
