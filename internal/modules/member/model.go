package member

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member represents a lab member who can buy from the store.
// Members are deactivated rather than deleted so the transaction history
// keeps valid references.
type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"` // cohort label, e.g. D3, M1, B4
	CardUID   *string   `json:"card_uid,omitempty"`
	IsActive  bool      `json:"is_active"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound is returned when a member lookup fails.
var ErrNotFound = errors.New("member not found")

// ErrNoCardScanned is returned when an awaiting-scan registration is cancelled
// before a card is presented.
var ErrNoCardScanned = errors.New("registration cancelled before a card was scanned")

// DuplicateCardBindingError is returned when a card UID is already bound to a
// different member. Bindings are never silently overwritten.
type DuplicateCardBindingError struct {
	UID        string
	HolderID   uuid.UUID
	HolderName string
}

func (e *DuplicateCardBindingError) Error() string {
	return fmt.Sprintf("card %s is already registered to %s", e.UID, e.HolderName)
}

// CreateMemberRequest is the payload for registering a member.
type CreateMemberRequest struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// BindCardRequest is the payload for binding a card UID to a member.
type BindCardRequest struct {
	UID string `json:"uid"`
}
