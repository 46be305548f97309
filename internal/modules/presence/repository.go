package presence

import "context"

// Repository defines session-state storage. Writes fan out to subscribers
// through the kiosk_status notification channel.
type Repository interface {
	Get(ctx context.Context, kioskID string) (*KioskStatus, error)
	// SetCard records the card currently presented at the kiosk; nil clears it.
	SetCard(ctx context.Context, kioskID string, uid *string) error
}
