package inventory

import "context"

// Repository is the admin-override stock writer. Settlement decrements stock
// inside its own transaction; every other stock change goes through here and
// leaves a product log behind.
type Repository interface {
	// Adjust applies a signed delta to a simple product's stock and appends
	// the log row in one transaction. Returns the resulting stock.
	Adjust(ctx context.Context, productID string, delta int, action LogAction, note string) (*AdjustResult, error)
	// SetStock sets a simple product's stock to an absolute count and logs
	// the implied delta, atomically.
	SetStock(ctx context.Context, productID string, stock int, note string) (*AdjustResult, error)
	// ListLogs returns product logs, newest first. An empty productID
	// returns logs for all products.
	ListLogs(ctx context.Context, productID string, limit int) ([]*ProductLog, error)
}
