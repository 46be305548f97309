package history

import "context"

// Repository reads and archives settled transactions. Settlement is the only
// writer of transaction rows; history only flips the archive flag.
type Repository interface {
	// List returns non-archived transactions, newest first.
	List(ctx context.Context, limit int) ([]Transaction, error)
	// ListByMember returns a member's non-archived transactions, newest first.
	ListByMember(ctx context.Context, memberID string, limit int) ([]Transaction, error)
	// ArchiveAll marks every non-archived row archived and reports the count.
	ArchiveAll(ctx context.Context) (int64, error)
	// AllForExport returns rows for the CSV export, oldest first.
	AllForExport(ctx context.Context, includeArchived bool) ([]Transaction, error)
}
