package history

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one settled cart line, denormalized at settlement time so
// history survives member and product edits.
type Transaction struct {
	ID              uuid.UUID `db:"id" json:"id"`
	BatchID         string    `db:"batch_id" json:"batch_id"`
	MemberID        uuid.UUID `db:"member_id" json:"member_id"`
	ProductID       uuid.UUID `db:"product_id" json:"product_id"`
	MemberName      string    `db:"member_name" json:"member_name"`
	MemberGrade     string    `db:"member_grade" json:"member_grade"`
	ProductName     string    `db:"product_name" json:"product_name"`
	ProductCategory string    `db:"product_category" json:"product_category"`
	Quantity        int       `db:"quantity" json:"quantity"`
	UnitPrice       int64     `db:"unit_price" json:"unit_price"`
	Total           int64     `db:"total" json:"total"`
	IsArchived      bool      `db:"is_archived" json:"is_archived"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ExportOptions controls the CSV export.
type ExportOptions struct {
	// IncludeArchived also exports rows from closed periods.
	IncludeArchived bool
	// ShiftJIS transcodes the output so it opens cleanly in Japanese Excel.
	ShiftJIS bool
}

// ArchiveResult reports how many rows a period close put away.
type ArchiveResult struct {
	Archived int64 `json:"archived"`
}
