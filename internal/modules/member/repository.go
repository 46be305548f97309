package member

import "context"

// Repository defines member data storage.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	GetByCardUID(ctx context.Context, uid string) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	SetActive(ctx context.Context, id string, active bool) error
	// BindCard persists uid on the member row. It must fail if the uid is
	// already bound to a different member; the uniqueness check happens in
	// the service so the conflict can be surfaced with the holder's name.
	BindCard(ctx context.Context, id string, uid string) error
	UnbindCard(ctx context.Context, id string) error
}
