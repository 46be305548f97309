package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardWaiter delivers the next card UID presented at the kiosk. Implemented by
// the presence watcher.
type CardWaiter interface {
	AwaitNextCard(ctx context.Context) (string, error)
}

// Service defines member business logic.
type Service interface {
	CreateMember(ctx context.Context, req CreateMemberRequest) (*Member, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context) ([]*Member, error)
	DeactivateMember(ctx context.Context, id string) error
	ReactivateMember(ctx context.Context, id string) error

	// BindCard binds a card UID to a member. Returns
	// *DuplicateCardBindingError if the UID belongs to someone else.
	BindCard(ctx context.Context, memberID, uid string) error
	UnbindCard(ctx context.Context, memberID string) error

	// RegisterCardFromScan blocks until the next card is presented at the
	// kiosk and binds it to the member. Cancelling ctx is the manual cancel:
	// the wait is torn down with no side effects.
	RegisterCardFromScan(ctx context.Context, memberID string) (string, error)
}

type service struct {
	repo   Repository
	waiter CardWaiter
	log    *zap.Logger
}

// NewService creates a new member service. waiter may be nil when the kiosk
// has no card reader attached.
func NewService(repo Repository, waiter CardWaiter, log *zap.Logger) Service {
	return &service{repo: repo, waiter: waiter, log: log}
}

func (s *service) CreateMember(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	m := &Member{
		ID:       uuid.New(),
		Name:     req.Name,
		Grade:    req.Grade,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info("member created", zap.String("member_id", m.ID.String()), zap.String("name", m.Name))
	return m, nil
}

func (s *service) GetMember(ctx context.Context, id string) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListMembers(ctx context.Context) ([]*Member, error) {
	return s.repo.List(ctx)
}

func (s *service) DeactivateMember(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *service) ReactivateMember(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, true)
}

func (s *service) BindCard(ctx context.Context, memberID, uid string) error {
	if uid == "" {
		return fmt.Errorf("uid is required")
	}
	holder, err := s.repo.GetByCardUID(ctx, uid)
	switch {
	case err == nil && holder.ID.String() != memberID:
		return &DuplicateCardBindingError{UID: uid, HolderID: holder.ID, HolderName: holder.Name}
	case err == nil:
		// rebinding the member's own card is a no-op
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if err := s.repo.BindCard(ctx, memberID, uid); err != nil {
		return err
	}
	s.log.Info("card bound", zap.String("member_id", memberID), zap.String("uid", uid))
	return nil
}

func (s *service) UnbindCard(ctx context.Context, memberID string) error {
	return s.repo.UnbindCard(ctx, memberID)
}

func (s *service) RegisterCardFromScan(ctx context.Context, memberID string) (string, error) {
	if s.waiter == nil {
		return "", fmt.Errorf("no card reader configured")
	}
	if _, err := s.repo.GetByID(ctx, memberID); err != nil {
		return "", err
	}
	uid, err := s.waiter.AwaitNextCard(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", ErrNoCardScanned
		}
		return "", err
	}
	if err := s.BindCard(ctx, memberID, uid); err != nil {
		return "", err
	}
	return uid, nil
}
