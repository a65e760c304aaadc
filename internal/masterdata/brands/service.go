package brands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

var errDuplicateName = shared.Duplicate("name", "brand name must be unique (case-insensitive)")

type Service struct {
	repo       Repository
	invalidate mdshared.Invalidation
	now        func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithInvalidation sets the hook run after a brand delete cascades to its stock records.
func (s *Service) WithInvalidation(inv mdshared.Invalidation) *Service {
	s.invalidate = inv
	return s
}

// List returns the brands actor can see: every brand for system admins,
// the owning brand for everyone else.
func (s *Service) List(ctx context.Context, actor brandscope.Actor, filters mdshared.ListFilters) ([]Brand, int, error) {
	return s.repo.List(ctx, brandscope.Visible(actor), filters)
}

func (s *Service) Get(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (Brand, error) {
	if !brandscope.CanView(actor, id) {
		return Brand{}, shared.NotFound("id", "brand")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor brandscope.Actor, form BrandForm) (Brand, error) {
	if err := brandscope.CanManageBrands(actor).Err(); err != nil {
		return Brand{}, err
	}
	now := s.now()
	b := Brand{ID: uuid.New(), Name: form.Name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if form.IsActive != nil {
		b.IsActive = *form.IsActive
	}
	if err := s.validate(&b); err != nil {
		return Brand{}, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Brand{}, err
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, actor brandscope.Actor, id uuid.UUID, form BrandForm) (Brand, error) {
	if err := brandscope.CanManageBrands(actor).Err(); err != nil {
		return Brand{}, err
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return Brand{}, err
	}
	b.Name = form.Name
	if form.IsActive != nil {
		b.IsActive = *form.IsActive
	}
	if err := s.validate(&b); err != nil {
		return Brand{}, err
	}
	b.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, b); err != nil {
		return Brand{}, err
	}
	return b, nil
}

// Delete removes a brand together with everything it owns.
func (s *Service) Delete(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	if err := brandscope.CanManageBrands(actor).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate.Bump(ctx, id)
	return nil
}
