package stores

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

type Service struct {
	repo       Repository
	invalidate mdshared.Invalidation
	now        func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithInvalidation sets the hook run after a delete drops the store's stock records.
func (s *Service) WithInvalidation(inv mdshared.Invalidation) *Service {
	s.invalidate = inv
	return s
}

// List returns visible stores. Inactive stores are included only when asked for.
func (s *Service) List(ctx context.Context, actor brandscope.Actor, filters mdshared.ListFilters, includeInactive bool) ([]Store, int, error) {
	vis := brandscope.Visible(actor)
	if includeInactive {
		return s.repo.ListAll(ctx, vis, filters)
	}
	return s.repo.ListActive(ctx, vis, filters)
}

func (s *Service) Get(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (Store, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Store{}, err
	}
	if !brandscope.CanView(actor, st.BrandID) {
		return Store{}, shared.NotFound("id", "store")
	}
	return st, nil
}

func (s *Service) Create(ctx context.Context, actor brandscope.Actor, form StoreForm) (Store, error) {
	brand := uuid.NullUUID{}
	if form.BrandID != nil {
		brand = uuid.NullUUID{UUID: *form.BrandID, Valid: true}
	}
	if err := brandscope.CanCreate(actor, brand).Err(); err != nil {
		return Store{}, err
	}
	now := s.now()
	st := Store{ID: uuid.New(), BrandID: brand.UUID, Name: form.Name, Code: form.Code, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if form.IsActive != nil {
		st.IsActive = *form.IsActive
	}
	if err := s.validate(&st); err != nil {
		return Store{}, err
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return Store{}, err
	}
	return st, nil
}

// Update edits a store. The owning brand never changes.
func (s *Service) Update(ctx context.Context, actor brandscope.Actor, id uuid.UUID, form StoreForm) (Store, error) {
	st, err := s.Get(ctx, actor, id)
	if err != nil {
		return Store{}, err
	}
	if err := brandscope.CanMutate(actor, st.BrandID, brandscope.ActionUpdate).Err(); err != nil {
		return Store{}, err
	}
	if form.BrandID != nil && *form.BrandID != st.BrandID {
		return Store{}, shared.NewFieldError(shared.ErrValidation, "brand", shared.CodeInvalid, "a store cannot move to another brand")
	}
	st.Name = form.Name
	st.Code = form.Code
	if form.IsActive != nil {
		st.IsActive = *form.IsActive
	}
	if err := s.validate(&st); err != nil {
		return Store{}, err
	}
	st.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, st); err != nil {
		return Store{}, err
	}
	return st, nil
}

// Delete removes a store and, by cascade, its inventory records.
func (s *Service) Delete(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	st, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := brandscope.CanMutate(actor, st.BrandID, brandscope.ActionDelete).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate.Bump(ctx, st.BrandID)
	return nil
}
