package categories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, actor brandscope.Actor, filters mdshared.ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, brandscope.Visible(actor), filters)
}

func (s *Service) Get(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if !brandscope.CanView(actor, c.BrandID) {
		return Category{}, shared.NotFound("id", "category")
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, actor brandscope.Actor, form CategoryForm) (Category, error) {
	brand := uuid.NullUUID{}
	if form.BrandID != nil {
		brand = uuid.NullUUID{UUID: *form.BrandID, Valid: true}
	}
	if err := brandscope.CanCreate(actor, brand).Err(); err != nil {
		return Category{}, err
	}
	if err := brandscope.CanEditCatalog(actor, brand.UUID).Err(); err != nil {
		return Category{}, err
	}
	now := s.now()
	c := Category{ID: uuid.New(), BrandID: brand.UUID, Name: form.Name, CreatedAt: now, UpdatedAt: now}
	if form.ParentID != nil {
		c.ParentID = uuid.NullUUID{UUID: *form.ParentID, Valid: true}
	}
	if err := s.validate(ctx, &c); err != nil {
		return Category{}, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Update renames or re-parents a category within its brand.
func (s *Service) Update(ctx context.Context, actor brandscope.Actor, id uuid.UUID, form CategoryForm) (Category, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return Category{}, err
	}
	if err := brandscope.CanEditCatalog(actor, c.BrandID).Err(); err != nil {
		return Category{}, err
	}
	if form.BrandID != nil && *form.BrandID != c.BrandID {
		return Category{}, shared.NewFieldError(shared.ErrValidation, "brand", shared.CodeInvalid, "a category cannot move to another brand")
	}
	c.Name = form.Name
	c.ParentID = uuid.NullUUID{}
	if form.ParentID != nil {
		c.ParentID = uuid.NullUUID{UUID: *form.ParentID, Valid: true}
	}
	if err := s.validate(ctx, &c); err != nil {
		return Category{}, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := brandscope.CanMutate(actor, c.BrandID, brandscope.ActionDelete).Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
