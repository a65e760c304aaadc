package products

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/masterdata/categories"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// CategoryReader resolves categories referenced by products.
type CategoryReader interface {
	Get(ctx context.Context, id uuid.UUID) (categories.Category, error)
}

type Service struct {
	repo       Repository
	categories CategoryReader
	invalidate mdshared.Invalidation
	now        func() time.Time
}

func NewService(repo Repository, categories CategoryReader) *Service {
	return &Service{repo: repo, categories: categories, now: func() time.Time { return time.Now().UTC() }}
}

// WithInvalidation sets the hook run after a delete drops the product's stock records.
func (s *Service) WithInvalidation(inv mdshared.Invalidation) *Service {
	s.invalidate = inv
	return s
}

func (s *Service) List(ctx context.Context, actor brandscope.Actor, filters mdshared.ListFilters, includeInactive bool) ([]Product, int, error) {
	vis := brandscope.Visible(actor)
	if includeInactive {
		return s.repo.ListAll(ctx, vis, filters)
	}
	return s.repo.ListActive(ctx, vis, filters)
}

func (s *Service) Get(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !brandscope.CanView(actor, p.BrandID) {
		return Product{}, shared.NotFound("id", "product")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor brandscope.Actor, form ProductForm) (Product, error) {
	brand := uuid.NullUUID{}
	if form.BrandID != nil {
		brand = uuid.NullUUID{UUID: *form.BrandID, Valid: true}
	}
	if err := brandscope.CanCreate(actor, brand).Err(); err != nil {
		return Product{}, err
	}
	if err := brandscope.CanEditCatalog(actor, brand.UUID).Err(); err != nil {
		return Product{}, err
	}
	now := s.now()
	p := Product{ID: uuid.New(), BrandID: brand.UUID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&p, form)
	if err := s.validate(ctx, &p); err != nil {
		return Product{}, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor brandscope.Actor, id uuid.UUID, form ProductForm) (Product, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return Product{}, err
	}
	if err := brandscope.CanEditCatalog(actor, p.BrandID).Err(); err != nil {
		return Product{}, err
	}
	if form.BrandID != nil && *form.BrandID != p.BrandID {
		return Product{}, shared.NewFieldError(shared.ErrValidation, "brand", shared.CodeInvalid, "a product cannot move to another brand")
	}
	apply(&p, form)
	if err := s.validate(ctx, &p); err != nil {
		return Product{}, err
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := brandscope.CanMutate(actor, p.BrandID, brandscope.ActionDelete).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate.Bump(ctx, p.BrandID)
	return nil
}

func apply(p *Product, form ProductForm) {
	p.SKU = form.SKU
	p.Name = form.Name
	p.CategoryID = uuid.NullUUID{}
	if form.CategoryID != nil {
		p.CategoryID = uuid.NullUUID{UUID: *form.CategoryID, Valid: true}
	}
	if form.IsActive != nil {
		p.IsActive = *form.IsActive
	}
}
