package users

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindActive(ctx context.Context, id uuid.UUID) (User, error)
	FindAny(ctx context.Context, id uuid.UUID) (User, error)
	ListActive(ctx context.Context, vis brandscope.Visibility) ([]User, error)
	Insert(ctx context.Context, u User) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

var errAdminOnly = shared.NewFieldError(shared.ErrPermissionDenied, "role", shared.CodePermissionDenied,
	"only system admins manage system admin accounts")

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ActorFor resolves the principal behind a session user id.
func (s *Service) ActorFor(ctx context.Context, id uuid.UUID) (brandscope.Actor, error) {
	u, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return brandscope.Actor{}, err
	}
	return u.Actor(), nil
}

// ListUsers returns users visible to actor.
func (s *Service) ListUsers(ctx context.Context, actor brandscope.Actor) ([]User, error) {
	return s.repo.ListActive(ctx, brandscope.Visible(actor))
}

// GetUser returns a user visible to actor, including deleted ones.
func (s *Service) GetUser(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (User, error) {
	u, err := s.repo.FindAny(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !actor.IsSystemAdmin() && (!u.BrandID.Valid || !brandscope.CanView(actor, u.BrandID.UUID)) {
		return User{}, shared.NotFound("id", "user")
	}
	return u, nil
}

// CreateUser registers an account. Only system admins exist without a brand,
// and only system admins may create them.
func (s *Service) CreateUser(ctx context.Context, actor brandscope.Actor, in CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return User{}, shared.Required("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, shared.NewFieldError(shared.ErrValidation, "email", shared.CodeInvalid, "email is not valid")
	}
	if !in.Role.Valid() {
		return User{}, shared.NewFieldError(shared.ErrValidation, "role", shared.CodeInvalid, "unknown role")
	}
	if in.Role == brandscope.RoleSystemAdmin {
		if in.BrandID.Valid {
			return User{}, shared.NewFieldError(shared.ErrValidation, "brand_id", shared.CodeInvalid, "system admins have no brand")
		}
		if !actor.IsSystemAdmin() {
			return User{}, errAdminOnly
		}
	} else {
		if !in.BrandID.Valid {
			return User{}, shared.Required("brand_id")
		}
		if err := brandscope.CanCreate(actor, in.BrandID).Err(); err != nil {
			return User{}, err
		}
	}
	now := s.now()
	u := User{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Role:      in.Role,
		BrandID:   in.BrandID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// DeleteUser soft-deletes an account in the actor's brand.
func (s *Service) DeleteUser(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	u, err := s.GetUser(ctx, actor, id)
	if err != nil {
		return err
	}
	if u.DeletedAt != nil {
		return shared.NotFound("id", "user")
	}
	if u.Role == brandscope.RoleSystemAdmin {
		if !actor.IsSystemAdmin() {
			return errAdminOnly
		}
	} else if err := brandscope.CanMutate(actor, u.BrandID.UUID, brandscope.ActionDelete).Err(); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}
