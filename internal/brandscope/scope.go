// Package brandscope decides which brand data an actor may see or change.
package brandscope

import (
	"context"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

// Actor is the authenticated principal supplied by the session layer.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Brand uuid.NullUUID
}

// IsSystemAdmin reports whether the actor bypasses brand isolation.
func (a Actor) IsSystemAdmin() bool {
	return capabilities[a.Role].allBrands
}

// OwnsBrand reports whether brandID is the actor's owning brand.
func (a Actor) OwnsBrand(brandID uuid.UUID) bool {
	return a.Brand.Valid && a.Brand.UUID == brandID
}

// DenialReason names why a decision was negative.
type DenialReason string

const (
	ReasonNone           DenialReason = ""
	ReasonUnknownRole    DenialReason = "unknown_role"
	ReasonNoBrand        DenialReason = "actor_without_brand"
	ReasonOtherBrand     DenialReason = "other_brand"
	ReasonActionDenied   DenialReason = "action_not_permitted"
	ReasonPayloadBrand   DenialReason = "payload_brand_mismatch"
	ReasonMissingPayload DenialReason = "payload_brand_missing"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason DenialReason) Decision { return Decision{Reason: reason} }

// Err converts a denial into a PermissionDenied field error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return shared.NewFieldError(shared.ErrPermissionDenied, "", shared.CodePermissionDenied, "permission denied: "+string(d.Reason))
}

// CanView reports whether actor may read data owned by brandID.
func CanView(actor Actor, brandID uuid.UUID) bool {
	return viewDecision(actor, brandID).Allowed
}

func viewDecision(actor Actor, brandID uuid.UUID) Decision {
	if !actor.Role.Valid() {
		return deny(ReasonUnknownRole)
	}
	if actor.IsSystemAdmin() {
		return allow()
	}
	if !actor.Brand.Valid {
		return deny(ReasonNoBrand)
	}
	if actor.Brand.UUID != brandID {
		return deny(ReasonOtherBrand)
	}
	return allow()
}

// CanMutate decides whether actor may perform action on data owned by brandID.
func CanMutate(actor Actor, brandID uuid.UUID, action Action) Decision {
	if d := viewDecision(actor, brandID); !d.Allowed {
		return d
	}
	if !actor.Role.Allows(action) {
		return deny(ReasonActionDenied)
	}
	return allow()
}

// CanCreate decides creation rights for a payload targeting payloadBrand.
// The payload brand must be explicit and, for non-admins, equal the actor's brand.
func CanCreate(actor Actor, payloadBrand uuid.NullUUID) Decision {
	if !actor.Role.Valid() {
		return deny(ReasonUnknownRole)
	}
	if !actor.Role.Allows(ActionCreate) {
		return deny(ReasonActionDenied)
	}
	if !payloadBrand.Valid {
		return deny(ReasonMissingPayload)
	}
	if actor.IsSystemAdmin() {
		return allow()
	}
	if !actor.Brand.Valid {
		return deny(ReasonNoBrand)
	}
	if actor.Brand.UUID != payloadBrand.UUID {
		return deny(ReasonPayloadBrand)
	}
	return allow()
}

// CanPurgeLedger reports whether actor may delete ledger entries.
func CanPurgeLedger(actor Actor) Decision {
	if capabilities[actor.Role].purgeLedger {
		return allow()
	}
	return deny(ReasonActionDenied)
}

// CanEditCatalog decides whether actor may change products or categories of
// brandID. Store managers may update stores and stock but not the catalog.
func CanEditCatalog(actor Actor, brandID uuid.UUID) Decision {
	if d := viewDecision(actor, brandID); !d.Allowed {
		return d
	}
	if !capabilities[actor.Role].catalog {
		return deny(ReasonActionDenied)
	}
	return allow()
}

// CanManageBrands reports whether actor may create, change or delete brands.
func CanManageBrands(actor Actor) Decision {
	if actor.IsSystemAdmin() {
		return allow()
	}
	return deny(ReasonActionDenied)
}

// Visibility is the brand filter a repository must apply to list queries.
type Visibility struct {
	All   bool
	Brand uuid.UUID
	None  bool
}

// Visible computes the list filter for actor.
func Visible(actor Actor) Visibility {
	switch {
	case !actor.Role.Valid():
		return Visibility{None: true}
	case actor.IsSystemAdmin():
		return Visibility{All: true}
	case !actor.Brand.Valid:
		return Visibility{None: true}
	default:
		return Visibility{Brand: actor.Brand.UUID}
	}
}

// Includes reports whether brandID passes the filter.
func (v Visibility) Includes(brandID uuid.UUID) bool {
	if v.None {
		return false
	}
	return v.All || v.Brand == brandID
}

// BrandParam returns the brand predicate value for SQL, nil when unrestricted.
func (v Visibility) BrandParam() any {
	if v.All {
		return nil
	}
	return v.Brand
}

type actorContextKey struct{}

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
