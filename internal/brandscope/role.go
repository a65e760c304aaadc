package brandscope

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

// Role is the closed set of actor roles.
type Role string

const (
	// RoleSystemAdmin can see and change every brand.
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	// RoleBrandManager has full control over one brand.
	RoleBrandManager Role = "BRAND_MANAGER"
	// RoleStoreManager can read and update within one brand.
	RoleStoreManager Role = "STORE_MANAGER"
	// RoleStaff is read-only within one brand.
	RoleStaff Role = "STAFF"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleSystemAdmin, RoleBrandManager, RoleStoreManager, RoleStaff}
}

// ParseRole converts a stored role string into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := capabilities[role]; !ok {
		return "", shared.NewFieldError(shared.ErrValidation, "role", shared.CodeInvalid, fmt.Sprintf("unknown role %q", raw))
	}
	return role, nil
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// DisplayName returns the human readable role label.
func (r Role) DisplayName() string {
	switch r {
	case RoleSystemAdmin:
		return "System Administrator"
	case RoleBrandManager:
		return "Brand Manager"
	case RoleStoreManager:
		return "Store Manager"
	case RoleStaff:
		return "Staff"
	default:
		return string(r)
	}
}

// IsManager reports whether the role manages a brand or store.
func (r Role) IsManager() bool {
	return r == RoleSystemAdmin || r == RoleBrandManager || r == RoleStoreManager
}

// Action is an HTTP-style operation class.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionForMethod maps an HTTP method onto an Action.
func ActionForMethod(method string) Action {
	switch strings.ToUpper(method) {
	case "POST":
		return ActionCreate
	case "PUT", "PATCH":
		return ActionUpdate
	case "DELETE":
		return ActionDelete
	default:
		return ActionRead
	}
}

type capability struct {
	actions     map[Action]bool
	allBrands   bool
	purgeLedger bool
	// catalog allows editing products and categories.
	catalog bool
}

func actions(list ...Action) map[Action]bool {
	set := make(map[Action]bool, len(list))
	for _, a := range list {
		set[a] = true
	}
	return set
}

// capabilities is the single role table consulted by every policy check.
var capabilities = map[Role]capability{
	RoleSystemAdmin: {
		actions:     actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
		allBrands:   true,
		purgeLedger: true,
		catalog:     true,
	},
	RoleBrandManager: {
		actions: actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
		catalog: true,
	},
	RoleStoreManager: {
		actions: actions(ActionRead, ActionUpdate),
	},
	RoleStaff: {
		actions: actions(ActionRead),
	},
}

// Allows reports whether the role table grants action to role.
func (r Role) Allows(action Action) bool {
	return capabilities[r].actions[action]
}
