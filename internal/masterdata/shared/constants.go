package shared

// List paging bounds shared by every master data listing.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
)

// SortDesc selects descending order; anything else sorts ascending.
const SortDesc = "desc"
