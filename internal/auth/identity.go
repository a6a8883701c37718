// Package auth defines the caller identity resolved from a session token.
// It carries no transport dependencies so domain code can consume it
// without pulling in the HTTP layer.
package auth

const (
	RoleBuyer = "buyer"
	RoleBrand = "brand"
	RoleAdmin = "admin"
)

// Identity is the caller resolved from the bearer session. BrandID is set
// only for brand-role callers.
type Identity struct {
	UserID  string
	Role    string
	BrandID string
}
