// Package auth holds the trusted identity claims type, the pure
// permission evaluator, and JWT verification for the HTTP layer.
//
// Identity issuance is out of scope: tokens come from an external
// identity provider and by the time a Claims value exists the request is
// authenticated. Authorization (who may do what to which file) is the
// permission evaluator's job.
package auth

// Role is the coarse authorization role carried in identity claims.
type Role string

const (
	// RoleAdmin may perform any operation on any file.
	RoleAdmin Role = "admin"

	// RoleEditor may read and download files shared with them.
	RoleEditor Role = "editor"

	// RoleViewer may read and download files shared with them. The
	// default when the identity provider sends no role claim.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Claims is the trusted identity extracted from a verified token.
//
// Ownership is implicit: a user is the owner of a file when the file's
// OwnerID equals UserID, regardless of role.
type Claims struct {
	// UserID is the stable subject identifier ("sub").
	UserID string

	// Email is informational.
	Email string

	// Role is the coarse authorization role ("custom:role" claim,
	// defaulting to viewer).
	Role Role
}
