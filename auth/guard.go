package auth

import "github.com/cppla/postapi/models"

// Authorize reports whether the identity may mutate a resource owned by
// resourceOwnerID. Admins may mutate anything; everyone else only what they own.
// It must be evaluated on every mutation attempt, never cached.
func Authorize(claim Identity, resourceOwnerID uint) bool {
	return claim.Role == models.RoleAdmin || claim.SubjectID == resourceOwnerID
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}
