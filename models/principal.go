package models

// Principal is the authenticated actor behind a request.
type Principal struct {
	UserID uint
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is the owner of b.
func (p Principal) Owns(b *Booking) bool {
	return p.UserID != 0 && b.UserID == p.UserID
}
