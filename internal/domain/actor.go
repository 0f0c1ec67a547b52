package domain

// Actor is the authenticated caller performing an operation.
type Actor struct {
	UserID     string
	Role       string
	LocationID string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanApprove reports whether the actor may approve or reject transfers.
func (a Actor) CanApprove() bool { return a.Role == RoleAdmin || a.Role == RoleManager }
