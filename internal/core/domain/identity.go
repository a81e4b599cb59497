package domain

// Identity is the authenticated actor of a request. It is passed explicitly to
// every core operation; nothing in the core reads it from ambient state.
type Identity struct {
	UserID      string
	Username    string
	Role        Role
	IsSuperuser bool
}

// Authenticated reports whether the identity was resolved to a user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Privileged is true for managers and superusers, who bypass assigned-contact checks.
func (i Identity) Privileged() bool {
	return i.IsSuperuser || i.Role == RoleManager
}

// Is reports whether the identity is the user referenced by ref.
func (i Identity) Is(ref *string) bool {
	return ref != nil && *ref != "" && *ref == i.UserID
}
