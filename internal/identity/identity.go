package identity

import "context"

// Role is the caller's resolved role. Resolution happens upstream; the engine
// trusts it and only checks ownership and privilege.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Caller is the identity collaborator's view of the current request.
type Caller struct {
	UserID      int64
	Role        Role
	SchoolID    int64
	ClassIDs    []int64
	DisplayName string
	ExternalID  string
}

// Privileged reports whether the caller holds a staff role.
func (c Caller) Privileged() bool {
	switch c.Role {
	case RoleTeacher, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Admin reports whether the caller holds the admin role.
func (c Caller) Admin() bool {
	return c.Role == RoleAdmin
}

type ctxKey struct{}

// NewContext returns a context carrying the caller.
func NewContext(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller from the context, if any.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
