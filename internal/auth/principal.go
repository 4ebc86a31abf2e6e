package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Email       string
	Role        string
	Permissions []Permission
}

// Can reports whether the principal holds perm.
func (p Principal) Can(perm Permission) bool {
	if p.Role == AdminRole {
		return true
	}
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// UserIDFromContext returns the caller's user id, or nil outside a request.
func UserIDFromContext(ctx context.Context) *uuid.UUID {
	p, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}
