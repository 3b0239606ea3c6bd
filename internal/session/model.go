package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"padtracker-console/internal/common/models"
)

// Role is the closed set of console roles. Menu and permission decisions switch on it
// exhaustively instead of comparing free-form strings.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleNGO        Role = "ngo"
	RoleSPOC       Role = "spoc"
)

var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleNGO, RoleSPOC}

// ParseRole accepts the spellings the upstream API has been seen to use
// ("superAdmin", "super_admin", "SPOC", ...).
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	for _, r := range Roles {
		if string(r) == normalized {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleNGO:
		return "NGO"
	case RoleSPOC:
		return "SPOC"
	}
	panic(fmt.Sprintf("session: unhandled role %q", string(r)))
}

// Session mirrors what the browser used to keep in local storage
// (authToken, userRole, roleId, username, name), held server side.
type Session struct {
	ID        string    `json:"id" bson:"_id"`
	Token     string    `json:"-" bson:"token"`
	Role      Role      `json:"role" bson:"role"`
	RoleID    int       `json:"roleId" bson:"role_id"`
	Username  string    `json:"username" bson:"username"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, models.SessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(models.SessionKey).(*Session)
	return s, ok && s != nil
}

// TokenFromContext is the upstream.TokenSource backed by the session in ctx.
func TokenFromContext(ctx context.Context) (string, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return s.Token, s.Token != ""
}
