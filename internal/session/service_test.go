package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"padtracker-console/internal/config"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, upstreamHandler http.HandlerFunc) (*ServiceImpl, *MemoryStore, *store.Registry) {
	t.Helper()
	srv := httptest.NewServer(upstreamHandler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{JWTSecret: "test-secret", SessionTTL: time.Hour, UpstreamURL: srv.URL, UpstreamTimeout: 5 * time.Second}
	st := NewMemoryStore()
	workspaces := store.NewRegistry()
	client := upstream.NewClient(cfg, zap.NewNop(), TokenFromContext)
	svc := NewService(st, workspaces, client, cfg, zap.NewNop()).(*ServiceImpl)
	return svc, st, workspaces
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(`{"valid":true}`))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"superadmin", RoleSuperAdmin},
		{"superAdmin", RoleSuperAdmin},
		{"super_admin", RoleSuperAdmin},
		{"Admin", RoleAdmin},
		{"NGO", RoleNGO},
		{" spoc ", RoleSPOC},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRole("guest")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Super Admin", RoleSuperAdmin.Label())
	assert.Equal(t, "SPOC", RoleSPOC.Label())
	assert.Panics(t, func() { _ = Role("guest").Label() })
}

func TestCreateAndResolve(t *testing.T) {
	svc, _, _ := newTestService(t, okUpstream)
	ctx := context.Background()

	sess, token, err := svc.Create(ctx, Profile{Token: "upstream-tok", Role: "ngo", RoleID: 3, Username: "9876543210", Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, RoleNGO, sess.Role)
	assert.Equal(t, 3, sess.RoleID)
	assert.NotEmpty(t, token)

	got, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "upstream-tok", got.Token)
}

func TestCreateRejectsBadProfile(t *testing.T) {
	svc, _, _ := newTestService(t, okUpstream)
	_, _, err := svc.Create(context.Background(), Profile{Role: "admin"})
	assert.Error(t, err)
	_, _, err = svc.Create(context.Background(), Profile{Token: "t", Role: "visitor"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestResolveFailures(t *testing.T) {
	svc, _, _ := newTestService(t, okUpstream)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = svc.Resolve(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, token, err := svc.Create(ctx, Profile{Token: "t", Role: "admin"})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate(t *testing.T) {
	var gotAuth string
	svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"data":{"valid":true}}`))
		case "Bearer stale":
			_, _ = w.Write([]byte(`{"valid":false}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	ctx := context.Background()

	require.NoError(t, svc.Validate(ctx, &Session{Token: "good"}))
	assert.Equal(t, "Bearer good", gotAuth)
	assert.ErrorIs(t, svc.Validate(ctx, &Session{Token: "stale"}), ErrRejected)
	assert.ErrorIs(t, svc.Validate(ctx, &Session{Token: "revoked"}), ErrRejected)
}

func TestDestroyAndSweepDropWorkspaces(t *testing.T) {
	svc, st, workspaces := newTestService(t, okUpstream)
	ctx := context.Background()

	live, _, err := svc.Create(ctx, Profile{Token: "a", Role: "admin"})
	require.NoError(t, err)
	old, _, err := svc.Create(ctx, Profile{Token: "b", Role: "admin"})
	require.NoError(t, err)
	workspaces.Get(live.ID)
	workspaces.Get(old.ID)

	old.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, st.Save(ctx, old))

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, workspaces.Len())
	assert.True(t, workspaces.Get(old.ID).Closed())
	assert.Equal(t, 1, workspaces.Len())

	require.NoError(t, svc.Destroy(ctx, live.ID))
	assert.Equal(t, 0, workspaces.Len())
	_, err = st.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleIDAcceptsStrings(t *testing.T) {
	var p Profile
	require.NoError(t, p.RoleID.UnmarshalJSON([]byte(`"4"`)))
	assert.Equal(t, RoleID(4), p.RoleID)
	require.NoError(t, p.RoleID.UnmarshalJSON([]byte(`2`)))
	assert.Equal(t, RoleID(2), p.RoleID)
	assert.Error(t, p.RoleID.UnmarshalJSON([]byte(`"x"`)))
}
