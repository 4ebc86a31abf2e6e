package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type authFixture struct {
	users    UserService
	auth     AuthService
	userRepo *fakeUserRepo
	sessions *fakeSessionRepo
	admin    model.Role
	agent    model.Role
}

func newAuthFixture() *authFixture {
	cfg := config.Auth{
		SessionTTL:     time.Hour,
		PresenceWindow: 2 * time.Minute,
		BcryptCost:     config.BcryptCost(bcrypt.MinCost),
	}
	admin := model.Role{ID: uuid.New(), Name: auth.AdminRole}
	agent := model.Role{ID: uuid.New(), Name: "agent", Permissions: []auth.Permission{auth.PermOrdersRead, auth.PermOrdersStatus}}

	userRepo := newFakeUserRepo()
	roleRepo := newFakeRoleRepo(admin, agent)
	sessions := newFakeSessionRepo(userRepo, roleRepo)

	return &authFixture{
		users:    NewUserService(cfg, discardLogger, fakeDB{}, userRepo, roleRepo, sessions),
		auth:     NewAuthService(cfg, discardLogger, userRepo, sessions),
		userRepo: userRepo,
		sessions: sessions,
		admin:    admin,
		agent:    agent,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	user, err := f.users.CreateUser(ctx, CreateUserParams{
		Email:    " Nadia@Shop.dz ",
		Name:     "Nadia",
		Password: "s3cret-pass",
		RoleID:   f.agent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "nadia@shop.dz", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	_, err = f.auth.Login(ctx, LoginParams{Email: "nadia@shop.dz", Password: "wrong-pass"})
	require.ErrorIs(t, err, apperr.InvalidCredentialsErr)

	_, err = f.auth.Login(ctx, LoginParams{Email: "nobody@shop.dz", Password: "s3cret-pass"})
	require.ErrorIs(t, err, apperr.InvalidCredentialsErr)

	res, err := f.auth.Login(ctx, LoginParams{Email: "nadia@shop.dz", Password: "s3cret-pass", IP: "10.0.0.1"})
	require.NoError(t, err)
	require.Len(t, f.sessions.sessions, 1)
	for _, s := range f.sessions.sessions {
		assert.Equal(t, auth.HashToken(res.Token), s.TokenHash)
		assert.Equal(t, "10.0.0.1", s.IP)
	}

	principal, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, "agent", principal.Role)
	assert.True(t, principal.Can(auth.PermOrdersStatus))
	assert.False(t, principal.Can(auth.PermUsersAdmin))

	_, err = f.auth.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, apperr.UnauthenticatedErr)

	require.NoError(t, f.auth.Logout(ctx, principal.SessionID))
	_, err = f.auth.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.UnauthenticatedErr)
}

func TestDeactivateEndsSessions(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	user, err := f.users.CreateUser(ctx, CreateUserParams{Email: "karim@shop.dz", Password: "password1", RoleID: f.agent.ID})
	require.NoError(t, err)
	res, err := f.auth.Login(ctx, LoginParams{Email: "karim@shop.dz", Password: "password1"})
	require.NoError(t, err)

	_, err = f.users.SetUserActive(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Empty(t, f.sessions.sessions)

	_, err = f.auth.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, apperr.UnauthenticatedErr)

	_, err = f.auth.Login(ctx, LoginParams{Email: "karim@shop.dz", Password: "password1"})
	require.ErrorIs(t, err, apperr.InvalidCredentialsErr)
}

func TestPresence(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	user, err := f.users.CreateUser(ctx, CreateUserParams{Email: "lina@shop.dz", Name: "Lina", Password: "password1", RoleID: f.agent.ID})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, LoginParams{Email: "lina@shop.dz", Password: "password1"})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, LoginParams{Email: "lina@shop.dz", Password: "password1"})
	require.NoError(t, err)

	online, err := f.auth.OnlineUsers(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, user.ID, online[0].UserID)
	assert.Equal(t, 2, online[0].Sessions)

	// Idle sessions drop out of presence; a heartbeat brings one back.
	var sessionID uuid.UUID
	for id, s := range f.sessions.sessions {
		s.LastSeenAt = time.Now().Add(-10 * time.Minute)
		f.sessions.sessions[id] = s
		sessionID = id
	}
	online, err = f.auth.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)

	require.NoError(t, f.auth.Heartbeat(ctx, sessionID))
	online, err = f.auth.OnlineUsers(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, 1, online[0].Sessions)

	for id, s := range f.sessions.sessions {
		s.ExpiresAt = time.Now().Add(-time.Second)
		f.sessions.sessions[id] = s
	}
	n, err := f.auth.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	role, err := f.users.CreateRole(ctx, CreateRoleParams{
		Name:        " Stock ",
		Permissions: []auth.Permission{auth.PermProductsRead, auth.PermStockWrite, auth.PermProductsRead},
	})
	require.NoError(t, err)
	assert.Equal(t, "stock", role.Name)
	assert.ElementsMatch(t, []auth.Permission{auth.PermProductsRead, auth.PermStockWrite}, role.Permissions)

	_, err = f.users.CreateRole(ctx, CreateRoleParams{Name: "stock"})
	require.ErrorIs(t, err, apperr.RoleNameConflictErr)

	_, err = f.users.CreateRole(ctx, CreateRoleParams{Name: "other", Permissions: []auth.Permission{"orders.delete"}})
	require.ErrorIs(t, err, apperr.ValidationErr)

	user, err := f.users.CreateUser(ctx, CreateUserParams{Email: "sami@shop.dz", Password: "password1", RoleID: role.ID})
	require.NoError(t, err)

	ok, err := f.users.HasPermission(ctx, user.ID, auth.PermStockWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.users.SetRolePermissions(ctx, role.ID, []auth.Permission{auth.PermProductsRead})
	require.NoError(t, err)
	ok, err = f.users.HasPermission(ctx, user.ID, auth.PermStockWrite)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.users.SetUserRole(ctx, user.ID, f.admin.ID)
	require.NoError(t, err)
	ok, err = f.users.HasPermission(ctx, user.ID, auth.PermUsersAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	created, err := f.users.Bootstrap(ctx, "admin@shop.dz", "change-me-now")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.users.Bootstrap(ctx, "second@shop.dz", "change-me-now")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := f.userRepo.GetUserByEmail(ctx, "admin@shop.dz")
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, admin.RoleID)
}
