package services

import (
	"testing"
	"time"

	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	t.Setenv("JWT_SECRET", "test-secret")

	first, err := RegisterUser(" root ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "root", first.Username)
	assert.Equal(t, models.RoleAdmin, first.Role, "first account is the admin")

	second, err := RegisterUser("alice", "password2")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)

	_, err = RegisterUser("alice", "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	token, user, err := LoginUser("alice", "password2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, second.ID, user.ID)

	_, _, err = LoginUser("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = LoginUser("nobody", "password2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdminUser(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, EnsureAdminUser("", "secret"))
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)

	require.NoError(t, EnsureAdminUser("admin", "secret"))
	require.NoError(t, EnsureAdminUser("admin", "secret"))
	database.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindUserByIDUsesCache(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)

	user := createTestUser(t, "alice", models.RoleUser)

	found, err := FindUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.True(t, mr.Exists(userCacheKey(user.ID)))

	_, err = FindUserByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserRole(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)

	admin := createTestUser(t, "root", models.RoleAdmin)
	member := createTestUser(t, "alice", models.RoleUser)
	_, err := FindUserByID(member.ID)
	require.NoError(t, err)

	updated, err := UpdateUserRole(member.ID, models.RoleAdmin, admin)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin())
	assert.False(t, mr.Exists(userCacheKey(member.ID)), "role change invalidates the cached user")

	_, err = UpdateUserRole(admin.ID, models.RoleUser, admin)
	assert.ErrorIs(t, err, ErrOwnRole)
	_, err = UpdateUserRole(member.ID, "owner", admin)
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = UpdateUserRole(999, models.RoleUser, admin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenDenylist(t *testing.T) {
	database.RedisClient = nil
	denied, err := IsDenylisted("token")
	require.NoError(t, err)
	assert.False(t, denied, "no redis, nothing revoked")

	mr := setupTestRedis(t)
	require.NoError(t, AddToDenylist("token", time.Minute))

	denied, err = IsDenylisted("token")
	require.NoError(t, err)
	assert.True(t, denied)

	mr.FastForward(2 * time.Minute)
	denied, err = IsDenylisted("token")
	require.NoError(t, err)
	assert.False(t, denied)
}
