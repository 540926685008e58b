package data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/auth"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

func setupDB(t *testing.T) *db.Client {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := db.New(ctx, db.Options{URI: uri, Database: "grownet_test"})
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}

	// ensure clean collections in case previous runs left data
	_ = c.Users().Drop(ctx)
	_ = c.Messages().Drop(ctx)
	_ = c.Chats().Drop(ctx)

	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func intPtr(n int) *int { return &n }

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"admin":    RoleAdmin,
		" Mentor ": RoleMentor,
		"MENTEE":   RoleMentee,
	} {
		got, ok := ParseRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "user", "moderator"} {
		_, ok := ParseRole(in)
		assert.False(t, ok, in)
	}
}

func TestRoleSyncModels(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	models := roleSyncModels([]RoleAssignment{
		{Email: " Ann@Example.com", Role: RoleMentor},
		{Email: "bob@example.com", Role: RoleAdmin},
	}, now)
	require.Len(t, models, 2)

	m, ok := models[0].(*mongo.UpdateOneModel)
	require.True(t, ok)
	require.NotNil(t, m.Upsert)
	assert.False(t, *m.Upsert)
	assert.Equal(t, bson.D{
		{Key: "email", Value: "ann@example.com"},
		{Key: "role", Value: bson.D{{Key: "$ne", Value: "mentor"}}},
	}, m.Filter)
}

func TestUsersCreateAndGet(t *testing.T) {
	c := setupDB(t)
	users := NewUsersStore(c.Users())
	ctx := context.Background()

	user, err := users.CreateUser(ctx, &User{Email: "Case@Example.COM", Username: "case", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "case@example.com", user.Email)

	got, err := users.GetUserByEmail(ctx, "CASE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = users.GetUserByEmail(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestUsersLegacyPasswords(t *testing.T) {
	c := setupDB(t)
	users := NewUsersStore(c.Users())
	ctx := context.Background()

	hashed, err := auth.HashPassword("already", bcrypt.MinCost)
	require.NoError(t, err)

	plain, err := users.CreateUser(ctx, &User{Email: "plain@example.com", Username: "plain", Password: "hunter2"})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, &User{Email: "hashed@example.com", Username: "hashed", Password: hashed})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, &User{Email: "empty@example.com", Username: "empty", Password: ""})
	require.NoError(t, err)

	legacy, err := users.ListLegacyPasswords(ctx)
	require.NoError(t, err)
	require.Len(t, legacy, 1)
	assert.Equal(t, plain.ID, legacy[0].ID)
	assert.Equal(t, "hunter2", legacy[0].Password)

	empty, err := users.CountEmptyPasswords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), empty)

	// stale plaintext: compare-and-set refuses the write
	ok, err := users.ReplacePassword(ctx, plain.ID, "not-the-stored-value", hashed, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = users.ReplacePassword(ctx, plain.ID, "hunter2", hashed, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	legacy, err = users.ListLegacyPasswords(ctx)
	require.NoError(t, err)
	assert.Empty(t, legacy)
}

func TestUsersAssignMissingRoles(t *testing.T) {
	c := setupDB(t)
	users := NewUsersStore(c.Users())
	ctx := context.Background()

	seed := []*User{
		{Email: "admin@example.com", Username: "admin", Role: RoleAdmin},
		{Email: "vet@example.com", Username: "vet", ExperienceYears: intPtr(4)},
		{Email: "new@example.com", Username: "new"},
		{Email: "zero@example.com", Username: "zero", ExperienceYears: intPtr(0)},
		{Email: "cased@example.com", Username: "cased", Role: Role("Mentor")},
		{Email: "odd@example.com", Username: "odd", Role: Role("moderator")},
		{Email: "padded@example.com", Username: "padded", Role: Role(" Mentor ")},
	}
	for _, u := range seed {
		_, err := users.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	counts, err := users.AssignMissingRoles(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{Matched: 6, Modified: 6}, counts)

	want := map[string]Role{
		"admin@example.com":  RoleAdmin,
		"vet@example.com":    RoleMentor,
		"new@example.com":    RoleMentee,
		"zero@example.com":   RoleMentee,
		"cased@example.com":  RoleMentor,
		"odd@example.com":    RoleMentee,
		"padded@example.com": RoleMentor,
	}
	for email, role := range want {
		u, err := users.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, role, u.Role, email)
	}

	// second run finds nothing to do
	counts, err = users.AssignMissingRoles(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{}, counts)
}

func TestUsersSyncRoles(t *testing.T) {
	c := setupDB(t)
	users := NewUsersStore(c.Users())
	ctx := context.Background()

	_, err := users.CreateUser(ctx, &User{Email: "ann@example.com", Username: "ann", Role: RoleMentee})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, &User{Email: "bob@example.com", Username: "bob", Role: RoleMentor})
	require.NoError(t, err)

	assignments := []RoleAssignment{
		{Email: "ann@example.com", Role: RoleMentor},
		{Email: "bob@example.com", Role: RoleMentor},
		{Email: "ghost@example.com", Role: RoleAdmin},
	}

	counts, err := users.SyncRoles(ctx, assignments, time.Now())
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{Matched: 1, Modified: 1}, counts)

	ann, err := users.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, RoleMentor, ann.Role)

	// nothing is inserted for unknown emails
	present, err := users.CountByEmails(ctx, []string{"ann@example.com", "bob@example.com", "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), present)

	counts, err = users.SyncRoles(ctx, assignments, time.Now())
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{}, counts)
}
