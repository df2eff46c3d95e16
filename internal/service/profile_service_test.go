package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCreatesOnceAndReuses(t *testing.T) {
	db := newMemDB()
	svc := NewProfileService(db)

	p1, err := svc.Ensure(context.Background(), Identity{UserID: 7, Email: "omid@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "omid", p1.FullName, "falls back to the email local part")

	p2, err := svc.Ensure(context.Background(), Identity{UserID: 7, Name: "Omid"})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
	assert.Len(t, db.profiles, 1)
}

func TestEnsureAnonymous(t *testing.T) {
	_, err := NewProfileService(newMemDB()).Ensure(context.Background(), Identity{})
	requireKind(t, err, KindUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	db := newMemDB()
	svc := NewProfileService(db)
	id := Identity{UserID: 7, Email: "omid@example.com"}

	p, err := svc.Update(context.Background(), id, "  Omid Karimi ", "0912 000 0000")
	require.NoError(t, err)
	assert.Equal(t, "Omid Karimi", p.FullName)
	assert.Equal(t, "0912 000 0000", p.Phone)

	_, err = svc.Update(context.Background(), id, " ", "1")
	requireKind(t, err, KindMissingInput)
}

func TestRequireRole(t *testing.T) {
	db := newMemDB()
	db.addAdmin(1, "Admin")
	db.profiles[2] = db.profiles[1]
	db.roles[2] = "staff"
	authz := NewAuthorizer(db, db)

	actor, err := authz.RequireRole(context.Background(), Identity{UserID: 1}, "admin")
	require.NoError(t, err)
	assert.Equal(t, db.profiles[1].ID, actor.ProfileID)
	assert.Equal(t, "admin", actor.Role)

	_, err = authz.RequireRole(context.Background(), Identity{UserID: 2}, "admin")
	requireKind(t, err, KindForbidden)
}
