package service

import (
	"context"
	"errors"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// Identity is the authenticated caller as asserted by the access token.
// A zero UserID means the caller is anonymous.
type Identity struct {
	UserID uint64
	Email  string
	Name   string
}

// Actor is a caller whose profile and role have been resolved.
type Actor struct {
	UserID    uint64
	ProfileID uint64
	Role      string
}

// ProfileStore is the profile persistence used by the workflow.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, userID uint64, fullName, phone string) (*model.Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64]model.Profile, error)
}

// RoleStore resolves role membership.
type RoleStore interface {
	RoleOf(ctx context.Context, userID uint64) (string, error)
}

// Authorizer answers "may this caller act in this role" for every admin
// operation.
type Authorizer struct {
	profiles ProfileStore
	roles    RoleStore
}

func NewAuthorizer(profiles ProfileStore, roles RoleStore) *Authorizer {
	return &Authorizer{profiles: profiles, roles: roles}
}

// RequireRole resolves id to a profile and checks it holds role.
//
// Failures: unauthorized for an anonymous identity, not-found when no
// profile exists, forbidden when the profile lacks the role.
func (a *Authorizer) RequireRole(ctx context.Context, id Identity, role string) (*Actor, error) {
	if id.UserID == 0 {
		return nil, fail(KindUnauthorized, "Unauthorized", nil)
	}
	p, err := a.profiles.GetByUserID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(KindNotFound, "Profile not found", err)
		}
		return nil, fail(KindInternal, "profile lookup failed", err)
	}
	got, err := a.roles.RoleOf(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fail(KindForbidden, "Forbidden", nil)
		}
		return nil, fail(KindInternal, "role lookup failed", err)
	}
	if got != role {
		return nil, fail(KindForbidden, "Forbidden", nil)
	}
	return &Actor{UserID: id.UserID, ProfileID: p.ID, Role: got}, nil
}
