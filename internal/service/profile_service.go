package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// ProfileService resolves and edits member profiles.
type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Ensure returns the caller's profile, creating it from the identity
// attributes on first use.  Two concurrent first requests both end up with
// the single row that won the insert.
func (s *ProfileService) Ensure(ctx context.Context, id Identity) (*model.Profile, error) {
	if id.UserID == 0 {
		return nil, fail(KindUnauthorized, "Unauthorized", nil)
	}
	p, err := s.store.GetByUserID(ctx, id.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fail(KindProfileCreationFailed, "profile lookup failed", err)
	}

	p = &model.Profile{
		UserID:   id.UserID,
		FullName: displayName(id),
		Email:    id.Email,
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			if existing, gerr := s.store.GetByUserID(ctx, id.UserID); gerr == nil {
				return existing, nil
			}
		}
		return nil, fail(KindProfileCreationFailed, "could not create profile", err)
	}
	return p, nil
}

// Update changes the caller's full name and phone.
func (s *ProfileService) Update(ctx context.Context, id Identity, fullName, phone string) (*model.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if fullName == "" {
		return nil, fail(KindMissingInput, "full_name is required", nil)
	}
	if len(fullName) > 255 || len(phone) > 32 {
		return nil, fail(KindInvalidInput, "full_name or phone too long", nil)
	}
	if _, err := s.Ensure(ctx, id); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, id.UserID, fullName, phone)
	if err != nil {
		return nil, fail(KindPersistFailed, "could not update profile", err)
	}
	return p, nil
}

// displayName picks the best available name from the identity claims.
func displayName(id Identity) string {
	if n := strings.TrimSpace(id.Name); n != "" {
		return n
	}
	if at := strings.IndexByte(id.Email, '@'); at > 0 {
		return id.Email[:at]
	}
	return "Member"
}
