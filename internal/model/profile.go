package model

import "time"

// Profile holds the member details shown to admins.  A profile is created
// lazily from the identity claims the first time a user needs one.
type Profile struct {
	ID        uint64    // profiles.id
	UserID    uint64    // profiles.user_id
	FullName  string    // profiles.full_name
	Email     string    // profiles.email
	Phone     string    // profiles.phone
	AvatarURL *string   // profiles.avatar_url (nullable)
	CreatedAt time.Time // profiles.created_at
	UpdatedAt time.Time // profiles.updated_at
}

// RoleAdmin is the membership role that may review payments and manage seats.
const RoleAdmin = "admin"
