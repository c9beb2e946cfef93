package model

import "time"

// User is an account row together with its profile fields.
type User struct {
	ID              int64
	Login           string
	PasswordHash    string
	Name            string
	Description     string
	AvatarFile      string
	ProfileComplete bool
	CreatedAt       time.Time
}

// ProfileUpdate carries the editable profile fields.
// An empty AvatarFile keeps the current avatar.
type ProfileUpdate struct {
	Name        string
	Description string
	AvatarFile  string
}

// Post is a published image post.
type Post struct {
	ID          int64
	UserID      int64
	Login       string
	Description string
	ImageFile   string
	Date        time.Time
}
