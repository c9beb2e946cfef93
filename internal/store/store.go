// Package store declares the persistence contracts used by the API.
//
// Implementations live in sub-packages: sqlstore (MySQL / PostgreSQL) and
// badgerstore (embedded). Errors are reported with the apperr kinds.
package store

import (
	"context"

	"socialhub/internal/model"
)

// UserStore persists accounts and profiles.
type UserStore interface {
	// CreateUser fails with apperr.ConflictError when the login is taken.
	CreateUser(ctx context.Context, login, passwordHash string) (model.User, error)
	// UserByLogin fails with apperr.NotFoundError.
	UserByLogin(ctx context.Context, login string) (model.User, error)
	// UpdateProfile marks the profile complete; fails with apperr.NotFoundError.
	UpdateProfile(ctx context.Context, login string, p model.ProfileUpdate) error
}

// PostStore persists image posts.
type PostStore interface {
	CreatePost(ctx context.Context, login, description, imageFile string) (model.Post, error)
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]model.Post, error)
	// ListPostsByLogin returns the posts of one user, newest first.
	ListPostsByLogin(ctx context.Context, login string) ([]model.Post, error)
}

// Store is the full persistence surface of the server.
type Store interface {
	UserStore
	PostStore
	MessageStore

	Ping(ctx context.Context) error
	Close() error
}
