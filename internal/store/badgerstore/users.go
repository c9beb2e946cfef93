package badgerstore

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

func userKey(login string) []byte {
	return []byte(userPrefix + login)
}

// CreateUser stores a new account; a taken login yields apperr.ConflictError.
func (s *Store) CreateUser(ctx context.Context, login, passwordHash string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	id, err := nextID(s.userSeq)
	if err != nil {
		return model.User{}, apperr.Store("users.create", err)
	}

	u := model.User{
		ID:           id,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := userKey(login)
		if _, err := txn.Get(key); err == nil {
			return apperr.ConflictError{Op: "users.create", Field: "login"}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, key, u)
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent transaction committed the same login first
		return model.User{}, apperr.ConflictError{Op: "users.create", Field: "login"}
	}
	if err != nil {
		return model.User{}, apperr.Store("users.create", err)
	}
	return u, nil
}

// UserByLogin loads one account.
func (s *Store) UserByLogin(ctx context.Context, login string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	var u model.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(login), &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.User{}, apperr.NotFoundError{Op: "users.get", Resource: "user"}
	}
	if err != nil {
		return model.User{}, apperr.Store("users.get", err)
	}
	return u, nil
}

// UpdateProfile sets the profile fields; an empty avatar keeps the stored one.
func (s *Store) UpdateProfile(ctx context.Context, login string, p model.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key := userKey(login)
		var u model.User
		if err := getJSON(txn, key, &u); err != nil {
			return err
		}
		u.Name = p.Name
		u.Description = p.Description
		if p.AvatarFile != "" {
			u.AvatarFile = p.AvatarFile
		}
		u.ProfileComplete = true
		return setJSON(txn, key, u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.NotFoundError{Op: "users.update_profile", Resource: "user"}
	}
	return apperr.Store("users.update_profile", err)
}
