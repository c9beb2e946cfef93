package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

const userColumns = `id, login, password, name, COALESCE(description, ''), avatar_url, is_profile_complete, created_at`

// CreateUser inserts a new account with an empty profile.
func (s *Store) CreateUser(ctx context.Context, login, passwordHash string) (model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	u := model.User{
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	id, err := s.insertID(ctx,
		`INSERT INTO users (login, password, is_profile_complete, created_at) VALUES (?, ?, ?, ?)`,
		"id", u.Login, u.PasswordHash, false, u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, apperr.ConflictError{Op: "users.create", Field: "login"}
		}
		return model.User{}, apperr.Store("users.create", err)
	}

	u.ID = id
	return u, nil
}

// UserByLogin loads one account.
func (s *Store) UserByLogin(ctx context.Context, login string) (model.User, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE login = ?`), login)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Name, &u.Description, &u.AvatarFile, &u.ProfileComplete, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.NotFoundError{Op: "users.get", Resource: "user"}
	}
	if err != nil {
		return model.User{}, apperr.Store("users.get", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// UpdateProfile sets the profile fields; an empty avatar keeps the stored one.
func (s *Store) UpdateProfile(ctx context.Context, login string, p model.ProfileUpdate) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		res sql.Result
		err error
	)
	if p.AvatarFile == "" {
		res, err = s.db.ExecContext(ctx,
			s.rebind(`UPDATE users SET name = ?, description = ?, is_profile_complete = ? WHERE login = ?`),
			p.Name, p.Description, true, login)
	} else {
		res, err = s.db.ExecContext(ctx,
			s.rebind(`UPDATE users SET name = ?, description = ?, avatar_url = ?, is_profile_complete = ? WHERE login = ?`),
			p.Name, p.Description, p.AvatarFile, true, login)
	}
	if err != nil {
		return apperr.Store("users.update_profile", err)
	}

	// MySQL reports changed rows only, so an identical update would look like a miss.
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("users.update_profile", err)
	}
	if n == 0 {
		if _, err := s.UserByLogin(ctx, login); err != nil {
			return err
		}
	}
	return nil
}
