package sqlstore

import (
	"context"
	"database/sql"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

const postSelect = `SELECT p.id_post, p.user_id, u.login, p.description, p.image_url, p.date
	FROM posts p JOIN users u ON u.id = p.user_id`

// CreatePost stores a post for the user with the given login.
func (s *Store) CreatePost(ctx context.Context, login, description, imageFile string) (model.Post, error) {
	u, err := s.UserByLogin(ctx, login)
	if err != nil {
		return model.Post{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	p := model.Post{
		UserID:      u.ID,
		Login:       u.Login,
		Description: description,
		ImageFile:   imageFile,
		Date:        s.now(),
	}

	id, err := s.insertID(ctx,
		`INSERT INTO posts (user_id, date, description, image_url) VALUES (?, ?, ?, ?)`,
		"id_post", p.UserID, p.Date, p.Description, p.ImageFile)
	if err != nil {
		return model.Post{}, apperr.Store("posts.create", err)
	}

	p.ID = id
	return p, nil
}

// ListPosts returns all posts, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, postSelect+` ORDER BY p.date DESC, p.id_post DESC`)
	if err != nil {
		return nil, apperr.Store("posts.list", err)
	}
	return scanPosts("posts.list", rows)
}

// ListPostsByLogin returns the posts of one user, newest first.
func (s *Store) ListPostsByLogin(ctx context.Context, login string) ([]model.Post, error) {
	if _, err := s.UserByLogin(ctx, login); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		s.rebind(postSelect+` WHERE u.login = ? ORDER BY p.date DESC, p.id_post DESC`), login)
	if err != nil {
		return nil, apperr.Store("posts.list_by_login", err)
	}
	return scanPosts("posts.list_by_login", rows)
}

func scanPosts(op string, rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Login, &p.Description, &p.ImageFile, &p.Date); err != nil {
			return nil, apperr.Store(op, err)
		}
		p.Date = p.Date.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return posts, nil
}
