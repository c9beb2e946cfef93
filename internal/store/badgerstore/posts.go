package badgerstore

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

func postKey(p model.Post) []byte {
	return []byte(postPrefix + padded(p.Date.UnixNano()) + ":" + padded(p.ID))
}

// CreatePost stores a post for the user with the given login.
func (s *Store) CreatePost(ctx context.Context, login, description, imageFile string) (model.Post, error) {
	u, err := s.UserByLogin(ctx, login)
	if err != nil {
		return model.Post{}, err
	}

	id, err := nextID(s.postSeq)
	if err != nil {
		return model.Post{}, apperr.Store("posts.create", err)
	}

	p := model.Post{
		ID:          id,
		UserID:      u.ID,
		Login:       u.Login,
		Description: description,
		ImageFile:   imageFile,
		Date:        s.now(),
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, postKey(p), p)
	})
	if err != nil {
		return model.Post{}, apperr.Store("posts.create", err)
	}
	return p, nil
}

// ListPosts returns all posts, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	posts, err := s.scanPosts(func(model.Post) bool { return true })
	return posts, apperr.Store("posts.list", err)
}

// ListPostsByLogin returns the posts of one user, newest first.
func (s *Store) ListPostsByLogin(ctx context.Context, login string) ([]model.Post, error) {
	if _, err := s.UserByLogin(ctx, login); err != nil {
		return nil, err
	}
	posts, err := s.scanPosts(func(p model.Post) bool { return p.Login == login })
	return posts, apperr.Store("posts.list_by_login", err)
}

func (s *Store) scanPosts(keep func(model.Post) bool) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(postPrefix)
		// reverse iteration starts from the last key of the prefix
		for it.Seek(append([]byte(postPrefix), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			var p model.Post
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			if keep(p) {
				posts = append(posts, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
