// Package badgerstore implements store.Store on an embedded BadgerDB.
//
// Key layout:
//
//	user:{login}                                  -> user JSON
//	post:{date_padded}:{id_padded}                -> post JSON
//	msg:{pair}:{timestamp_padded}:{seq_padded}    -> message JSON
//
// Padding to 19 digits keeps lexicographic order equal to numeric order, so
// prefix scans return posts and messages already sorted.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"socialhub/internal/apperr"
)

const (
	userPrefix = "user:"
	postPrefix = "post:"
	msgPrefix  = "msg:"

	seqBandwidth = 100
)

// Store is a badger-backed store.Store.
type Store struct {
	db  *badger.DB
	now func() time.Time

	userSeq *badger.Sequence
	postSeq *badger.Sequence
	msgSeq  *badger.Sequence

	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) a store at path. An empty path keeps everything in memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database. Close releases the sequences and closes db.
func New(db *badger.DB) (*Store, error) {
	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	var err error
	if s.userSeq, err = db.GetSequence([]byte("seq:user"), seqBandwidth); err != nil {
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	if s.postSeq, err = db.GetSequence([]byte("seq:post"), seqBandwidth); err != nil {
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	if s.msgSeq, err = db.GetSequence([]byte("seq:msg"), seqBandwidth); err != nil {
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	return s, nil
}

// SetClock overrides the clock used for created_at and post dates.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Ping reports whether the database is still open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return apperr.StoreError{Op: "db.ping", Err: errors.New("badger closed")}
	}
	return nil
}

// Close releases sequence leases and closes the database. Later calls return
// the result of the first.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		for _, seq := range []*badger.Sequence{s.userSeq, s.postSeq, s.msgSeq} {
			if seq != nil {
				_ = seq.Release()
			}
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

func padded(n int64) string {
	return fmt.Sprintf("%019d", n)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}
