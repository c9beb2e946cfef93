package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

// pairPrefix is identical for (a, b) and (b, a). Both logins are length
// prefixed so no login can make one pair's prefix cover another pair.
func pairPrefix(a, b string) []byte {
	if b < a {
		a, b = b, a
	}
	return []byte(fmt.Sprintf("%s%d:%s:%d:%s:", msgPrefix, len(a), a, len(b), b))
}

// AppendMessage stores msg under its pair, timestamp and insertion sequence.
func (s *Store) AppendMessage(ctx context.Context, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seq, err := nextID(s.msgSeq)
	if err != nil {
		return apperr.Store("messages.append", err)
	}

	key := append(pairPrefix(msg.Sender, msg.Receiver), padded(msg.Timestamp.UnixNano())+":"+padded(seq)...)
	err = s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, msg)
	})
	return apperr.Store("messages.append", err)
}

// FetchConversation returns both directions of the pair in timestamp order.
func (s *Store) FetchConversation(ctx context.Context, userA, userB string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs := []model.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := pairPrefix(userA, userB)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m model.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Store("messages.fetch", err)
	}
	return msgs, nil
}
