package sqlstore

import (
	"context"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
)

// AppendMessage inserts one message row.
func (s *Store) AppendMessage(ctx context.Context, msg model.Message) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO messages (sender, receiver, body, created_at) VALUES (?, ?, ?, ?)`),
		msg.Sender, msg.Receiver, msg.Body, msg.Timestamp.UTC())
	return apperr.Store("messages.append", err)
}

// FetchConversation returns both directions of the pair in timestamp order.
func (s *Store) FetchConversation(ctx context.Context, userA, userB string) ([]model.Message, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT sender, receiver, body, created_at FROM messages
		WHERE (sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)
		ORDER BY created_at ASC, id ASC`),
		userA, userB, userB, userA)
	if err != nil {
		return nil, apperr.Store("messages.fetch", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.Sender, &m.Receiver, &m.Body, &m.Timestamp); err != nil {
			return nil, apperr.Store("messages.fetch", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("messages.fetch", err)
	}
	return msgs, nil
}
