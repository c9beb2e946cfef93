//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_store.go -package=mocks
package store

import (
	"context"

	"socialhub/internal/model"
)

// MessageStore is the durable append-only message log.
//
// FetchConversation is symmetric: (a, b) and (b, a) return the same rows,
// ordered by timestamp ascending with insertion order breaking ties.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg model.Message) error
	FetchConversation(ctx context.Context, userA, userB string) ([]model.Message, error)
}
