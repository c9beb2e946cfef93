package model

import "time"

// Message represents a direct message between two users
type Message struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Fingerprint identifies a message for broadcast deduplication.
type Fingerprint struct {
	Timestamp int64
	Sender    string
	Receiver  string
	Body      string
}

// Fingerprint derives the dedup key of m.
func (m Message) Fingerprint() Fingerprint {
	return Fingerprint{
		Timestamp: m.Timestamp.UnixNano(),
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Body:      m.Body,
	}
}

// InboundEvent is a message frame sent by a realtime client
type InboundEvent struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// BroadcastEvent is pushed to every connected realtime client
type BroadcastEvent struct {
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBroadcastEvent converts a stored message into its outbound event.
func NewBroadcastEvent(m Message) BroadcastEvent {
	return BroadcastEvent{
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Message:   m.Body,
		Timestamp: m.Timestamp,
	}
}
