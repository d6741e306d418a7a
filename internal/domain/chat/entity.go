package chat

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message is one direct message between two users
type Message struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	SenderID    uuid.UUID    `db:"sender_id" json:"sender_id"`
	RecipientID uuid.UUID    `db:"recipient_id" json:"recipient_id"`
	Body        string       `db:"body" json:"body"`
	ReadAt      sql.NullTime `db:"read_at" json:"-"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`

	// Joined
	SenderName string `db:"sender_name" json:"sender_name,omitempty"`
}

// Conversation summarizes the message history with one peer
type Conversation struct {
	PeerID      uuid.UUID `db:"peer_id" json:"peer_id"`
	PeerName    string    `db:"peer_name" json:"peer_name"`
	LastMessage string    `db:"last_message" json:"last_message"`
	LastAt      time.Time `db:"last_at" json:"last_at"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
}
