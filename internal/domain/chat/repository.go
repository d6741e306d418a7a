package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines message data access interface
type Repository interface {
	Create(ctx context.Context, msg *Message) error
	// ListBetween returns the history between two users, newest first.
	ListBetween(ctx context.Context, userID, peerID uuid.UUID, page, limit int) ([]*Message, int, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	MarkRead(ctx context.Context, userID, peerID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new chat repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		msg.Body,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("chat repository create: %w", err)
	}

	return nil
}

func (r *repository) ListBetween(ctx context.Context, userID, peerID uuid.UUID, page, limit int) ([]*Message, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
	`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID, peerID); err != nil {
		return nil, 0, fmt.Errorf("chat repository count: %w", err)
	}

	query := `
		SELECT m.id, m.sender_id, m.recipient_id, m.body, m.read_at, m.created_at,
		       u.name AS sender_name
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE (m.sender_id = $1 AND m.recipient_id = $2) OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at DESC
		LIMIT $3 OFFSET $4
	`

	var messages []*Message
	offset := (page - 1) * limit
	if err := r.db.SelectContext(ctx, &messages, query, userID, peerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("chat repository list: %w", err)
	}

	return messages, total, nil
}

func (r *repository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	// One row per peer with the latest message and the unread count.
	query := `
		SELECT DISTINCT ON (peer_id)
		       peer_id,
		       u.name AS peer_name,
		       m.body AS last_message,
		       m.created_at AS last_at,
		       (SELECT COUNT(*) FROM messages
		        WHERE sender_id = peer_id AND recipient_id = $1 AND read_at IS NULL) AS unread_count
		FROM (
			SELECT *,
			       CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id
			FROM messages
			WHERE sender_id = $1 OR recipient_id = $1
		) m
		JOIN users u ON u.id = peer_id
		ORDER BY peer_id, m.created_at DESC
	`

	var conversations []*Conversation
	if err := r.db.SelectContext(ctx, &conversations, query, userID); err != nil {
		return nil, fmt.Errorf("chat repository conversations: %w", err)
	}

	return conversations, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, peerID uuid.UUID) error {
	query := `
		UPDATE messages SET read_at = NOW()
		WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, userID, peerID)
	if err != nil {
		return fmt.Errorf("chat repository mark read: %w", err)
	}

	return nil
}
