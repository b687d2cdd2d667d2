package entity

import "time"

// Conversation is the persisted dialogue state for one user. Slots holds
// the accumulated slot values as JSON so new fields never need a schema
// change.
type Conversation struct {
	ID                  string    `db:"id"`
	UserID              string    `db:"user_id"`
	Intent              string    `db:"intent"`
	Slots               string    `db:"slots"`
	ConfirmationPending bool      `db:"confirmation_pending"`
	ConfirmationAsked   bool      `db:"confirmation_asked"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

type ChatMessage struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	UserID         string    `db:"user_id"`
	Role           string    `db:"role"`
	Body           string    `db:"body"`
	Intent         string    `db:"intent"`
	Confidence     float64   `db:"confidence"`
	CreatedAt      time.Time `db:"created_at"`
}

const (
	MessageRoleUser = "user"
	MessageRoleBot  = "bot"
)
