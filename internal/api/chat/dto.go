package chat

import "TrainChecker/pkg/ticketsearch"

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=500"`
	// NotifyPhone, when set, gets the booking link over WhatsApp after a
	// completed search.
	NotifyPhone string `json:"notify_phone,omitempty" validate:"omitempty,numeric,min=8,max=15"`
}

type MessageResponse struct {
	ConversationID string              `json:"conversation_id"`
	Reply          string              `json:"reply"`
	Intent         string              `json:"intent,omitempty"`
	Confidence     float64             `json:"confidence"`
	Prompt         bool                `json:"prompt"`
	Ticket         *ticketsearch.Ticket `json:"ticket,omitempty"`
}

type ResetResponse struct {
	Reply string `json:"reply"`
}

type HistoryMessage struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Body       string  `json:"body"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
}

type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}
