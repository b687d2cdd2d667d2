package dialogue

import (
	"TrainChecker/pkg/nlp"
	"TrainChecker/pkg/ticketsearch"
)

// State is the coarse position of a conversation in the slot-filling flow.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateConfirming State = "confirming"
)

// ConversationState is the whole per-conversation state. It is a value:
// Respond takes it in and hands back the successor, so callers own state
// and many conversations can run side by side.
type ConversationState struct {
	Intent nlp.Intent `json:"intent,omitempty"`
	Slots  nlp.Slots  `json:"slots"`

	// ConfirmationPending is true after origin/destination have been
	// echoed back and before the user has answered.
	ConfirmationPending bool `json:"confirmation_pending,omitempty"`

	// ConfirmationAsked marks that the confirmation question has been
	// raised; it runs at most once per conversation.
	ConfirmationAsked bool `json:"confirmation_asked,omitempty"`
}

// NewConversationState returns the Idle state of a fresh conversation.
func NewConversationState() ConversationState {
	return ConversationState{}
}

// State derives the coarse state from the fields.
func (s ConversationState) State() State {
	switch {
	case s.Intent == "":
		return StateIdle
	case s.ConfirmationPending:
		return StateConfirming
	default:
		return StateCollecting
	}
}

// Turn is what one Respond call produced, for callers that log or route
// on it. The reply string is the only part shown to the user.
type Turn struct {
	Reply      string
	Intent     nlp.Intent
	Confidence float64

	// Prompt is true when the reply is a slot-filling prompt rather
	// than a terminal answer.
	Prompt bool

	// Ticket is set when this turn completed a ticket search.
	Ticket *ticketsearch.Ticket
}
