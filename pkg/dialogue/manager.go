package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"TrainChecker/pkg/nlp"
	"TrainChecker/pkg/stations"
	"TrainChecker/pkg/ticketsearch"
	"TrainChecker/pkg/worker"

	"github.com/sirupsen/logrus"
)

const (
	// Below this confidence a first-turn utterance is treated as out of
	// domain. Mid-conversation turns are tolerated and merged as extra
	// slot evidence.
	lowConfidenceThreshold = 0.05

	// PromptMarker prefixes slot-filling prompts so a UI can show an
	// in-progress indicator.
	PromptMarker = "(Info needed) "
)

const (
	GreetingReply    = "Hello! How can I help you today?"
	fallbackReply    = "I'm sorry, I didn't understand that. Can you rephrase?"
	unsupportedReply = "I'm sorry, I don't know how to help with that yet."
	timeoutReply     = "I'm sorry, the ticket search is taking too long. Please try again later."
	failureReply     = "I'm sorry, something went wrong while searching for tickets. Please try again."
)

var (
	affirmativePattern = regexp.MustCompile(`^(yes|y|correct|right)\b`)
	negativePattern    = regexp.MustCompile(`^(no|n)\b`)
)

// Manager drives one turn of a conversation. It holds only immutable
// collaborators; per-conversation state lives in the ConversationState
// value the caller passes in and gets back.
type Manager struct {
	classifier *nlp.Classifier
	extractor  *nlp.Extractor
	directory  *stations.Directory
	searcher   ticketsearch.ITicketSearch
	pool       *worker.Pool
	timeout    time.Duration
	log        *logrus.Logger
}

func NewManager(
	classifier *nlp.Classifier,
	extractor *nlp.Extractor,
	directory *stations.Directory,
	searcher ticketsearch.ITicketSearch,
	pool *worker.Pool,
	timeout time.Duration,
	log *logrus.Logger,
) *Manager {
	return &Manager{
		classifier: classifier,
		extractor:  extractor,
		directory:  directory,
		searcher:   searcher,
		pool:       pool,
		timeout:    timeout,
		log:        log,
	}
}

// Respond advances the conversation by one utterance. Every path returns
// a reply string; extraction and classification never fail, and search
// failures are converted into an apology plus a reset.
func (m *Manager) Respond(state ConversationState, utterance string) (ConversationState, Turn) {
	trimmed := strings.TrimSpace(utterance)
	lower := strings.ToLower(trimmed)

	if state.ConfirmationPending {
		if affirmativePattern.MatchString(lower) {
			state.ConfirmationPending = false
			return m.handleFindTicket(state, Turn{Intent: state.Intent})
		}
		if negativePattern.MatchString(lower) || strings.Contains(lower, "not correct") {
			state.ConfirmationPending = false
			state.Slots.Departure = ""
			state.Slots.Destination = ""
			return state, Turn{
				Reply:  PromptMarker + "Let's try that again. Which station are you travelling from?",
				Intent: state.Intent,
				Prompt: true,
			}
		}
		// Anything else falls through to standard parsing; the
		// confirmation is not a hard gate.
		state.ConfirmationPending = false
	}

	intent, confidence := m.classifier.Classify(trimmed)

	if state.Intent == "" {
		if intent == nlp.IntentUnsupported || confidence < lowConfidenceThreshold {
			m.log.WithFields(logrus.Fields{
				"intent":     intent,
				"confidence": confidence,
			}).Debug("First-turn fallback")
			return NewConversationState(), Turn{Reply: fallbackReply, Intent: nlp.IntentUnsupported, Confidence: confidence}
		}
		// Intent is sticky: committed once, never overwritten until
		// reset.
		state.Intent = intent
	}

	extracted := m.extractor.Extract(trimmed, state.Intent)
	state.Slots = state.Slots.Merge(extracted)
	state = resolveStagedStations(state)

	turn := Turn{Intent: state.Intent, Confidence: confidence}

	switch state.Intent {
	case nlp.IntentFindTicket:
		return m.handleFindTicket(state, turn)
	default:
		// Everything else, delay prediction included, is stubbed until
		// a predictive model exists.
		turn.Reply = unsupportedReply
		return NewConversationState(), turn
	}
}

// resolveStagedStations assigns codes the extractor could not attribute:
// for find_ticket the first staged code fills departure, else destination.
func resolveStagedStations(state ConversationState) ConversationState {
	if state.Intent != nlp.IntentFindTicket || len(state.Slots.Stations) == 0 {
		return state
	}

	for _, code := range state.Slots.Stations {
		if state.Slots.Departure == "" {
			state.Slots.Departure = code
		} else if state.Slots.Destination == "" {
			state.Slots.Destination = code
		}
	}
	state.Slots.Stations = nil

	return state
}

func (m *Manager) handleFindTicket(state ConversationState, turn Turn) (ConversationState, Turn) {
	slots := state.Slots

	if !state.ConfirmationAsked && slots.Departure != "" && slots.Destination != "" {
		state.ConfirmationPending = true
		state.ConfirmationAsked = true
		turn.Reply = fmt.Sprintf(
			"You're travelling from %s to %s, is that correct?",
			m.directory.DisplayName(slots.Departure),
			m.directory.DisplayName(slots.Destination),
		)
		return state, turn
	}

	if slots.Departure == "" {
		turn.Reply = PromptMarker + "Which station are you travelling from?"
		turn.Prompt = true
		return state, turn
	}
	if slots.Destination == "" {
		turn.Reply = PromptMarker + "Which station are you travelling to?"
		turn.Prompt = true
		return state, turn
	}

	if complete(slots) {
		return m.dispatchSearch(state, turn)
	}

	switch {
	case slots.Date == nil:
		turn.Reply = PromptMarker + "What date would you like to travel?"
	case slots.Time == "":
		turn.Reply = PromptMarker + "What time would you like to leave?"
	default:
		turn.Reply = PromptMarker + "Will that be a single or a return ticket?"
	}
	turn.Prompt = true

	return state, turn
}

// complete checks the required slot list for find_ticket: departure,
// destination, date, trip_type. Time is optional.
func complete(slots nlp.Slots) bool {
	return slots.Departure != "" &&
		slots.Destination != "" &&
		slots.Date != nil &&
		slots.TripType != ""
}

func (m *Manager) dispatchSearch(state ConversationState, turn Turn) (ConversationState, Turn) {
	query := ticketsearch.Query{
		Departure:   state.Slots.Departure,
		Destination: state.Slots.Destination,
		Date:        *state.Slots.Date,
		Time:        state.Slots.Time,
		TripType:    state.Slots.TripType,
	}
	if state.Slots.TripType == "return" {
		query.ReturnDate = state.Slots.ReturnDate
		query.ReturnTime = state.Slots.ReturnTime
	}

	m.log.WithFields(logrus.Fields{
		"departure":   query.Departure,
		"destination": query.Destination,
		"date":        query.Date.Format("2006-01-02"),
		"trip_type":   query.TripType,
	}).Info("Dispatching ticket search")

	// One timer covers both the wait for a free worker and the wait for
	// the result, so a saturated pool cannot stall the turn past the
	// configured timeout.
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	result, submitted := m.pool.TrySubmit(func() (interface{}, error) {
		return m.searcher.Search(context.Background(), query)
	}, timer.C)
	if !submitted {
		m.log.WithFields(logrus.Fields{
			"timeout": m.timeout.String(),
		}).Warn("No search worker free before the timeout, abandoning")
		turn.Reply = timeoutReply
		return NewConversationState(), turn
	}

	select {
	case res := <-result:
		if res.Err != nil {
			m.log.WithFields(logrus.Fields{
				"error": res.Err.Error(),
			}).Error("Ticket search failed")
			turn.Reply = failureReply
			return NewConversationState(), turn
		}

		ticket, ok := res.Value.(*ticketsearch.Ticket)
		if !ok || ticket == nil {
			turn.Reply = failureReply
			return NewConversationState(), turn
		}
		turn.Ticket = ticket
		if ticket.Price != "" {
			turn.Reply = fmt.Sprintf(
				"The cheapest ticket from %s to %s is %s. Book it here: %s",
				m.directory.DisplayName(query.Departure),
				m.directory.DisplayName(query.Destination),
				ticket.Price,
				ticket.URL,
			)
		} else {
			turn.Reply = fmt.Sprintf(
				"I couldn't fetch a live fare, but you can book your journey here: %s",
				ticket.URL,
			)
		}
		return NewConversationState(), turn

	case <-timer.C:
		// The search itself is not cancelled; the worker finishes in
		// the background and the result is discarded.
		m.log.WithFields(logrus.Fields{
			"timeout": m.timeout.String(),
		}).Warn("Ticket search timed out, abandoning")
		turn.Reply = timeoutReply
		return NewConversationState(), turn
	}
}
