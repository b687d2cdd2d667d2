package nlp

// Intent is the user's high-level goal for the current conversation.
type Intent string

const (
	IntentFindTicket   Intent = "find_ticket"
	IntentPredictDelay Intent = "predict_delay"
	IntentSmalltalk    Intent = "smalltalk"
	IntentUnsupported  Intent = "unsupported"
)

// intentOrder fixes tie-breaking: the first declared intent wins scoring
// ties.
var intentOrder = []Intent{IntentFindTicket, IntentPredictDelay, IntentSmalltalk}

var intentKeywords = map[Intent][]string{
	IntentFindTicket: {
		"ticket", "book", "travel", "journey", "train to",
		"fare", "cheap", "single", "return",
	},
	IntentPredictDelay: {
		"delay", "late", "delayed", "arrive", "prediction", "running",
	},
	IntentSmalltalk: {
		"hello", "hi ", "thanks", "thank you", "how are you",
	},
}

// ParseResult is the per-turn output of classification plus extraction.
// It is never persisted.
type ParseResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Slots      Slots   `json:"slots"`
}
