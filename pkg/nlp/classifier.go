package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Classifier scores free text against static keyword sets per intent.
type Classifier struct {
	keywords      map[Intent][]string
	totalKeywords int
}

func NewClassifier() *Classifier {
	total := 0
	for _, kws := range intentKeywords {
		total += len(kws)
	}

	return &Classifier{
		keywords:      intentKeywords,
		totalKeywords: total,
	}
}

// Classify returns the best-scoring intent and a confidence in [0,1].
// Keywords match as substrings anywhere in the lowercased text, each at
// most once; confidence is the winning count over the total keyword count
// across all intents. A zero winning count forces IntentUnsupported.
// Confidence is a low-confidence fallback gate, not a ranking signal.
func (c *Classifier) Classify(text string) (Intent, float64) {
	cleaned := cleanText(text)

	bestIntent := intentOrder[0]
	bestCount := 0
	for _, intent := range intentOrder {
		count := 0
		for _, keyword := range c.keywords[intent] {
			if strings.Contains(cleaned, keyword) {
				count++
			}
		}
		if count > bestCount {
			bestIntent = intent
			bestCount = count
		}
	}

	confidence := 0.0
	if c.totalKeywords > 0 {
		confidence = float64(bestCount) / float64(c.totalKeywords)
	}

	if bestCount == 0 {
		return IntentUnsupported, confidence
	}

	return bestIntent, confidence
}

// cleanText lowercases, strips diacritics and collapses whitespace so
// keyword matching sees a normalized string.
func cleanText(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}

	words := strings.Fields(result)
	return strings.Join(words, " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
