package nlp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"TrainChecker/pkg/stations"

	"github.com/sirupsen/logrus"
)

const (
	// Utterances shorter than this may be fuzzy-matched against station
	// names when no exact phrase matched.
	fuzzyMatchMaxLen = 40
	fuzzyMatchCutoff = 0.8
)

var (
	fromToPattern       = regexp.MustCompile(`\bfrom\s+([a-z' ]+?)\s+to\s+([a-z' ]+)`)
	returnTripPattern   = regexp.MustCompile(`\b(return|back)\b`)
	singleTripPattern   = regexp.MustCompile(`\b(single|one-way|one way)\b`)
	trainIDPattern      = regexp.MustCompile(`train\s*(\d+)`)
	delayMinutesPattern = regexp.MustCompile(`(\d+)\s*minutes?`)
)

// Extractor pulls slot values out of a single utterance. Pure function of
// text and intent aside from logging; malformed input never fails, a
// missing pattern simply leaves the slot empty.
type Extractor struct {
	directory *stations.Directory
	log       *logrus.Logger
	now       func() time.Time
}

func NewExtractor(directory *stations.Directory, log *logrus.Logger) *Extractor {
	return &Extractor{
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// Extract runs the date/time, station, trip-type and train-info passes and
// merges their disjoint outputs.
func (e *Extractor) Extract(text string, intent Intent) Slots {
	lower := strings.ToLower(text)

	var slots Slots
	slots = slots.Merge(e.extractDates(lower))
	slots = slots.Merge(e.extractStations(lower, intent))
	slots = slots.Merge(extractTripType(lower))
	if intent == IntentPredictDelay {
		slots = slots.Merge(extractTrainInfo(lower))
	}

	e.log.WithFields(logrus.Fields{
		"intent": intent,
		"slots":  slots,
	}).Debug("Slot extraction finished")

	return slots
}

func (e *Extractor) extractDates(lower string) Slots {
	var slots Slots

	candidates := SearchDates(lower, e.now())
	if len(candidates) == 0 {
		return slots
	}

	first := candidates[0]
	date := truncateToDay(first.At)
	slots.Date = &date
	if first.HasClock() {
		slots.Time = first.Clock()
	}

	if len(candidates) > 1 {
		second := candidates[1]
		returnDate := truncateToDay(second.At)
		slots.ReturnDate = &returnDate
		if second.HasClock() {
			slots.ReturnTime = second.Clock()
		}
	}

	return slots
}

type stationMatch struct {
	code string
	pos  int
}

func (e *Extractor) extractStations(lower string, intent Intent) Slots {
	var slots Slots

	matches := e.phraseMatches(lower)

	if intent == IntentPredictDelay {
		if len(matches) > 0 {
			slots.CurrentStation = matches[0].code
		}
		if len(matches) > 1 {
			slots.Destination = matches[1].code
		}
		return slots
	}

	// Explicit "from X to Y" beats positional assignment.
	if dep, dest, ok := e.matchFromTo(lower); ok {
		slots.Departure = dep
		slots.Destination = dest
		return slots
	}

	switch {
	case len(matches) >= 2:
		slots.Departure = matches[0].code
		slots.Destination = matches[1].code
	case len(matches) == 1:
		slots.Stations = []string{matches[0].code}
	default:
		if len(lower) < fuzzyMatchMaxLen {
			if code := e.fuzzyStation(lower); code != "" {
				slots.Stations = []string{code}
			}
		}
	}

	return slots
}

// phraseMatches finds known station names in the text as contiguous
// whole-word phrases, one entry per unique code, ordered by first
// appearance.
func (e *Extractor) phraseMatches(lower string) []stationMatch {
	firstPos := make(map[string]int)

	for _, variant := range e.directory.Variants() {
		if len(variant) < 3 {
			continue
		}
		pos := indexWholePhrase(lower, variant)
		if pos < 0 {
			continue
		}
		code, _ := e.directory.Lookup(variant)
		if prev, seen := firstPos[code]; !seen || pos < prev {
			firstPos[code] = pos
		}
	}

	matches := make([]stationMatch, 0, len(firstPos))
	for code, pos := range firstPos {
		matches = append(matches, stationMatch{code: code, pos: pos})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		return matches[i].code < matches[j].code
	})

	return matches
}

func (e *Extractor) matchFromTo(lower string) (string, string, bool) {
	m := fromToPattern.FindStringSubmatch(lower)
	if m == nil {
		return "", "", false
	}

	dep, depOK := e.resolveNamePrefix(m[1])
	dest, destOK := e.resolveNamePrefix(m[2])
	if !depOK || !destOK {
		return "", "", false
	}

	return dep, dest, true
}

// resolveNamePrefix looks a captured phrase up in the directory, trimming
// trailing words ("london please" -> "london") until something resolves.
func (e *Extractor) resolveNamePrefix(phrase string) (string, bool) {
	words := strings.Fields(strings.TrimSpace(phrase))
	for len(words) > 0 {
		if code, ok := e.directory.Lookup(strings.Join(words, " ")); ok {
			return code, true
		}
		words = words[:len(words)-1]
	}
	return "", false
}

func (e *Extractor) fuzzyStation(lower string) string {
	best := ""
	bestSim := 0.0

	tokens := strings.Fields(lower)
	tokens = append(tokens, strings.TrimSpace(lower))
	for _, token := range tokens {
		if len(token) < 3 {
			continue
		}
		code, sim := e.directory.Nearest(token)
		if sim >= fuzzyMatchCutoff && sim > bestSim {
			best = code
			bestSim = sim
		}
	}

	if best != "" {
		e.log.WithFields(logrus.Fields{
			"code":       best,
			"similarity": bestSim,
		}).Debug("Fuzzy station match")
	}

	return best
}

func extractTripType(lower string) Slots {
	var slots Slots

	if returnTripPattern.MatchString(lower) {
		slots.TripType = "return"
	} else if singleTripPattern.MatchString(lower) {
		slots.TripType = "single"
	}

	return slots
}

func extractTrainInfo(lower string) Slots {
	var slots Slots

	if m := trainIDPattern.FindStringSubmatch(lower); m != nil {
		slots.TrainID = m[1]
	}
	if m := delayMinutesPattern.FindStringSubmatch(lower); m != nil {
		if minutes, err := strconv.Atoi(m[1]); err == nil {
			slots.DelayMinutes = &minutes
		}
	}

	return slots
}

// indexWholePhrase finds needle in haystack requiring non-letter
// characters (or string edges) on both sides, so "ely" does not match
// inside "definitely".
func indexWholePhrase(haystack, needle string) int {
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return -1
		}
		abs := offset + idx

		beforeOK := abs == 0 || !isLetter(haystack[abs-1])
		afterEnd := abs + len(needle)
		afterOK := afterEnd == len(haystack) || !isLetter(haystack[afterEnd])
		if beforeOK && afterOK {
			return abs
		}

		offset = abs + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
