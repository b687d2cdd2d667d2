package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateCandidate is one dated expression found in an utterance, in order of
// position. A candidate whose clock is exactly midnight carries no explicit
// time of day: bare dates parse to midnight and must not be mistaken for a
// chosen departure time.
type DateCandidate struct {
	Span string
	At   time.Time
	Pos  int
}

// HasClock reports whether the candidate carries an explicit time of day.
func (c DateCandidate) HasClock() bool {
	return c.At.Hour() != 0 || c.At.Minute() != 0
}

// Clock formats the candidate's time of day as HH:MM.
func (c DateCandidate) Clock() string {
	return c.At.Format("15:04")
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	// 2025-07-15
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// 15 July 2025, 15th of July, 3 jan
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?(?:,?\s+(\d{4}))?\b`)
	// July 15 2025, jan 3
	monthDayPattern = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	// 15/07/2025, 15/7
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	relativePattern  = regexp.MustCompile(`\b(today|tomorrow)\b`)
	// 10:00, 9.30
	clockPattern = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	// 10am, 6 pm
	meridiemPattern = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

type span struct {
	pos  int
	end  int
	date time.Time
	text string
}

type clockSpan struct {
	pos    int
	hour   int
	minute int
	text   string
}

// SearchDates scans text for dated and timed expressions and returns
// candidates ordered by position. Times pair with date expressions in
// order of appearance; a time with no date at all attaches to now's date.
func SearchDates(text string, now time.Time) []DateCandidate {
	lower := strings.ToLower(text)

	dates := findDateSpans(lower, now)
	clocks := findClockSpans(lower)

	if len(dates) == 0 && len(clocks) == 0 {
		return nil
	}

	if len(dates) == 0 {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		dates = []span{{pos: clocks[0].pos, date: today, text: ""}}
	}

	candidates := make([]DateCandidate, 0, len(dates))
	for i, d := range dates {
		at := d.date
		spanText := d.text
		if i < len(clocks) {
			at = at.Add(time.Duration(clocks[i].hour)*time.Hour + time.Duration(clocks[i].minute)*time.Minute)
			if spanText == "" {
				spanText = clocks[i].text
			}
		}
		candidates = append(candidates, DateCandidate{
			Span: spanText,
			At:   at,
			Pos:  d.pos,
		})
	}

	return candidates
}

func findDateSpans(lower string, now time.Time) []span {
	var spans []span

	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(lower, -1) {
		year, _ := strconv.Atoi(lower[m[2]:m[3]])
		month, _ := strconv.Atoi(lower[m[4]:m[5]])
		day, _ := strconv.Atoi(lower[m[6]:m[7]])
		spans = appendDateSpan(spans, m[0], m[1], lower, year, time.Month(month), day, now)
	}

	for _, m := range dayMonthPattern.FindAllStringSubmatchIndex(lower, -1) {
		day, _ := strconv.Atoi(lower[m[2]:m[3]])
		month := monthNames[lower[m[4]:m[5]]]
		year := yearOrDefault(lower, m[6], m[7], now, month, day)
		spans = appendDateSpan(spans, m[0], m[1], lower, year, month, day, now)
	}

	for _, m := range monthDayPattern.FindAllStringSubmatchIndex(lower, -1) {
		month := monthNames[lower[m[2]:m[3]]]
		day, _ := strconv.Atoi(lower[m[4]:m[5]])
		year := yearOrDefault(lower, m[6], m[7], now, month, day)
		spans = appendDateSpan(spans, m[0], m[1], lower, year, month, day, now)
	}

	for _, m := range slashDatePattern.FindAllStringSubmatchIndex(lower, -1) {
		day, _ := strconv.Atoi(lower[m[2]:m[3]])
		month, _ := strconv.Atoi(lower[m[4]:m[5]])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		year := now.Year()
		if m[6] >= 0 {
			year, _ = strconv.Atoi(lower[m[6]:m[7]])
			if year < 100 {
				year += 2000
			}
		}
		spans = appendDateSpan(spans, m[0], m[1], lower, year, time.Month(month), day, now)
	}

	for _, m := range relativePattern.FindAllStringSubmatchIndex(lower, -1) {
		date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if lower[m[2]:m[3]] == "tomorrow" {
			date = date.AddDate(0, 0, 1)
		}
		spans = append(spans, span{pos: m[0], end: m[1], date: date, text: lower[m[0]:m[1]]})
	}

	spans = dedupeOverlaps(spans)
	return spans
}

func findClockSpans(lower string) []clockSpan {
	var clocks []clockSpan

	for _, m := range clockPattern.FindAllStringSubmatchIndex(lower, -1) {
		hour, _ := strconv.Atoi(lower[m[2]:m[3]])
		minute, _ := strconv.Atoi(lower[m[4]:m[5]])
		if hour > 23 || minute > 59 {
			continue
		}
		clocks = append(clocks, clockSpan{pos: m[0], hour: hour, minute: minute, text: lower[m[0]:m[1]]})
	}

	for _, m := range meridiemPattern.FindAllStringSubmatchIndex(lower, -1) {
		hour, _ := strconv.Atoi(lower[m[2]:m[3]])
		if hour < 1 || hour > 12 {
			continue
		}
		if lower[m[4]:m[5]] == "pm" && hour != 12 {
			hour += 12
		}
		if lower[m[4]:m[5]] == "am" && hour == 12 {
			hour = 0
		}
		clocks = append(clocks, clockSpan{pos: m[0], hour: hour, minute: 0, text: lower[m[0]:m[1]]})
	}

	sortClockSpans(clocks)
	return clocks
}

func appendDateSpan(spans []span, start, end int, lower string, year int, month time.Month, day int, now time.Time) []span {
	if day < 1 || day > 31 {
		return spans
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return append(spans, span{pos: start, end: end, date: date, text: lower[start:end]})
}

// yearOrDefault fills an omitted year with the current one, rolling over
// to next year when the date has already passed.
func yearOrDefault(lower string, start, end int, now time.Time, month time.Month, day int) int {
	if start >= 0 {
		year, _ := strconv.Atoi(lower[start:end])
		return year
	}

	year := now.Year()
	candidate := time.Date(year, month, day, 23, 59, 0, 0, now.Location())
	if candidate.Before(now) {
		year++
	}
	return year
}

// dedupeOverlaps keeps the earliest-starting, longest span when patterns
// overlap (e.g. the slash pattern inside an ISO date), then sorts by
// position.
func dedupeOverlaps(spans []span) []span {
	sortSpans(spans)

	var out []span
	lastEnd := -1
	for _, s := range spans {
		if s.pos < lastEnd {
			continue
		}
		out = append(out, s)
		lastEnd = s.end
	}
	return out
}

func sortSpans(spans []span) {
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0; j-- {
			if spans[j].pos < spans[j-1].pos ||
				(spans[j].pos == spans[j-1].pos && spans[j].end > spans[j-1].end) {
				spans[j], spans[j-1] = spans[j-1], spans[j]
			} else {
				break
			}
		}
	}
}

func sortClockSpans(clocks []clockSpan) {
	for i := 1; i < len(clocks); i++ {
		for j := i; j > 0 && clocks[j].pos < clocks[j-1].pos; j-- {
			clocks[j], clocks[j-1] = clocks[j-1], clocks[j]
		}
	}
}
