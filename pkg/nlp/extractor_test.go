package nlp

import (
	"testing"
	"time"

	"TrainChecker/pkg/stations"

	"github.com/sirupsen/logrus"
)

func testExtractor() *Extractor {
	dir := stations.FromRows([][]string{
		{"Norwich Rail Station", "Norwich", "NRW", "NWI", "NRW"},
		{"London Liverpool Street", "London", "Liverpool Street", "LST", "LIVST"},
		{"Cambridge", `\N`, `\N`, "CBG", "CAMBDGE"},
		{"Ipswich", `\N`, `\N`, "IPS", "IPSWICH"},
	})

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	e := NewExtractor(dir, log)
	e.now = func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractFromToAssignsDirectly(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("I want a ticket from Norwich to London", IntentFindTicket)

	if slots.Departure != "NWI" {
		t.Errorf("Departure = %q, want NWI", slots.Departure)
	}
	if slots.Destination != "LST" {
		t.Errorf("Destination = %q, want LST", slots.Destination)
	}
	if len(slots.Stations) != 0 {
		t.Errorf("Stations should be empty, got %v", slots.Stations)
	}
}

func TestExtractTwoMatchesByPosition(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("cambridge then ipswich please", IntentFindTicket)

	if slots.Departure != "CBG" || slots.Destination != "IPS" {
		t.Errorf("got departure %q destination %q", slots.Departure, slots.Destination)
	}
}

func TestExtractSingleMatchIsStaged(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("I'm leaving from Cambridge", IntentFindTicket)

	if slots.Departure != "" || slots.Destination != "" {
		t.Errorf("single match must not assign directly: %+v", slots)
	}
	if len(slots.Stations) != 1 || slots.Stations[0] != "CBG" {
		t.Errorf("Stations = %v, want [CBG]", slots.Stations)
	}
}

func TestExtractFuzzyShortUtterance(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("norwch", IntentFindTicket)
	if len(slots.Stations) != 1 || slots.Stations[0] != "NWI" {
		t.Errorf("Stations = %v, want [NWI]", slots.Stations)
	}

	long := e.Extract("norwch is where I would quite like to begin my journey if that is acceptable", IntentFindTicket)
	if len(long.Stations) != 0 {
		t.Errorf("fuzzy matching must not run on long utterances, got %v", long.Stations)
	}
}

func TestExtractPredictDelayStations(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("I'm at Ipswich on train 90 heading to Norwich, 10 minutes late", IntentPredictDelay)

	if slots.CurrentStation != "IPS" {
		t.Errorf("CurrentStation = %q, want IPS", slots.CurrentStation)
	}
	if slots.Destination != "NWI" {
		t.Errorf("Destination = %q, want NWI", slots.Destination)
	}
	if slots.TrainID != "90" {
		t.Errorf("TrainID = %q, want 90", slots.TrainID)
	}
	if slots.DelayMinutes == nil || *slots.DelayMinutes != 10 {
		t.Errorf("DelayMinutes = %v, want 10", slots.DelayMinutes)
	}
}

func TestExtractTrainInfoOnlyForPredictDelay(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("train 90 is 10 minutes away", IntentFindTicket)
	if slots.TrainID != "" || slots.DelayMinutes != nil {
		t.Errorf("train info pass should not run for find_ticket: %+v", slots)
	}
}

func TestExtractTripType(t *testing.T) {
	e := testExtractor()

	tests := []struct {
		text string
		want string
	}{
		{"a return please", "return"},
		{"and back again", "return"},
		{"just a single", "single"},
		{"one-way to cambridge", "single"},
		{"no trip type here", ""},
	}

	for _, tt := range tests {
		slots := e.Extract(tt.text, IntentFindTicket)
		if slots.TripType != tt.want {
			t.Errorf("Extract(%q) TripType = %q, want %q", tt.text, slots.TripType, tt.want)
		}
	}
}

func TestExtractDateAndTime(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("15 July 2025, 10:00, single", IntentFindTicket)

	if slots.Date == nil || !slots.Date.Equal(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", slots.Date)
	}
	if slots.Time != "10:00" {
		t.Errorf("Time = %q, want 10:00", slots.Time)
	}
	if slots.TripType != "single" {
		t.Errorf("TripType = %q, want single", slots.TripType)
	}
}

func TestExtractReturnLegDates(t *testing.T) {
	e := testExtractor()

	slots := e.Extract("out 15 july at 10:00, back 20 july at 18:30", IntentFindTicket)

	if slots.ReturnDate == nil || slots.ReturnDate.Day() != 20 {
		t.Errorf("ReturnDate = %v", slots.ReturnDate)
	}
	if slots.ReturnTime != "18:30" {
		t.Errorf("ReturnTime = %q, want 18:30", slots.ReturnTime)
	}
}

func TestExtractWholePhraseBoundary(t *testing.T) {
	e := testExtractor()

	// "London" must not match inside another word.
	slots := e.Extract("the londoner pub is nice but I am not travelling anywhere near there today my friend", IntentFindTicket)
	if slots.Departure != "" || slots.Destination != "" || len(slots.Stations) != 0 {
		t.Errorf("substring inside a word must not match a station: %+v", slots)
	}
}

func TestMergeIdempotent(t *testing.T) {
	e := testExtractor()

	extracted := e.Extract("from Norwich to London on 15 July", IntentFindTicket)

	once := Slots{}.Merge(extracted)
	twice := once.Merge(extracted)

	if once.Departure != twice.Departure || once.Destination != twice.Destination ||
		once.Time != twice.Time || once.TripType != twice.TripType {
		t.Errorf("merge not idempotent: %+v vs %+v", once, twice)
	}
	if (once.Date == nil) != (twice.Date == nil) {
		t.Error("merge not idempotent on Date")
	}
}
