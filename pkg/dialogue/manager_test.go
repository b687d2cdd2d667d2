package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"TrainChecker/pkg/nlp"
	"TrainChecker/pkg/stations"
	"TrainChecker/pkg/ticketsearch"
	"TrainChecker/pkg/worker"

	"github.com/sirupsen/logrus"
)

type mockSearcher struct {
	delay  time.Duration
	ticket *ticketsearch.Ticket
	err    error
	calls  int
}

func (m *mockSearcher) Search(ctx context.Context, q ticketsearch.Query) (*ticketsearch.Ticket, error) {
	m.calls++
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.ticket, nil
}

func testDirectory(t *testing.T) *stations.Directory {
	t.Helper()

	return stations.FromRows([][]string{
		{"Norwich Rail Station", "Norwich", "NRW", "NWI", "NRW"},
		{"London Liverpool Street Rail Station", "London Liverpool Street", "London", "LST", `\N`},
		{"Cambridge Rail Station", "Cambridge", "CBG", "CBG", `\N`},
		{"Ipswich Rail Station", "Ipswich", "IPS", "IPS", `\N`},
	})
}

func testManager(t *testing.T, searcher ticketsearch.ITicketSearch, timeout time.Duration) *Manager {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	dir := testDirectory(t)
	pool := worker.NewPool(2)
	t.Cleanup(pool.Close)

	return NewManager(
		nlp.NewClassifier(),
		nlp.NewExtractor(dir, log),
		dir,
		searcher,
		pool,
		timeout,
		log,
	)
}

func TestRespondFirstTurnFallback(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state, turn := m.Respond(NewConversationState(), "what's the weather like today")

	if turn.Reply != "I'm sorry, I didn't understand that. Can you rephrase?" {
		t.Errorf("Reply = %q", turn.Reply)
	}
	if state.State() != StateIdle {
		t.Errorf("State = %v, want Idle", state.State())
	}
	if state.Intent != "" {
		t.Errorf("Intent = %q, want empty", state.Intent)
	}
}

func TestRespondCommitsStickyIntent(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state, _ := m.Respond(NewConversationState(), "I need a ticket")
	if state.Intent != nlp.IntentFindTicket {
		t.Fatalf("Intent = %q, want find_ticket", state.Intent)
	}

	// Delay keywords mid-conversation must not override the committed
	// intent.
	state, _ = m.Respond(state, "the train might be delayed but I still want it")
	if state.Intent != nlp.IntentFindTicket {
		t.Errorf("Intent after second turn = %q, want find_ticket", state.Intent)
	}
}

func TestRespondConfirmationQuestion(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state, turn := m.Respond(NewConversationState(), "I want a ticket from Norwich to London")

	if state.Slots.Departure != "NWI" || state.Slots.Destination != "LST" {
		t.Fatalf("slots = %q -> %q, want NWI -> LST", state.Slots.Departure, state.Slots.Destination)
	}
	if !state.ConfirmationPending {
		t.Error("ConfirmationPending = false, want true")
	}
	if state.State() != StateConfirming {
		t.Errorf("State = %v, want Confirming", state.State())
	}
	if !strings.Contains(turn.Reply, "Norwich") || !strings.Contains(turn.Reply, "London Liverpool Street") {
		t.Errorf("Reply = %q, want both display names", turn.Reply)
	}
}

func TestRespondConfirmationNo(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state := NewConversationState()
	state.Intent = nlp.IntentFindTicket
	state.Slots.Departure = "NWI"
	state.Slots.Destination = "LST"
	state.ConfirmationPending = true
	state.ConfirmationAsked = true

	state, turn := m.Respond(state, "no that's not correct")

	if state.Slots.Departure != "" || state.Slots.Destination != "" {
		t.Errorf("slots = %q -> %q, want both cleared", state.Slots.Departure, state.Slots.Destination)
	}
	if state.ConfirmationPending {
		t.Error("ConfirmationPending = true, want false")
	}
	if !strings.Contains(turn.Reply, "travelling from") {
		t.Errorf("Reply = %q, want departure prompt", turn.Reply)
	}
	if !turn.Prompt {
		t.Error("Prompt = false, want true")
	}
}

func TestRespondConfirmationYesPromptsDate(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state := NewConversationState()
	state.Intent = nlp.IntentFindTicket
	state.Slots.Departure = "NWI"
	state.Slots.Destination = "LST"
	state.ConfirmationPending = true
	state.ConfirmationAsked = true

	state, turn := m.Respond(state, "yes")

	if state.ConfirmationPending {
		t.Error("ConfirmationPending = true, want false")
	}
	if !strings.Contains(turn.Reply, "date") {
		t.Errorf("Reply = %q, want date prompt", turn.Reply)
	}
}

func TestRespondConfirmationOtherInputFallsThrough(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state := NewConversationState()
	state.Intent = nlp.IntentFindTicket
	state.Slots.Departure = "NWI"
	state.Slots.Destination = "LST"
	state.ConfirmationPending = true
	state.ConfirmationAsked = true

	// A date instead of yes/no is merged rather than rejected.
	state, _ = m.Respond(state, "15 July 2025")

	if state.Slots.Date == nil {
		t.Fatal("Date = nil, want merged date")
	}
	if got := state.Slots.Date.Format("2006-01-02"); got != "2025-07-15" {
		t.Errorf("Date = %s, want 2025-07-15", got)
	}
}

func TestRespondPromptOrder(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state := NewConversationState()
	state.Intent = nlp.IntentFindTicket
	state.Slots.Departure = "NWI"
	state.Slots.Destination = "LST"
	state.ConfirmationAsked = true

	state, turn := m.Respond(state, "any day really")
	if !strings.Contains(turn.Reply, "date") {
		t.Fatalf("first prompt = %q, want date", turn.Reply)
	}

	state, turn = m.Respond(state, "15 July 2025")
	if !strings.Contains(turn.Reply, "time") {
		t.Fatalf("second prompt = %q, want time", turn.Reply)
	}

	_, turn = m.Respond(state, "10:00")
	if !strings.Contains(turn.Reply, "single or a return") {
		t.Fatalf("third prompt = %q, want trip type", turn.Reply)
	}
}

func TestRespondSingleStationStaged(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state, turn := m.Respond(NewConversationState(), "I want to book a ticket to Norwich")

	if state.Slots.Departure != "NWI" {
		t.Errorf("Departure = %q, want NWI (first staged code)", state.Slots.Departure)
	}
	if len(state.Slots.Stations) != 0 {
		t.Errorf("Stations = %v, want resolved and cleared", state.Slots.Stations)
	}
	if !strings.Contains(turn.Reply, "travelling to") {
		t.Errorf("Reply = %q, want destination prompt", turn.Reply)
	}
}

func TestRespondDispatchSuccess(t *testing.T) {
	searcher := &mockSearcher{
		ticket: &ticketsearch.Ticket{Price: "£23.50", URL: "https://www.thetrainline.com/book/NWI-LST"},
	}
	m := testManager(t, searcher, time.Second)

	state := completedState()

	state, turn := m.Respond(state, "single please")

	if searcher.calls != 1 {
		t.Fatalf("search calls = %d, want 1", searcher.calls)
	}
	if !strings.Contains(turn.Reply, "£23.50") || !strings.Contains(turn.Reply, searcher.ticket.URL) {
		t.Errorf("Reply = %q, want price and link", turn.Reply)
	}
	if turn.Ticket == nil {
		t.Error("Ticket = nil, want populated")
	}
	if state.Intent != "" || state.State() != StateIdle {
		t.Errorf("state after dispatch = %v/%q, want reset", state.State(), state.Intent)
	}
}

func TestRespondDispatchTimeout(t *testing.T) {
	searcher := &mockSearcher{
		delay:  200 * time.Millisecond,
		ticket: &ticketsearch.Ticket{Price: "£10.00", URL: "https://example.test"},
	}
	m := testManager(t, searcher, 50*time.Millisecond)

	state := completedState()

	state, turn := m.Respond(state, "single please")

	if turn.Reply != "I'm sorry, the ticket search is taking too long. Please try again later." {
		t.Errorf("Reply = %q", turn.Reply)
	}
	if state.Intent != "" {
		t.Errorf("Intent = %q, want reset", state.Intent)
	}
}

func TestRespondDispatchSaturatedPoolTimesOut(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	dir := testDirectory(t)
	pool := worker.NewPool(2)
	t.Cleanup(pool.Close)

	// Hold both workers so the dispatch cannot even be submitted.
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	for i := 0; i < 2; i++ {
		pool.Submit(func() (interface{}, error) {
			<-release
			return nil, nil
		})
	}

	searcher := &mockSearcher{
		ticket: &ticketsearch.Ticket{Price: "£10.00", URL: "https://example.test"},
	}
	m := NewManager(
		nlp.NewClassifier(),
		nlp.NewExtractor(dir, log),
		dir,
		searcher,
		pool,
		100*time.Millisecond,
		log,
	)

	start := time.Now()
	state, turn := m.Respond(completedState(), "single please")
	elapsed := time.Since(start)

	if turn.Reply != "I'm sorry, the ticket search is taking too long. Please try again later." {
		t.Errorf("Reply = %q", turn.Reply)
	}
	if elapsed > time.Second {
		t.Errorf("Respond blocked for %v, want the 100ms timeout to bound it", elapsed)
	}
	if searcher.calls != 0 {
		t.Errorf("search calls = %d, want 0 for an unsubmitted job", searcher.calls)
	}
	if state.Intent != "" {
		t.Errorf("Intent = %q, want reset", state.Intent)
	}
}

func TestRespondDispatchFailure(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("scrape failed")}
	m := testManager(t, searcher, time.Second)

	state := completedState()

	state, turn := m.Respond(state, "single please")

	if turn.Reply != "I'm sorry, something went wrong while searching for tickets. Please try again." {
		t.Errorf("Reply = %q", turn.Reply)
	}
	if state.Intent != "" {
		t.Errorf("Intent = %q, want reset", state.Intent)
	}
}

func TestRespondUnimplementedIntent(t *testing.T) {
	m := testManager(t, &mockSearcher{}, time.Second)

	state, turn := m.Respond(NewConversationState(), "is my train delayed by 10 minutes")

	if turn.Reply != "I'm sorry, I don't know how to help with that yet." {
		t.Errorf("Reply = %q", turn.Reply)
	}
	if turn.Intent != nlp.IntentPredictDelay {
		t.Errorf("Intent = %q, want predict_delay", turn.Intent)
	}
	if state.Intent != "" {
		t.Errorf("state intent = %q, want reset", state.Intent)
	}
}

func TestRespondEndToEnd(t *testing.T) {
	searcher := &mockSearcher{
		ticket: &ticketsearch.Ticket{Price: "£18.20", URL: "https://www.thetrainline.com/book"},
	}
	m := testManager(t, searcher, time.Second)

	state := NewConversationState()

	state, turn := m.Respond(state, "I want a ticket from Norwich to London")
	if !state.ConfirmationPending {
		t.Fatalf("turn 1: not confirming, reply %q", turn.Reply)
	}

	state, turn = m.Respond(state, "yes")
	if !strings.Contains(turn.Reply, "date") {
		t.Fatalf("turn 2: reply %q, want date prompt", turn.Reply)
	}

	state, turn = m.Respond(state, "15 July 2025, 10:00, single")
	if searcher.calls != 1 {
		t.Fatalf("turn 3: search calls = %d, want 1", searcher.calls)
	}
	if !strings.Contains(turn.Reply, "£18.20") {
		t.Errorf("turn 3: reply %q, want fare", turn.Reply)
	}
	if state.State() != StateIdle {
		t.Errorf("turn 3: state = %v, want Idle", state.State())
	}
}

func completedState() ConversationState {
	date := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	state := NewConversationState()
	state.Intent = nlp.IntentFindTicket
	state.Slots.Departure = "NWI"
	state.Slots.Destination = "LST"
	state.Slots.Date = &date
	state.Slots.Time = "10:00"
	state.ConfirmationAsked = true
	return state
}
