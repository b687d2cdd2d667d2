package chatService

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"TrainChecker/internal/api/chat"
	chatRepository "TrainChecker/internal/api/chat/repository"
	"TrainChecker/internal/entity"
	"TrainChecker/pkg/dialogue"
	"TrainChecker/pkg/gemini"
	"TrainChecker/pkg/nlp"
	"TrainChecker/pkg/redis"
	"TrainChecker/pkg/stations"
	"TrainChecker/pkg/ticketsearch"
	"TrainChecker/pkg/utils"
	"TrainChecker/pkg/worker"

	"github.com/sirupsen/logrus"
)

type fakeConversations struct {
	byUser map[string]entity.Conversation
}

func (f *fakeConversations) CreateConversation(ctx context.Context, c entity.Conversation) error {
	f.byUser[c.UserID] = c
	return nil
}

func (f *fakeConversations) GetConversationByUserID(ctx context.Context, userID string) (entity.Conversation, error) {
	c, ok := f.byUser[userID]
	if !ok {
		return entity.Conversation{}, chat.ErrConversationNotFound
	}
	return c, nil
}

func (f *fakeConversations) UpdateConversation(ctx context.Context, c entity.Conversation) error {
	stored := f.byUser[c.UserID]
	if stored.ID != c.ID {
		// Update keys on ID in production; the fake is per-user.
		f.byUser[c.UserID] = c
		return nil
	}
	f.byUser[c.UserID] = c
	return nil
}

func (f *fakeConversations) DeleteConversation(ctx context.Context, userID string) error {
	delete(f.byUser, userID)
	return nil
}

type fakeMessages struct {
	saved []entity.ChatMessage
}

func (f *fakeMessages) CreateMessage(ctx context.Context, m entity.ChatMessage) error {
	f.saved = append(f.saved, m)
	return nil
}

func (f *fakeMessages) GetMessagesByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.ChatMessage, int, error) {
	var out []entity.ChatMessage
	for _, m := range f.saved {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type fakeRepository struct {
	conversations *fakeConversations
	messages      *fakeMessages
}

func (f *fakeRepository) NewClient(tx bool) (chatRepository.Client, error) {
	return chatRepository.Client{
		Conversations: f.conversations,
		Messages:      f.messages,
		Commit:        func() error { return nil },
		Rollback:      func() error { return nil },
	}, nil
}

type stubSearcher struct {
	ticket *ticketsearch.Ticket
}

func (s *stubSearcher) Search(ctx context.Context, q ticketsearch.Query) (*ticketsearch.Ticket, error) {
	return s.ticket, nil
}

type fakeCache struct {
	states map[string]string
	fares  map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{states: map[string]string{}, fares: map[string]string{}}
}

func (f *fakeCache) SetFare(ctx context.Context, key, fare string, expiration time.Duration) error {
	f.fares[key] = fare
	return nil
}

func (f *fakeCache) GetFare(ctx context.Context, key string) (string, error) {
	fare, ok := f.fares[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return fare, nil
}

func (f *fakeCache) SaveState(ctx context.Context, key, state string, expiration time.Duration) error {
	f.states[key] = state
	return nil
}

func (f *fakeCache) GetState(ctx context.Context, key string) (string, error) {
	state, ok := f.states[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return state, nil
}

func (f *fakeCache) DeleteState(ctx context.Context, key string) error {
	delete(f.states, key)
	return nil
}

type stubGemini struct {
	reply string
}

func (s *stubGemini) SmalltalkReply(ctx context.Context, utterance string) (string, error) {
	return s.reply, nil
}

func newTestService(t *testing.T) (IChatService, *fakeRepository) {
	svc, repo := newTestServiceWith(t, nil, nil)
	return svc, repo
}

func newTestServiceWith(t *testing.T, geminiClient gemini.IGemini, cache redis.IRedis) (IChatService, *fakeRepository) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	dir := stations.FromRows([][]string{
		{"Norwich Rail Station", "Norwich", "NRW", "NWI", "NRW"},
		{"London Liverpool Street Rail Station", "London Liverpool Street", "London", "LST", `\N`},
	})

	pool := worker.NewPool(2)
	t.Cleanup(pool.Close)

	manager := dialogue.NewManager(
		nlp.NewClassifier(),
		nlp.NewExtractor(dir, log),
		dir,
		&stubSearcher{ticket: &ticketsearch.Ticket{Price: "£20.00", URL: "https://example.test/book"}},
		pool,
		time.Second,
		log,
	)

	repo := &fakeRepository{
		conversations: &fakeConversations{byUser: map[string]entity.Conversation{}},
		messages:      &fakeMessages{},
	}

	svc := New(log, repo, manager, geminiClient, nil, cache, utils.New())
	return svc, repo
}

func TestSendMessagePersistsConversation(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want a ticket from Norwich to London",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if !strings.Contains(resp.Reply, "Norwich") {
		t.Errorf("Reply = %q, want confirmation naming Norwich", resp.Reply)
	}
	if resp.Intent != string(nlp.IntentFindTicket) {
		t.Errorf("Intent = %q, want find_ticket", resp.Intent)
	}

	stored, ok := repo.conversations.byUser["user-1"]
	if !ok {
		t.Fatal("conversation was not persisted")
	}
	if !stored.ConfirmationPending {
		t.Error("stored ConfirmationPending = false, want true")
	}
	if !strings.Contains(stored.Slots, "NWI") || !strings.Contains(stored.Slots, "LST") {
		t.Errorf("stored Slots = %q, want NWI and LST", stored.Slots)
	}
}

func TestSendMessageResumesStoredState(t *testing.T) {
	svc, repo := newTestService(t)

	if _, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want a ticket from Norwich to London",
	}); err != nil {
		t.Fatalf("turn 1: %v", err)
	}

	resp, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{Message: "yes"})
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	if !strings.Contains(resp.Reply, "date") {
		t.Errorf("Reply = %q, want date prompt after confirmation", resp.Reply)
	}
	if repo.conversations.byUser["user-1"].ConfirmationPending {
		t.Error("ConfirmationPending still true after yes")
	}
}

func TestSendMessageLogsBothSides(t *testing.T) {
	svc, repo := newTestService(t)

	if _, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want to book a ticket",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(repo.messages.saved) != 2 {
		t.Fatalf("saved messages = %d, want 2", len(repo.messages.saved))
	}
	if repo.messages.saved[0].Role != entity.MessageRoleUser {
		t.Errorf("first role = %q, want user", repo.messages.saved[0].Role)
	}
	if repo.messages.saved[1].Role != entity.MessageRoleBot {
		t.Errorf("second role = %q, want bot", repo.messages.saved[1].Role)
	}
}

func TestSendMessageSmalltalkWithoutGenerator(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "hello there, how are you",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Without a generator the core's fixed reply passes through unchanged.
	if resp.Reply != "I'm sorry, I don't know how to help with that yet." {
		t.Errorf("Reply = %q, want the fixed unsupported reply", resp.Reply)
	}
}

func TestSendMessageSmalltalkGeneratedReply(t *testing.T) {
	svc, _ := newTestServiceWith(t, &stubGemini{reply: "Hi! Where are you off to today?"}, nil)

	resp, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "hello there, how are you",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if resp.Reply != "Hi! Where are you off to today?" {
		t.Errorf("Reply = %q, want the generated reply", resp.Reply)
	}
}

func TestSendMessageCachesState(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newTestServiceWith(t, nil, cache)

	if _, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want a ticket from Norwich to London",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	cached, ok := cache.states["state:user-1"]
	if !ok {
		t.Fatal("state was not cached after the turn")
	}
	if !strings.Contains(cached, "NWI") || !strings.Contains(cached, "LST") {
		t.Errorf("cached state = %q, want NWI and LST", cached)
	}
}

func TestSendMessageReadsCachedState(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newTestServiceWith(t, nil, cache)

	raw, err := json.Marshal(cachedConversationState{
		Intent:              string(nlp.IntentFindTicket),
		ConfirmationPending: true,
		ConfirmationAsked:   true,
		Slots:               nlp.Slots{Departure: "NWI", Destination: "LST"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cache.states["state:user-1"] = string(raw)

	resp, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{Message: "yes"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// The stored row is empty; only the cached state can make "yes"
	// resolve the pending confirmation and prompt for a date.
	if !strings.Contains(resp.Reply, "date") {
		t.Errorf("Reply = %q, want date prompt resumed from cache", resp.Reply)
	}
}

func TestResetDropsCachedState(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newTestServiceWith(t, nil, cache)

	if _, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want a ticket from Norwich to London",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if _, err := svc.Reset(context.Background(), "user-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if _, ok := cache.states["state:user-1"]; ok {
		t.Error("cached state still present after reset")
	}
}

func TestResetDiscardsConversation(t *testing.T) {
	svc, repo := newTestService(t)

	if _, err := svc.SendMessage(context.Background(), "user-1", chat.SendMessageRequest{
		Message: "I want a ticket from Norwich to London",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	resp, err := svc.Reset(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if resp.Reply != dialogue.GreetingReply {
		t.Errorf("Reply = %q, want greeting", resp.Reply)
	}
	if _, ok := repo.conversations.byUser["user-1"]; ok {
		t.Error("conversation still stored after reset")
	}
}

func TestGetHistoryPagination(t *testing.T) {
	svc, repo := newTestService(t)

	for i := 0; i < 3; i++ {
		repo.messages.saved = append(repo.messages.saved, entity.ChatMessage{
			ID:        string(rune('a' + i)),
			UserID:    "user-1",
			Role:      entity.MessageRoleUser,
			Body:      "hi",
			CreatedAt: time.Now(),
		})
	}

	resp, err := svc.GetHistory(context.Background(), "user-1", 1, 2)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if len(resp.Messages) != 2 {
		t.Errorf("Messages = %d, want 2", len(resp.Messages))
	}
}
