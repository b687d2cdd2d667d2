package chatService

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"TrainChecker/internal/api/chat"
	chatRepository "TrainChecker/internal/api/chat/repository"
	"TrainChecker/internal/entity"
	contextPkg "TrainChecker/pkg/context"
	"TrainChecker/pkg/dialogue"
	"TrainChecker/pkg/nlp"

	"github.com/sirupsen/logrus"
)

func (s *chatService) SendMessage(ctx context.Context, userID string, req chat.SendMessageRequest) (*chat.MessageResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.chatRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}
	defer repo.Rollback()

	conversation, created, err := s.getOrCreateConversation(ctx, repo, userID)
	if err != nil {
		return nil, err
	}

	state, hit := s.cachedState(ctx, userID)
	if !hit {
		state, err = stateFromConversation(conversation)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Stored conversation state unreadable, starting fresh")
			state = dialogue.NewConversationState()
		}
	}

	state, turn := s.manager.Respond(state, req.Message)

	reply := turn.Reply
	if turn.Intent == nlp.IntentSmalltalk && s.geminiClient != nil {
		reply = s.smalltalkReply(ctx, req.Message)
	}

	now := time.Now()
	conversation.Intent = string(state.Intent)
	conversation.ConfirmationPending = state.ConfirmationPending
	conversation.ConfirmationAsked = state.ConfirmationAsked
	conversation.UpdatedAt = now

	slotsJSON, err := json.Marshal(state.Slots)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal conversation slots")
		return nil, chat.ErrSaveConversation
	}
	conversation.Slots = string(slotsJSON)

	if created {
		err = repo.Conversations.CreateConversation(ctx, conversation)
	} else {
		err = repo.Conversations.UpdateConversation(ctx, conversation)
	}
	if err != nil {
		return nil, chat.ErrSaveConversation
	}

	if err := s.saveTurnMessages(ctx, repo, conversation, userID, req.Message, reply, turn); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to save chat messages")
	}

	if err := repo.Commit(); err != nil {
		return nil, err
	}

	s.cacheState(ctx, userID, state)

	if turn.Ticket != nil && req.NotifyPhone != "" && s.whatsappClient != nil {
		if err := s.whatsappClient.SendBookingLink(ctx, req.NotifyPhone, turn.Ticket); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to send booking link over WhatsApp")
		}
	}

	return &chat.MessageResponse{
		ConversationID: conversation.ID,
		Reply:          reply,
		Intent:         string(turn.Intent),
		Confidence:     turn.Confidence,
		Prompt:         turn.Prompt,
		Ticket:         turn.Ticket,
	}, nil
}

func (s *chatService) Reset(ctx context.Context, userID string) (*chat.ResetResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.chatRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	if err := repo.Conversations.DeleteConversation(ctx, userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("Failed to reset conversation")
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.DeleteState(ctx, stateCacheKey(userID)); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
				"error":      err.Error(),
			}).Warn("Failed to drop cached conversation state")
		}
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
	}).Info("Conversation reset")

	return &chat.ResetResponse{Reply: dialogue.GreetingReply}, nil
}

func (s *chatService) GetHistory(ctx context.Context, userID string, page, limit int) (*chat.HistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo, err := s.chatRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	messages, total, err := repo.Messages.GetMessagesByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	history := make([]chat.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, chat.HistoryMessage{
			ID:         m.ID,
			Role:       m.Role,
			Body:       m.Body,
			Intent:     m.Intent,
			Confidence: m.Confidence,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}

	return &chat.HistoryResponse{
		Messages: history,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *chatService) getOrCreateConversation(ctx context.Context, repo chatRepository.Client, userID string) (entity.Conversation, bool, error) {
	conversation, err := repo.Conversations.GetConversationByUserID(ctx, userID)
	if err == nil {
		return conversation, false, nil
	}
	if !errors.Is(err, chat.ErrConversationNotFound) {
		return entity.Conversation{}, false, err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return entity.Conversation{}, false, err
	}

	now := time.Now()
	return entity.Conversation{
		ID:        id,
		UserID:    userID,
		Slots:     "{}",
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (s *chatService) saveTurnMessages(
	ctx context.Context,
	repo chatRepository.Client,
	conversation entity.Conversation,
	userID, userBody, botBody string,
	turn dialogue.Turn,
) error {
	now := time.Now()

	userMsgID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return err
	}
	if err := repo.Messages.CreateMessage(ctx, entity.ChatMessage{
		ID:             userMsgID,
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           entity.MessageRoleUser,
		Body:           userBody,
		Intent:         string(turn.Intent),
		Confidence:     turn.Confidence,
		CreatedAt:      now,
	}); err != nil {
		return err
	}

	botMsgID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return err
	}
	return repo.Messages.CreateMessage(ctx, entity.ChatMessage{
		ID:             botMsgID,
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           entity.MessageRoleBot,
		Body:           botBody,
		Intent:         string(turn.Intent),
		Confidence:     turn.Confidence,
		CreatedAt:      now,
	})
}

// cachedConversationState is the redis-side shape of a conversation's
// dialogue state. The postgres row stays the source of truth; the cache
// only skips re-parsing it on hot conversations.
type cachedConversationState struct {
	Intent              string    `json:"intent"`
	ConfirmationPending bool      `json:"confirmation_pending"`
	ConfirmationAsked   bool      `json:"confirmation_asked"`
	Slots               nlp.Slots `json:"slots"`
}

const stateCacheTTL = 30 * time.Minute

func stateCacheKey(userID string) string {
	return "state:" + userID
}

func (s *chatService) cachedState(ctx context.Context, userID string) (dialogue.ConversationState, bool) {
	if s.cache == nil {
		return dialogue.ConversationState{}, false
	}

	raw, err := s.cache.GetState(ctx, stateCacheKey(userID))
	if err != nil {
		return dialogue.ConversationState{}, false
	}

	var cached cachedConversationState
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Cached conversation state unreadable, falling back to the stored row")
		return dialogue.ConversationState{}, false
	}

	state := dialogue.NewConversationState()
	state.Intent = nlp.Intent(cached.Intent)
	state.ConfirmationPending = cached.ConfirmationPending
	state.ConfirmationAsked = cached.ConfirmationAsked
	state.Slots = cached.Slots

	return state, true
}

func (s *chatService) cacheState(ctx context.Context, userID string, state dialogue.ConversationState) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(cachedConversationState{
		Intent:              string(state.Intent),
		ConfirmationPending: state.ConfirmationPending,
		ConfirmationAsked:   state.ConfirmationAsked,
		Slots:               state.Slots,
	})
	if err != nil {
		return
	}

	if err := s.cache.SaveState(ctx, stateCacheKey(userID), string(raw), stateCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Failed to cache conversation state")
	}
}

// smalltalkReply rewrites the fixed reply through the generator and falls
// back to the fixed greeting when generation fails.
func (s *chatService) smalltalkReply(ctx context.Context, utterance string) string {
	reply, err := s.geminiClient.SmalltalkReply(ctx, utterance)
	if err != nil || reply == "" {
		s.log.WithFields(logrus.Fields{
			"error": errString(err),
		}).Warn("Smalltalk generation failed, using fixed greeting")
		return dialogue.GreetingReply
	}

	return reply
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func stateFromConversation(conversation entity.Conversation) (dialogue.ConversationState, error) {
	state := dialogue.NewConversationState()
	state.Intent = nlp.Intent(conversation.Intent)
	state.ConfirmationPending = conversation.ConfirmationPending
	state.ConfirmationAsked = conversation.ConfirmationAsked

	if conversation.Slots != "" {
		var slots nlp.Slots
		if err := json.Unmarshal([]byte(conversation.Slots), &slots); err != nil {
			return dialogue.NewConversationState(), err
		}
		state.Slots = slots
	}

	return state, nil
}
