package chatRepository

import (
	"context"
	"database/sql"
	"errors"

	"TrainChecker/internal/api/chat"
	"TrainChecker/internal/entity"
	contextPkg "TrainChecker/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *conversationRepository) CreateConversation(ctx context.Context, conversation entity.Conversation) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":                   conversation.ID,
		"user_id":              conversation.UserID,
		"intent":               conversation.Intent,
		"slots":                conversation.Slots,
		"confirmation_pending": conversation.ConfirmationPending,
		"confirmation_asked":   conversation.ConfirmationAsked,
		"created_at":           conversation.CreatedAt,
		"updated_at":           conversation.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateConversation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateConversation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating conversation")
		return err
	}

	return nil
}

func (r *conversationRepository) GetConversationByUserID(ctx context.Context, userID string) (entity.Conversation, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var conversation entity.Conversation

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryGetConversationByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetConversationByUserID named query preparation err")
		return entity.Conversation{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&conversation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
			}).Debug("GetConversationByUserID no conversation found")
			return entity.Conversation{}, chat.ErrConversationNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetConversationByUserID execution err")
		return entity.Conversation{}, err
	}

	return conversation, nil
}

func (r *conversationRepository) UpdateConversation(ctx context.Context, conversation entity.Conversation) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":                   conversation.ID,
		"intent":               conversation.Intent,
		"slots":                conversation.Slots,
		"confirmation_pending": conversation.ConfirmationPending,
		"confirmation_asked":   conversation.ConfirmationAsked,
		"updated_at":           conversation.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryUpdateConversation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateConversation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating conversation")
		return err
	}

	return nil
}

func (r *conversationRepository) DeleteConversation(ctx context.Context, userID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"user_id": userID,
	}

	query, args, err := sqlx.Named(queryDeleteConversationByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteConversation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when deleting conversation")
		return err
	}

	return nil
}
