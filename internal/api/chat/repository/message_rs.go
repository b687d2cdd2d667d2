package chatRepository

import (
	"context"

	"TrainChecker/internal/entity"
	contextPkg "TrainChecker/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *messageRepository) CreateMessage(ctx context.Context, message entity.ChatMessage) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":              message.ID,
		"conversation_id": message.ConversationID,
		"user_id":         message.UserID,
		"role":            message.Role,
		"body":            message.Body,
		"intent":          message.Intent,
		"confidence":      message.Confidence,
		"created_at":      message.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateMessage, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateMessage named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating chat message")
		return err
	}

	return nil
}

func (r *messageRepository) GetMessagesByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.ChatMessage, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var messages []entity.ChatMessage

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}

	query, args, err := sqlx.Named(queryGetMessagesByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetMessagesByUserID named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &messages, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetMessagesByUserID execution err")
		return nil, 0, err
	}

	countQuery, countArgs, err := sqlx.Named(queryCountMessagesByUserID, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return nil, 0, err
	}
	countQuery = r.q.Rebind(countQuery)

	var total int
	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetMessagesByUserID count err")
		return nil, 0, err
	}

	return messages, total, nil
}
