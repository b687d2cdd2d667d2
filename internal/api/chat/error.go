package chat

import "TrainChecker/pkg/response"

var (
	ErrEmptyMessage         = response.NewError(400, "message must not be empty")
	ErrMessageTooLong       = response.NewError(400, "message exceeds 500 characters")
	ErrConversationNotFound = response.NewError(404, "conversation not found")
	ErrSaveConversation     = response.NewError(500, "failed to save conversation")
	ErrSaveMessage          = response.NewError(500, "failed to save chat message")
)
