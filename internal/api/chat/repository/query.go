package chatRepository

const (
	queryCreateConversation = `
		INSERT INTO conversations (
			id, user_id, intent, slots, confirmation_pending,
			confirmation_asked, created_at, updated_at
		) VALUES (
			:id, :user_id, :intent, :slots, :confirmation_pending,
			:confirmation_asked, :created_at, :updated_at
		)
	`

	queryGetConversationByUserID = `
		SELECT
			id, user_id, intent, slots, confirmation_pending,
			confirmation_asked, created_at, updated_at
		FROM conversations
		WHERE user_id = :user_id
		ORDER BY updated_at DESC
		LIMIT 1
	`

	queryUpdateConversation = `
		UPDATE conversations
		SET
			intent = :intent,
			slots = :slots,
			confirmation_pending = :confirmation_pending,
			confirmation_asked = :confirmation_asked,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryDeleteConversationByUserID = `
		DELETE FROM conversations
		WHERE user_id = :user_id
	`

	queryCreateMessage = `
		INSERT INTO chat_messages (
			id, conversation_id, user_id, role, body,
			intent, confidence, created_at
		) VALUES (
			:id, :conversation_id, :user_id, :role, :body,
			:intent, :confidence, :created_at
		)
	`

	queryGetMessagesByUserID = `
		SELECT
			id, conversation_id, user_id, role, body,
			intent, confidence, created_at
		FROM chat_messages
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountMessagesByUserID = `
		SELECT COUNT(*)
		FROM chat_messages
		WHERE user_id = :user_id
	`
)
