package chatHandler

import (
	"context"
	"time"

	"TrainChecker/internal/api/chat"
	"TrainChecker/internal/entity"
	contextPkg "TrainChecker/pkg/context"
	jwtPkg "TrainChecker/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// UpgradeWebsocket gates the upgrade and stashes the authenticated user
// in Locals so the socket handler can read it after the hijack.
func (h *ChatHandler) UpgradeWebsocket(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	ctx.Locals("ws_user", userData)
	ctx.Locals("ws_request_id", h.middleware.GetRequestID(ctx))
	return ctx.Next()
}

func validateUtterance(payload []byte) error {
	if len(payload) == 0 {
		return chat.ErrEmptyMessage
	}
	if len(payload) > 500 {
		return chat.ErrMessageTooLong
	}
	return nil
}

// Websocket runs one chat session over a socket: each text frame is an
// utterance, each reply a JSON MessageResponse.
func (h *ChatHandler) Websocket(conn *websocket.Conn) {
	defer conn.Close()

	userData, ok := conn.Locals("ws_user").(entity.UserLoginData)
	if !ok {
		return
	}
	requestID, _ := conn.Locals("ws_request_id").(string)

	h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userData.ID,
	}).Info("Chat websocket session opened")

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			h.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userData.ID,
			}).Debug("Chat websocket session closed")
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		// Mirrors the validator tags on SendMessageRequest; over the
		// socket there is no BodyParser/validator step to enforce them.
		if validationErr := validateUtterance(payload); validationErr != nil {
			if writeErr := conn.WriteJSON(fiber.Map{"error": validationErr.Error()}); writeErr != nil {
				return
			}
			continue
		}

		ctx, cancel := context.WithTimeout(
			contextPkg.WithRequestID(context.Background(), requestID),
			30*time.Second,
		)

		resp, err := h.chatService.SendMessage(ctx, userData.ID, chat.SendMessageRequest{
			Message: string(payload),
		})
		cancel()

		if err != nil {
			if writeErr := conn.WriteJSON(fiber.Map{"error": err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
