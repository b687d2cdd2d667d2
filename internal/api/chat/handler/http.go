package chatHandler

import (
	chatService "TrainChecker/internal/api/chat/service"
	"TrainChecker/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ChatHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	chatService chatService.IChatService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	cs chatService.IChatService,
) *ChatHandler {
	return &ChatHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		chatService: cs,
	}
}

func (h *ChatHandler) Start(srv fiber.Router) {
	chat := srv.Group("/chat")

	chat.Use(h.middleware.NewRateLimiter)
	chat.Use(h.middleware.NewTokenMiddleware)

	chat.Post("/message", h.SendMessage)
	chat.Post("/reset", h.Reset)
	chat.Get("/history", h.GetHistory)

	chat.Use("/ws", h.UpgradeWebsocket)
	chat.Get("/ws", websocket.New(h.Websocket))
}
