package chatService

import (
	"context"

	"TrainChecker/internal/api/chat"
	chatRepository "TrainChecker/internal/api/chat/repository"
	"TrainChecker/pkg/dialogue"
	"TrainChecker/pkg/gemini"
	"TrainChecker/pkg/redis"
	"TrainChecker/pkg/utils"
	"TrainChecker/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

type IChatService interface {
	SendMessage(ctx context.Context, userID string, req chat.SendMessageRequest) (*chat.MessageResponse, error)
	Reset(ctx context.Context, userID string) (*chat.ResetResponse, error)
	GetHistory(ctx context.Context, userID string, page, limit int) (*chat.HistoryResponse, error)
}

type chatService struct {
	log            *logrus.Logger
	chatRepo       chatRepository.Repository
	manager        *dialogue.Manager
	geminiClient   gemini.IGemini
	whatsappClient whatsapp.IWhatsappSender
	cache          redis.IRedis
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	chatRepo chatRepository.Repository,
	manager *dialogue.Manager,
	geminiClient gemini.IGemini,
	whatsappClient whatsapp.IWhatsappSender,
	cache redis.IRedis,
	utils utils.IUtils,
) IChatService {
	return &chatService{
		log:            log,
		chatRepo:       chatRepo,
		manager:        manager,
		geminiClient:   geminiClient,
		whatsappClient: whatsappClient,
		cache:          cache,
		utils:          utils,
	}
}
