package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"TrainChecker/database/postgres"
	chatHandler "TrainChecker/internal/api/chat/handler"
	chatRepository "TrainChecker/internal/api/chat/repository"
	chatService "TrainChecker/internal/api/chat/service"
	timetableHandler "TrainChecker/internal/api/timetable/handler"
	timetableService "TrainChecker/internal/api/timetable/service"
	"TrainChecker/internal/middleware"
	"TrainChecker/pkg/darwin"
	"TrainChecker/pkg/dialogue"
	"TrainChecker/pkg/gemini"
	"TrainChecker/pkg/nlp"
	"TrainChecker/pkg/redis"
	"TrainChecker/pkg/stations"
	"TrainChecker/pkg/ticketsearch"
	"TrainChecker/pkg/utils"
	"TrainChecker/pkg/whatsapp"
	"TrainChecker/pkg/worker"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	searchWorkers        = 2
	defaultSearchTimeout = 90 * time.Second
	defaultStationsFile  = "./data/stations.csv"
)

func searchTimeout() time.Duration {
	raw := os.Getenv("SEARCH_TIMEOUT_SECONDS")
	if raw == "" {
		return defaultSearchTimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultSearchTimeout
	}
	return time.Duration(seconds) * time.Second
}

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	stations       *stations.Directory
	ticketSearch   ticketsearch.ITicketSearch
	searchPool     *worker.Pool
	redisServer    redis.IRedis
	whatsappClient whatsapp.IWhatsappSender
	geminiClient   gemini.IGemini
	darwinFeed     darwin.ItfDarwin
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.stations == nil {
		return nil, fmt.Errorf("station directory is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

// WithStations loads the station directory once at startup. A missing
// file is fatal; the dialogue layer cannot run without it.
func WithStations() ServerOption {
	return func(s *Server) error {
		path := os.Getenv("STATIONS_FILE")
		if path == "" {
			path = defaultStationsFile
		}

		directory, err := stations.Load(path, s.log)
		if err != nil {
			return fmt.Errorf("failed to load station directory: %w", err)
		}
		s.stations = directory
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithTicketSearch() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before ticket search")
		}
		s.ticketSearch = ticketsearch.NewTrainlineSearch(s.redisServer, s.log)
		s.searchPool = worker.NewPool(searchWorkers)
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		client, err := whatsapp.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithDarwinFeed() ServerOption {
	return func(s *Server) error {
		feed, err := darwin.New(s.log)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize Darwin feed client: %v", err)
			}
			return fmt.Errorf("failed to create Darwin feed client: %w", err)
		}
		s.darwinFeed = feed
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Chat Domain
	manager := dialogue.NewManager(
		nlp.NewClassifier(),
		nlp.NewExtractor(s.stations, s.log),
		s.stations,
		s.ticketSearch,
		s.searchPool,
		searchTimeout(),
		s.log,
	)
	chatRepo := chatRepository.New(s.db, s.log)
	chatServices := chatService.New(s.log, chatRepo, manager, s.geminiClient, s.whatsappClient, s.redisServer, s.utils)
	chatHandlers := chatHandler.New(s.log, s.validator, s.middleware, chatServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, chatHandlers)

	// Timetable Domain (optional: requires the Darwin feed)
	if s.darwinFeed != nil {
		timetableServices := timetableService.New(s.log, s.darwinFeed)
		timetableHandlers := timetableHandler.New(s.log, s.validator, s.middleware, timetableServices)
		s.handlers = append(s.handlers, timetableHandlers)
	}
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		s.Shutdown()
		return err
	}

	return nil
}

func (s *Server) Shutdown() {
	if s.searchPool != nil {
		s.searchPool.Close()
	}
	if s.whatsappClient != nil {
		s.whatsappClient.Disconnect()
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
