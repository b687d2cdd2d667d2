package main

import (
	"os"
	"os/signal"
	"syscall"

	"TrainChecker/internal/config"
	"TrainChecker/pkg/log"
	"TrainChecker/pkg/redis"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Fatalf("Error loading .env file: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New()

	options := []config.ServerOption{
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithStations(),
		config.WithRedisServer(redisServer),
		config.WithTicketSearch(),
		config.WithMiddleware(),
		config.WithUtils(),
	}

	// Optional side channels; the chat core runs without them.
	if os.Getenv("GEMINI_API_KEY") != "" {
		options = append(options, config.WithGeminiClient())
	}
	if os.Getenv("WHATSAPP_ENABLED") == "true" {
		options = append(options, config.WithWhatsappClient())
	}
	if os.Getenv("DARWIN_BUCKET_NAME") != "" {
		options = append(options, config.WithDarwinFeed())
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	server.Shutdown()
}
