package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type IRedis interface {
	SetFare(ctx context.Context, key string, fare string, expiration time.Duration) error
	GetFare(ctx context.Context, key string) (string, error)
	SaveState(ctx context.Context, key string, state string, expiration time.Duration) error
	GetState(ctx context.Context, key string) (string, error)
	DeleteState(ctx context.Context, key string) error
}

type redisClient struct {
	client *redis.Client
}

// ErrNotFound is returned when a key has expired or was never set.
var ErrNotFound = redis.Nil

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) SetFare(ctx context.Context, key string, fare string, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Caching fare for key %s with expiration %v", key, expiration))
	err := r.client.Set(ctx, key, fare, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching fare for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetFare(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Fare not cached for key %s", key))
		return "", err
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting cached fare for key %s: %v", key, err))
		return "", err
	}
	return val, nil
}

func (r *redisClient) SaveState(ctx context.Context, key string, state string, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Saving conversation state for key %s", key))
	err := r.client.Set(ctx, key, state, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error saving conversation state for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetState(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", err
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting conversation state for key %s: %v", key, err))
		return "", err
	}
	return val, nil
}

func (r *redisClient) DeleteState(ctx context.Context, key string) error {
	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting conversation state for key %s: %v", key, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Conversation state key %s not found for deletion", key))
		return nil
	}

	return nil
}
