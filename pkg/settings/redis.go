package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/menta2k/labelkit/pkg/types"
)

// Redis stores settings as a JSON string under one key
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to addr and checks the connection
func NewRedis(ctx context.Context, addr string, db int, key string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}, nil
}

func (r *Redis) Load(ctx context.Context) (types.LabelSettings, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.LabelSettings{}, ErrNotFound
	}
	if err != nil {
		return types.LabelSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var s types.LabelSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return types.LabelSettings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

func (r *Redis) Save(ctx context.Context, s types.LabelSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
