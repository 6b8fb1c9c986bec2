// internal/storage/redis_store.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/models"
	"github.com/Corphon/yt2blog/internal/utils"
)

// KeyPrefix namespaces article keys in Redis.
const KeyPrefix = "yt2blog:article:"

// RedisStore keeps articles as JSON strings with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis. addr is either host:port or a redis:// URL.
func NewRedisStore(ctx context.Context, cfg config.StoreConfig, logger *utils.Logger) (*RedisStore, error) {
	var opts *redis.Options
	if strings.HasPrefix(cfg.RedisAddr, "redis://") || strings.HasPrefix(cfg.RedisAddr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_ADDR: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, apperrors.NewUnavailableError("redis unreachable at "+opts.Addr, err)
	}

	logger.Info("redis article store connected", map[string]interface{}{"addr": opts.Addr, "db": opts.DB})
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, article *models.Article) error {
	if article == nil || article.ID == "" {
		return apperrors.NewValidationError("article id is empty", nil)
	}
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}
	key := KeyPrefix + article.ID

	// overwriting keeps the original expiry
	err = s.client.SetArgs(ctx, key, data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		err = s.client.Set(ctx, key, data, s.ttl).Err()
	}
	if err != nil {
		return apperrors.NewUnavailableError("save article", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Article, error) {
	data, err := s.client.Get(ctx, KeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, articleNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewUnavailableError("load article", err)
	}

	var article models.Article
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, apperrors.NewProcessingError("decode stored article "+id, err)
	}
	return &article, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, KeyPrefix+id).Err(); err != nil {
		return apperrors.NewUnavailableError("delete article", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
