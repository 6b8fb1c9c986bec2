// internal/storage/store.go
package storage

import (
	"context"
	"fmt"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/models"
	"github.com/Corphon/yt2blog/internal/utils"
)

// ArticleStore keeps generated articles between the generate and publish steps.
type ArticleStore interface {
	Save(ctx context.Context, article *models.Article) error
	// Get returns a not-found AppError for unknown or expired ids.
	Get(ctx context.Context, id string) (*models.Article, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewArticleStore creates the backend selected by the configuration.
func NewArticleStore(ctx context.Context, cfg config.StoreConfig, logger *utils.Logger) (ArticleStore, error) {
	switch cfg.Backend {
	case "memory", "":
		logger.Info("using in-memory article store", map[string]interface{}{"max_size": cfg.MaxSize, "ttl": cfg.TTL.String()})
		return NewMemoryStore(cfg.MaxSize, cfg.TTL), nil
	case "redis":
		store, err := NewRedisStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func articleNotFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("article %s not found", id), nil).WithCode("ARTICLE_NOT_FOUND")
}
