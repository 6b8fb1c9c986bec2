// internal/storage/memory_store.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/models"
)

// MemoryStore keeps articles in process memory with an expiry and a size cap.
type MemoryStore struct {
	entries    map[string]*memoryEntry
	mutex      sync.RWMutex
	maxSize    int
	expiration time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	article   models.Article
	createdAt time.Time
	lastRead  time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(maxSize int, expiration time.Duration) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	return &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		maxSize:    maxSize,
		expiration: expiration,
		now:        time.Now,
	}
}

// Save stores a copy of the article.
func (s *MemoryStore) Save(ctx context.Context, article *models.Article) error {
	if article == nil || article.ID == "" {
		return apperrors.NewValidationError("article id is empty", nil)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	createdAt := now
	if existing, ok := s.entries[article.ID]; ok && now.Sub(existing.createdAt) <= s.expiration {
		// overwriting keeps the original expiry
		createdAt = existing.createdAt
	}
	s.entries[article.ID] = &memoryEntry{article: *article, createdAt: createdAt, lastRead: now}

	if len(s.entries) > s.maxSize {
		s.removeExpired(now)
	}
	if len(s.entries) > s.maxSize {
		s.cleanupLRU(max(1, s.maxSize/5))
	}
	return nil
}

// Get returns a copy of the stored article.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Article, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.entries[id]
	if !exists {
		return nil, articleNotFound(id)
	}
	now := s.now()
	if now.Sub(entry.createdAt) > s.expiration {
		delete(s.entries, id)
		return nil, articleNotFound(id)
	}

	entry.lastRead = now
	article := entry.article
	return &article, nil
}

// Delete removes an article. Unknown ids are ignored.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	delete(s.entries, id)
	s.mutex.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) removeExpired(now time.Time) {
	for id, entry := range s.entries {
		if now.Sub(entry.createdAt) > s.expiration {
			delete(s.entries, id)
		}
	}
}

// cleanupLRU drops the count least recently read entries.
func (s *MemoryStore) cleanupLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}

	entries := make([]keyAge, 0, len(s.entries))
	for k, v := range s.entries {
		entries = append(entries, keyAge{k, v.lastRead})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(s.entries, entries[i].key)
	}
}
