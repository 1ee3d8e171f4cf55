package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	sharedDedup "github.com/davicafu/ordersaga/internal/shared/infra/platform/dedup"
)

// InMemoryStore es el fallback cuando Redis no está disponible: válido para
// un solo proceso, con expiración para que el mapa no crezca sin límite.
type InMemoryStore struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	ttl      time.Duration
	stopChan chan struct{}
}

func NewInMemoryStore(ttl, cleanupInterval time.Duration) *InMemoryStore {
	s := &InMemoryStore{
		seen:     make(map[string]time.Time),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

func (s *InMemoryStore) MarkSeen(ctx context.Context, queue string, eventID uuid.UUID) (bool, error) {
	key := queue + ":" + eventID.String()
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, ok := s.seen[key]; ok && now.Before(expiresAt) {
		return true, nil
	}
	s.seen[key] = now.Add(s.ttl)
	return false, nil
}

// Stop detiene la goroutine de limpieza.
func (s *InMemoryStore) Stop() {
	close(s.stopChan)
}

func (s *InMemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			s.mu.Lock()
			for key, expiresAt := range s.seen {
				if now.After(expiresAt) {
					delete(s.seen, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopChan:
			return
		}
	}
}

// Verificación estática
var _ sharedDedup.Store = (*InMemoryStore)(nil)
