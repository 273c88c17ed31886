package service

import (
	"context"
	"log"
	"sync"

	"mandil-capture-api/internal/cache"
	"mandil-capture-api/internal/gateway"
	"mandil-capture-api/internal/repository"
)

// OperatorSyncService pulls the operator directory from the remote API
// and mirrors it into the local store.
type OperatorSyncService struct {
	gw    gateway.Gateway
	repo  repository.OperatorRepository
	cache cache.Cache

	mu      sync.Mutex
	syncing bool
}

// NewOperatorSyncService creates a new operator sync service.
// cache may be nil; lookups then always hit the store.
func NewOperatorSyncService(gw gateway.Gateway, repo repository.OperatorRepository, c cache.Cache) *OperatorSyncService {
	return &OperatorSyncService{
		gw:    gw,
		repo:  repo,
		cache: c,
	}
}

// IsSyncing reports whether a directory pull is currently in flight.
func (s *OperatorSyncService) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

func (s *OperatorSyncService) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing {
		return false
	}
	s.syncing = true
	return true
}

func (s *OperatorSyncService) end() {
	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()
}

// SyncOperators fetches the full directory and upserts it in one
// transaction. The local table is untouched when the fetch or the
// validation fails. Returns the number of records written.
func (s *OperatorSyncService) SyncOperators(ctx context.Context) (int, error) {
	if !s.tryBegin() {
		return 0, ErrSyncBusy
	}
	defer s.end()

	operators, err := s.gw.FetchOperators(ctx)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.ReplaceAll(ctx, operators)
	if err != nil {
		return 0, err
	}

	// Cached lookups may hold pre-sync names.
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			log.Printf("[OperatorSync] Warning: failed to clear lookup cache: %v", err)
		}
	}

	log.Printf("[OperatorSync] Synced %d operators", count)
	return count, nil
}
