package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"mandil-capture-api/internal/gateway"
	"mandil-capture-api/internal/model"
	"mandil-capture-api/internal/repository"
)

// Sentinel errors returned by the sync engine.
var (
	// ErrSyncBusy indicates another sweep is already in flight.
	ErrSyncBusy = errors.New("sync already in progress")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// sweepTimeout bounds one full sweep triggered by the background worker.
const sweepTimeout = 5 * time.Minute

// SyncService drains not-yet-sent delivery records to the remote API.
// At most one sweep runs at a time process-wide; the in-flight flag is
// shared between full sweeps and single-record retries.
type SyncService struct {
	repo repository.DeliveryRepository
	gw   gateway.Gateway

	mu      sync.Mutex
	syncing bool

	requests chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  bool
}

// NewSyncService creates a new sync engine.
func NewSyncService(repo repository.DeliveryRepository, gw gateway.Gateway) *SyncService {
	return &SyncService{
		repo:     repo,
		gw:       gw,
		requests: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// IsSyncing reports whether a sweep or retry is currently in flight.
func (s *SyncService) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// tryBegin claims the in-flight flag. Returns false when a sweep or
// retry already holds it.
func (s *SyncService) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing {
		return false
	}
	s.syncing = true
	return true
}

func (s *SyncService) end() {
	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()
}

// SyncPending pushes every record with status != SENT, oldest first.
// A non-empty date restricts the sweep to that registration date.
// Each record's outcome is committed individually, so a failure never
// rolls back an earlier success. When a sweep is already running the
// call returns zero stats immediately; callers re-trigger if they need
// a fresh sweep.
func (s *SyncService) SyncPending(ctx context.Context, date string) (model.SyncStats, error) {
	if !s.tryBegin() {
		return model.SyncStats{}, nil
	}
	defer s.end()

	var stats model.SyncStats

	pending, err := s.repo.ListUnsent(ctx, date)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	log.Printf("[Sync] Sweeping %d pending deliveries", len(pending))
	stats.Total = len(pending)

	for i := range pending {
		d := &pending[i]
		if err := s.sendOne(ctx, d); err != nil {
			stats.Failed++
		} else {
			stats.Sent++
		}
	}

	log.Printf("[Sync] Sweep done: total=%d sent=%d failed=%d", stats.Total, stats.Sent, stats.Failed)
	return stats, nil
}

// SyncOne retries exactly one record by local id. Records already SENT
// are left alone; SENT is terminal.
func (s *SyncService) SyncOne(ctx context.Context, id int64) error {
	if !s.tryBegin() {
		return ErrSyncBusy
	}
	defer s.end()

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}
	if d.SendStatus == model.StatusSent {
		return nil
	}

	return s.sendOne(ctx, d)
}

// sendOne pushes one record and commits its new status. The returned
// error is the submission failure already persisted on the record.
func (s *SyncService) sendOne(ctx context.Context, d *model.Delivery) error {
	if err := s.gw.SubmitDelivery(ctx, d); err != nil {
		log.Printf("[Sync] Delivery %d failed: %v", d.ID, err)
		if markErr := s.repo.MarkError(ctx, d.ID, err.Error()); markErr != nil {
			log.Printf("[Sync] Warning: failed to record error for delivery %d: %v", d.ID, markErr)
		}
		return err
	}

	if err := s.repo.MarkSent(ctx, d.ID); err != nil {
		return err
	}
	return nil
}

// Enqueue requests a background sweep without blocking. Signals are
// coalesced: one queued request covers any number of saves that arrive
// before the worker picks it up.
func (s *SyncService) Enqueue() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Start launches the background worker that drains queued sweep
// requests. Save paths enqueue; the worker sweeps.
func (s *SyncService) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.run()
	log.Println("[Sync] Background worker started")
}

func (s *SyncService) run() {
	defer close(s.done)
	for {
		select {
		case <-s.requests:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := s.SyncPending(ctx, ""); err != nil {
				log.Printf("[Sync] Background sweep failed: %v", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// Stop terminates the background worker and waits for it to exit.
func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()

		close(s.stopCh)
		if started {
			<-s.done
		}
	})
}
