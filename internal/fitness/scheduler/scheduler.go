package scheduler

import (
	"context"
	"log"
	"time"

	"mindbody-backend/internal/fitness/domain"
)

// CredentialIndex enumerates stored provider credentials.
type CredentialIndex interface {
	Users(ctx context.Context) ([]string, error)
	Providers(ctx context.Context, user string) ([]string, error)
}

// Syncer runs one sync for a connected provider.
type Syncer interface {
	SyncNow(ctx context.Context, user, provider string) (domain.SyncResult, error)
}

// SyncScheduler periodically refreshes every connected provider of every user
type SyncScheduler struct {
	credentials CredentialIndex
	syncer      Syncer
	interval    time.Duration
	stopChan    chan struct{}
}

// NewSyncScheduler creates a new scheduler
func NewSyncScheduler(credentials CredentialIndex, syncer Syncer, interval time.Duration) *SyncScheduler {
	return &SyncScheduler{
		credentials: credentials,
		syncer:      syncer,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop. A non-positive interval disables it.
func (s *SyncScheduler) Start() {
	if s.interval <= 0 {
		log.Println("[SyncScheduler] SYNC_INTERVAL not set, periodic sync disabled")
		return
	}

	log.Printf("[SyncScheduler] Starting periodic sync (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stopChan:
				log.Println("[SyncScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

// RunOnce syncs every stored credential and returns how many runs succeeded.
func (s *SyncScheduler) RunOnce(ctx context.Context) int {
	users, err := s.credentials.Users(ctx)
	if err != nil {
		log.Printf("[SyncScheduler] Error listing users: %v", err)
		return 0
	}

	ok := 0
	for _, user := range users {
		providers, err := s.credentials.Providers(ctx, user)
		if err != nil {
			log.Printf("[SyncScheduler] Error reading credentials of %s: %v", user, err)
			continue
		}
		for _, provider := range providers {
			result, err := s.syncer.SyncNow(ctx, user, provider)
			if err != nil {
				log.Printf("[SyncScheduler] Sync of %s for %s failed: %v", provider, user, err)
				continue
			}
			if result.OK() {
				ok++
			}
		}
	}
	if ok > 0 {
		log.Printf("[SyncScheduler] %d provider syncs completed", ok)
	}
	return ok
}
