package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/internal/fitness/repository"
	"mindbody-backend/pkg/observability"
	"mindbody-backend/pkg/recordstore"
	"mindbody-backend/pkg/tokenstore"

	"github.com/google/uuid"
)

// syncUsecase implements SyncUsecase
type syncUsecase struct {
	registry *domain.Registry
	records  repository.RecordRepository
	tokens   repository.TokenRepository
	history  historyLog
	pageSize int
	now      func() time.Time
}

// NewSyncUsecase creates a new instance of syncUsecase
func NewSyncUsecase(registry *domain.Registry, records repository.RecordRepository, tokens repository.TokenRepository, pageSize int) SyncUsecase {
	return &syncUsecase{
		registry: registry,
		records:  records,
		tokens:   tokens,
		history:  historyLog{records: records},
		pageSize: pageSize,
		now:      time.Now,
	}
}

func (u *syncUsecase) Sync(ctx context.Context, user, provider string, blob map[string]any) domain.SyncResult {
	client, ok := u.registry.Lookup(provider)
	if !ok {
		log.Printf("[Sync] Unsupported provider %q requested by %s", provider, user)
		observability.RecordSync("unsupported", domain.StatusError, time.Time{})
		return domain.Failed(provider, domain.ErrUnsupportedProvider)
	}

	log.Printf("[Sync] Starting %s sync for %s", provider, user)
	res := u.run(ctx, user, client, blob)
	res.RunID = uuid.New().String()
	res.Provider = provider
	res.FinishedAt = u.now()

	if res.OK() {
		log.Printf("[Sync] %s sync for %s finished: %d rows, %d skipped", provider, user, res.Rows, res.Skipped)
	} else {
		log.Printf("[Sync] %s sync for %s failed: %s", provider, user, res.Error)
	}
	u.history.record(ctx, user, res)
	return res
}

func (u *syncUsecase) run(ctx context.Context, user string, client domain.ProviderClient, blob map[string]any) (res domain.SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Sync] Recovered panic during %s sync for %s: %v", client.Name, user, r)
			res = domain.Failed(client.Name, fmt.Errorf("%v", r))
		}
	}()

	if !client.Available {
		return domain.Failed(client.Name, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, client.UnavailableReason))
	}

	switch client.Kind {
	case domain.KindOAuth:
		return u.syncOAuth(ctx, user, client, blob)
	case domain.KindCredential:
		return u.syncCredential(ctx, user, client, blob)
	default:
		return domain.Failed(client.Name, domain.ErrNotSyncable)
	}
}

// syncOAuth runs the profile and activity steps independently; either may fail alone.
func (u *syncUsecase) syncOAuth(ctx context.Context, user string, client domain.ProviderClient, blob map[string]any) domain.SyncResult {
	if tokenstore.Blob(blob).String("access_token") == "" {
		return domain.Failed(client.Name, errors.New("invalid token: missing access_token"))
	}
	current := blob
	onRefresh := u.refreshPersister(ctx, user, client.Name, &current)
	res := domain.SyncResult{Status: domain.StatusOK}
	var failures []string

	profile, err := client.OAuth.FetchProfile(ctx, current, onRefresh)
	if err == nil {
		_, err = u.records.Upsert(ctx, user, domain.DatasetProviderProfiles, client.ProfileKey, profile, client.Name,
			recordstore.WithColumnOrder(client.ProfileColumns...))
	}
	if err != nil {
		log.Printf("[Sync] %s profile step failed for %s: %v", client.Name, user, err)
		failures = append(failures, "profile: "+err.Error())
	} else {
		res.ProfileRows = 1
	}

	// a token refreshed during the profile step is reused rather than refreshed again
	activities, err := client.OAuth.FetchActivities(ctx, current, u.pageSize, onRefresh)
	if err == nil {
		var added recordstore.AppendResult
		added, err = u.records.Append(ctx, user, domain.DatasetActivities, activities, client.Name,
			recordstore.WithDedup(client.IdentityField), recordstore.WithColumnOrder(client.Columns...))
		if err == nil {
			res.Rows = added.RowsAdded
			res.Skipped = added.Skipped
			observability.RecordAppend(domain.DatasetActivities, client.Name, added.RowsAdded, added.Skipped)
		}
	}
	if err != nil {
		log.Printf("[Sync] %s activities step failed for %s: %v", client.Name, user, err)
		failures = append(failures, "activities: "+err.Error())
	}

	switch len(failures) {
	case 0:
		if res.Rows == 0 && res.Skipped == 0 {
			res.Message = "profile synchronized, no activities returned"
		}
	case 1:
		res.Message = failures[0]
	default:
		res.Status = domain.StatusError
		res.Error = strings.Join(failures, "; ")
	}
	return res
}

func (u *syncUsecase) syncCredential(ctx context.Context, user string, client domain.ProviderClient, blob map[string]any) domain.SyncResult {
	creds := tokenstore.Blob(blob)
	username, password := creds.String("username"), creds.String("password")
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.Failed(client.Name, domain.ErrMissingCredentials)
	}

	summary, err := client.Credential.Connect(ctx, username, password)
	if err != nil {
		return domain.Failed(client.Name, err)
	}
	// The diary keeps changing during the day, so the newest totals replace that day's row.
	replaced, err := u.records.Upsert(ctx, user, domain.DatasetActivities, client.IdentityField, summary, client.Name,
		recordstore.WithColumnOrder(client.Columns...))
	if err != nil {
		return domain.Failed(client.Name, err)
	}

	res := domain.SyncResult{Status: domain.StatusOK, Rows: 1}
	if replaced {
		res.Message = "today's diary totals were updated"
	} else {
		observability.RecordAppend(domain.DatasetActivities, client.Name, 1, 0)
	}
	return res
}

// refreshPersister stores a refreshed token without re-triggering a sync, keeping fields
// the refresh response omits. current is updated so later steps use the new token.
func (u *syncUsecase) refreshPersister(ctx context.Context, user, provider string, current *map[string]any) domain.TokenUpdateFunc {
	return func(fresh map[string]any) error {
		merged := tokenstore.Blob{}
		for k, v := range *current {
			merged[k] = v
		}
		for k, v := range fresh {
			if v != nil && v != "" {
				merged[k] = v
			}
		}
		*current = merged
		log.Printf("[Sync] Persisting refreshed %s token for %s", provider, user)
		return u.tokens.Replace(ctx, user, provider, merged)
	}
}

func (u *syncUsecase) History(ctx context.Context, user string) ([]recordstore.Record, error) {
	return u.history.list(ctx, user)
}

func (u *syncUsecase) LastRun(ctx context.Context, user, provider string) (*domain.SyncResult, error) {
	return u.history.last(ctx, user, provider)
}
