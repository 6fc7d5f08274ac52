package usecase

import (
	"context"
	"os"
	"testing"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/myfitnesspal"
	"mindbody-backend/pkg/recordstore"
	"mindbody-backend/pkg/strava"
	"mindbody-backend/pkg/tokenstore"

	"github.com/stretchr/testify/require"
)

func TestSyncUnsupportedProviderWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.sync.Sync(ctx, "alice", "garmin", map[string]any{})
	require.Equal(t, domain.StatusError, res.Status)
	require.Equal(t, "unsupported provider", res.Error)
	require.Zero(t, res.Rows)

	dir, err := f.records.UserDir("alice")
	require.NoError(t, err)
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestSyncOAuthWritesProfileAndActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blob := map[string]any{"access_token": "abc"}

	res := f.sync.Sync(ctx, "alice", domain.ProviderStrava, blob)
	require.Equal(t, domain.StatusOK, res.Status, res.Error)
	require.Equal(t, 2, res.Rows)
	require.Equal(t, 1, res.ProfileRows)
	require.NotEmpty(t, res.RunID)

	activities, err := f.records.Read(ctx, "alice", domain.DatasetActivities)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	require.Equal(t, domain.ProviderStrava, activities[0][recordstore.ProviderField])

	// second run: same activities are dropped, profile replaced in place
	f.oauth.profile["city"] = "Milan"
	res = f.sync.Sync(ctx, "alice", domain.ProviderStrava, blob)
	require.Equal(t, domain.StatusOK, res.Status)
	require.Zero(t, res.Rows)
	require.Equal(t, 2, res.Skipped)

	profiles, err := f.records.Read(ctx, "alice", domain.DatasetProviderProfiles)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, "Milan", profiles[0]["city"])

	history, err := f.sync.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "2", history[0]["rows"])
}

func TestSyncOAuthPartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.oauth.profileErr = errProviderDown

	res := f.sync.Sync(ctx, "alice", domain.ProviderStrava, map[string]any{"access_token": "abc"})
	require.Equal(t, domain.StatusOK, res.Status)
	require.Equal(t, 2, res.Rows)
	require.Zero(t, res.ProfileRows)
	require.Contains(t, res.Message, "profile:")

	f.oauth.profileErr = nil
	f.oauth.activitiesErr = errProviderDown
	res = f.sync.Sync(ctx, "bob", domain.ProviderStrava, map[string]any{"access_token": "abc"})
	require.Equal(t, domain.StatusOK, res.Status)
	require.Equal(t, 1, res.ProfileRows)
	require.Contains(t, res.Message, "activities:")
}

func TestSyncOAuthBothStepsFail(t *testing.T) {
	f := newFixture(t)
	f.oauth.profileErr = errProviderDown
	f.oauth.activitiesErr = errProviderDown

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderStrava, map[string]any{"access_token": "abc"})
	require.Equal(t, domain.StatusError, res.Status)
	require.Contains(t, res.Error, "profile:")
	require.Contains(t, res.Error, "activities:")
}

func TestSyncOAuthRequiresAccessToken(t *testing.T) {
	f := newFixture(t)

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderStrava, map[string]any{"refresh_token": "r"})
	require.Equal(t, domain.StatusError, res.Status)
	require.Zero(t, f.oauth.fetches)
}

func TestSyncPersistsRefreshedTokenWithoutLosingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calls := 0
	f.tokens.SetSyncCallback(func(context.Context, string, string, tokenstore.Blob) error {
		calls++
		return nil
	})
	f.oauth.refreshTo = map[string]any{"access_token": "access-2", "refresh_token": "refresh-2"}

	res := f.sync.Sync(ctx, "alice", domain.ProviderStrava, map[string]any{"access_token": "old", "athlete_id": "42"})
	require.True(t, res.OK())

	blob, ok, err := f.tokens.Load(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-2", blob.String("access_token"))
	require.Equal(t, "42", blob.String("athlete_id"))
	require.Zero(t, calls)
}

func TestSyncActivitiesUseTokenRefreshedByProfileStep(t *testing.T) {
	f := newFixture(t)
	f.oauth.refreshTo = map[string]any{"access_token": "access-2", "refresh_token": "refresh-2"}

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderStrava,
		map[string]any{"access_token": "old", "refresh_token": "refresh-1", "athlete_id": "42"})
	require.True(t, res.OK())
	require.Equal(t, "access-2", f.oauth.activitiesBlob["access_token"])
	require.Equal(t, "refresh-2", f.oauth.activitiesBlob["refresh_token"])
	require.Equal(t, "42", f.oauth.activitiesBlob["athlete_id"])
}

func TestSyncCredentialMissingCredentials(t *testing.T) {
	f := newFixture(t)

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderMyFitnessPal, map[string]any{"username": "ada"})
	require.Equal(t, domain.StatusError, res.Status)
	require.Equal(t, "missing credentials", res.Error)
	require.Zero(t, f.cred.calls)
}

func TestSyncCredentialReplacesTodaysTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blob := map[string]any{"username": "ada", "password": "pw"}
	f.cred.summary = recordstore.Record{myfitnesspal.DateField: "2025-03-03", "calories_consumed": "300"}

	res := f.sync.Sync(ctx, "alice", domain.ProviderMyFitnessPal, blob)
	require.True(t, res.OK())
	require.Equal(t, 1, res.Rows)

	f.cred.summary = recordstore.Record{myfitnesspal.DateField: "2025-03-03", "calories_consumed": "1800"}
	res = f.sync.Sync(ctx, "alice", domain.ProviderMyFitnessPal, blob)
	require.True(t, res.OK())
	require.Equal(t, 1, res.Rows)
	require.Zero(t, res.Skipped)

	rows, err := f.records.Read(ctx, "alice", domain.DatasetActivities)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "1800", rows[0]["calories_consumed"])

	f.cred.summary = recordstore.Record{myfitnesspal.DateField: "2025-03-04", "calories_consumed": "500"}
	res = f.sync.Sync(ctx, "alice", domain.ProviderMyFitnessPal, blob)
	require.True(t, res.OK())
	rows, err = f.records.Read(ctx, "alice", domain.DatasetActivities)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestSyncUnavailableProvider(t *testing.T) {
	f := newFixture(t, func(c *domain.ProviderClient) {
		if c.Name == domain.ProviderMyFitnessPal {
			c.Available = false
			c.UnavailableReason = "MFP_BASE_URL is not set"
		}
	})

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderMyFitnessPal, map[string]any{"username": "a", "password": "b"})
	require.Equal(t, "provider unavailable: MFP_BASE_URL is not set", res.Error)
	require.Zero(t, f.cred.calls)
}

func TestSyncFileProviderIsNotSyncable(t *testing.T) {
	f := newFixture(t)

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderGPX, nil)
	require.Equal(t, domain.ErrNotSyncable.Error(), res.Error)
}

func TestSyncRecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	f.oauth.panicOnFetch = true

	res := f.sync.Sync(context.Background(), "alice", domain.ProviderStrava, map[string]any{"access_token": "abc"})
	require.Equal(t, domain.StatusError, res.Status)
	require.Contains(t, res.Error, "decoder blew up")

	last, err := f.sync.LastRun(context.Background(), "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, domain.StatusError, last.Status)
}

func TestActivityColumnsFollowProviderOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.sync.Sync(ctx, "alice", domain.ProviderStrava, map[string]any{"access_token": "abc"}).OK())
	table, err := f.records.ReadTable(ctx, "alice", domain.DatasetActivities)
	require.NoError(t, err)
	require.Equal(t, strava.ActivityIDField, table.Columns[0])
}
