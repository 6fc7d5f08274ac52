package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), map[string][]string{
		"strava":       {"access_token"},
		"myfitnesspal": {"username", "password"},
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "abc", "refresh_token": "def"}))
	require.NoError(t, s.Save(ctx, "alice", "myfitnesspal", Blob{"username": "al", "password": "pw"}))

	blob, ok, err := s.Load(ctx, "alice", "strava")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Blob{"access_token": "abc", "refresh_token": "def"}, blob)

	// saving one provider leaves the other untouched
	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "xyz"}))
	other, ok, err := s.Load(ctx, "alice", "myfitnesspal")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Blob{"username": "al", "password": "pw"}, other)

	providers, err := s.Providers(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"myfitnesspal", "strava"}, providers)
}

func TestIsConnectedRequiresFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.False(t, s.IsConnected(ctx, "alice", "strava"))
	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "abc"}))
	require.True(t, s.IsConnected(ctx, "alice", "strava"))

	require.NoError(t, s.Save(ctx, "alice", "myfitnesspal", Blob{"username": "al"}))
	require.False(t, s.IsConnected(ctx, "alice", "myfitnesspal"))
	require.NoError(t, s.Save(ctx, "alice", "myfitnesspal", Blob{"username": "al", "password": "pw"}))
	require.True(t, s.IsConnected(ctx, "alice", "myfitnesspal"))
}

func TestRemoveClearsState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	removed, err := s.Remove(ctx, "alice", "strava")
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "abc"}))
	removed, err = s.Remove(ctx, "alice", "strava")
	require.NoError(t, err)
	require.True(t, removed)

	require.False(t, s.IsConnected(ctx, "alice", "strava"))
	_, ok, err := s.Load(ctx, "alice", "strava")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveTriggersCallbackAndSurvivesFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var calls []string
	s.SetSyncCallback(func(_ context.Context, user, provider string, blob Blob) error {
		calls = append(calls, user+"/"+provider+"/"+blob.String("access_token"))
		return errors.New("provider down")
	})
	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "abc"}))
	require.Equal(t, []string{"alice/strava/abc"}, calls)
	require.True(t, s.IsConnected(ctx, "alice", "strava"))

	s.SetSyncCallback(func(context.Context, string, string, Blob) error { panic("boom") })
	require.NoError(t, s.Save(ctx, "bob", "strava", Blob{"access_token": "q"}))
	require.True(t, s.IsConnected(ctx, "bob", "strava"))
}

func TestReplaceSkipsCallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	calls := 0
	s.SetSyncCallback(func(context.Context, string, string, Blob) error {
		calls++
		return nil
	})
	require.NoError(t, s.Replace(ctx, "alice", "strava", Blob{"access_token": "refreshed"}))
	require.Zero(t, calls)

	blob, ok, err := s.Load(ctx, "alice", "strava")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "refreshed", blob.String("access_token"))
}

func TestSaveLoadKeepsNumericFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saved := Blob{
		"access_token": "abc",
		"expires_at":   int64(1741000000),
		"scale":        1.5,
		"athlete":      map[string]any{"id": int64(42)},
	}
	require.NoError(t, s.Save(ctx, "alice", "strava", saved))

	blob, ok, err := s.Load(ctx, "alice", "strava")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, saved, blob)
	require.Equal(t, "1741000000", blob.String("expires_at"))
}

func TestBlobStringFormatsNumbers(t *testing.T) {
	b := Blob{"expires_at": float64(1700000000), "athlete_id": 42.0}
	require.Equal(t, "1700000000", b.String("expires_at"))
	require.Equal(t, "42", b.String("athlete_id"))
	require.Equal(t, "", b.String("missing"))
}

func TestRejectsInvalidNames(t *testing.T) {
	s := newTestStore(t)
	require.ErrorIs(t, s.Save(context.Background(), "../x", "strava", Blob{}), ErrInvalidName)
}

func TestUsersListsOnlyCredentialOwners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	require.NoError(t, s.Save(ctx, "bob", "strava", Blob{"access_token": "x"}))
	require.NoError(t, s.Save(ctx, "alice", "strava", Blob{"access_token": "y"}))
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "users", "carol"), 0o755))

	users, err = s.Users(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, users)
}
