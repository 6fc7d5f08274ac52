package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/tokenstore"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newConnections(t *testing.T, f *fixture) (*connectionUsecase, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	f.tokens.SetSyncCallback(func(ctx context.Context, user, provider string, blob tokenstore.Blob) error {
		res := f.sync.Sync(ctx, user, provider, blob)
		if !res.OK() {
			return errors.New(res.Error)
		}
		return nil
	})
	return newConnectionUsecase(f.registry, f.tokens, f.sync, "state-secret", 10*time.Minute, c.now), c
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthConnectLifecycle(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	conn, err := conns.Status(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisconnected, conn.State)

	req, err := conns.RequestConnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StateAuthorizing, req.State)

	conn, err = conns.Status(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StateAuthorizing, conn.State)

	conn, err = conns.HandleCallback(ctx, domain.ProviderStrava, stateFrom(t, req.AuthURL), "code-1", "")
	require.NoError(t, err)
	require.Equal(t, domain.StateConnected, conn.State)
	require.Equal(t, "alice", conn.User)

	// the saved token triggered the first sync
	require.NotNil(t, conn.LastSync)
	require.Equal(t, domain.StatusOK, conn.LastSync.Status)
	require.Equal(t, 2, conn.LastSync.Rows)

	blob, ok, err := f.tokens.Load(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-1", blob.String("access_token"))

	conn, err = conns.Disconnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisconnected, conn.State)

	_, err = conns.Disconnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
}

func TestOAuthCallbackFailureLeavesDisconnected(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	req, err := conns.RequestConnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	f.oauth.exchangeErr = errors.New("invalid code")

	conn, err := conns.HandleCallback(ctx, domain.ProviderStrava, stateFrom(t, req.AuthURL), "bad", "")
	require.Error(t, err)
	require.Equal(t, domain.StateDisconnected, conn.State)

	_, ok, err := f.tokens.Load(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOAuthCallbackDenied(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	req, err := conns.RequestConnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)

	conn, err := conns.HandleCallback(ctx, domain.ProviderStrava, stateFrom(t, req.AuthURL), "", "access_denied")
	require.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	require.Equal(t, domain.StateDisconnected, conn.State)
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	f := newFixture(t)
	conns, clk := newConnections(t, f)
	ctx := context.Background()

	_, err := conns.HandleCallback(ctx, domain.ProviderStrava, "", "code", "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = conns.HandleCallback(ctx, domain.ProviderStrava, "not-a-token", "code", "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	other := stateSigner{secret: []byte("someone-else"), ttl: time.Minute, now: clk.now}
	forged, _, err := other.issue("alice", domain.ProviderStrava)
	require.NoError(t, err)
	_, err = conns.HandleCallback(ctx, domain.ProviderStrava, forged, "code", "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	req, err := conns.RequestConnect(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	clk.t = clk.t.Add(11 * time.Minute)

	_, err = conns.HandleCallback(ctx, domain.ProviderStrava, stateFrom(t, req.AuthURL), "code", "")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	conn, err := conns.Status(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisconnected, conn.State)
}

func TestStateIsBoundToProvider(t *testing.T) {
	signer := stateSigner{secret: []byte("s"), ttl: time.Minute, now: time.Now}
	state, _, err := signer.issue("alice", domain.ProviderStrava)
	require.NoError(t, err)

	user, err := signer.parse(state, domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, "alice", user)

	_, err = signer.parse(state, "garmin")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRequestConnectRejectsWrongKinds(t *testing.T) {
	f := newFixture(t, func(c *domain.ProviderClient) {
		if c.Name == domain.ProviderStrava {
			c.Available = false
			c.UnavailableReason = "STRAVA_CLIENT_ID is not set"
		}
	})
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	_, err := conns.RequestConnect(ctx, "alice", "garmin")
	require.ErrorIs(t, err, domain.ErrUnsupportedProvider)

	_, err = conns.RequestConnect(ctx, "alice", domain.ProviderMyFitnessPal)
	require.ErrorIs(t, err, domain.ErrWrongProviderKind)

	_, err = conns.RequestConnect(ctx, "alice", domain.ProviderStrava)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestSubmitCredentials(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	conn, err := conns.SubmitCredentials(ctx, "alice", domain.ProviderMyFitnessPal, "ada", "pw")
	require.NoError(t, err)
	require.Equal(t, domain.StateConnected, conn.State)
	require.Equal(t, 1, f.cred.calls)

	rows, err := f.records.Read(ctx, "alice", domain.DatasetActivities)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "2100", rows[0]["calories_consumed"])

	// storing the credentials must not start a second sync
	require.Equal(t, 1, f.cred.calls)
}

func TestSubmitCredentialsFailure(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()
	f.cred.err = errors.New("myfitnesspal rejected the credentials")

	conn, err := conns.SubmitCredentials(ctx, "alice", domain.ProviderMyFitnessPal, "ada", "wrong")
	require.EqualError(t, err, "myfitnesspal rejected the credentials")
	require.Equal(t, domain.StateDisconnected, conn.State)
	require.False(t, f.tokens.IsConnected(ctx, "alice", domain.ProviderMyFitnessPal))

	_, err = conns.SubmitCredentials(ctx, "alice", domain.ProviderMyFitnessPal, "", "")
	require.EqualError(t, err, "missing credentials")
}

func TestListSkipsFileProviders(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)

	list, err := conns.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, domain.ProviderMyFitnessPal, list[0].Provider)
	require.Equal(t, domain.ProviderStrava, list[1].Provider)
}

func TestSyncNow(t *testing.T) {
	f := newFixture(t)
	conns, _ := newConnections(t, f)
	ctx := context.Background()

	res, err := conns.SyncNow(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.Equal(t, domain.StatusError, res.Status)

	require.NoError(t, f.tokens.Replace(ctx, "alice", domain.ProviderStrava, tokenstore.Blob{"access_token": "abc"}))
	res, err = conns.SyncNow(ctx, "alice", domain.ProviderStrava)
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, 2, res.Rows)

	res, err = conns.SyncNow(ctx, "alice", "garmin")
	require.NoError(t, err)
	require.Equal(t, "unsupported provider", res.Error)
}
