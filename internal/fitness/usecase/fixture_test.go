package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/gpx"
	"mindbody-backend/pkg/healthkit"
	"mindbody-backend/pkg/myfitnesspal"
	"mindbody-backend/pkg/recordstore"
	"mindbody-backend/pkg/strava"
	"mindbody-backend/pkg/tokenstore"
)

type fakeOAuth struct {
	profile        recordstore.Record
	profileErr     error
	activities     []recordstore.Record
	activitiesErr  error
	activitiesBlob map[string]any
	exchangeBlob   map[string]any
	exchangeErr    error
	refreshTo      map[string]any
	panicOnFetch   bool
	fetches        int
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://auth.example/authorize?state=" + state
}

func (f *fakeOAuth) ExchangeCode(_ context.Context, code string) (map[string]any, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeBlob, nil
}

func (f *fakeOAuth) FetchProfile(_ context.Context, _ map[string]any, onRefresh domain.TokenUpdateFunc) (recordstore.Record, error) {
	f.fetches++
	if f.panicOnFetch {
		panic("decoder blew up")
	}
	if f.refreshTo != nil && onRefresh != nil {
		if err := onRefresh(f.refreshTo); err != nil {
			return nil, err
		}
	}
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile.Clone(), nil
}

func (f *fakeOAuth) FetchActivities(_ context.Context, blob map[string]any, _ int, _ domain.TokenUpdateFunc) ([]recordstore.Record, error) {
	f.fetches++
	f.activitiesBlob = blob
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	out := make([]recordstore.Record, 0, len(f.activities))
	for _, a := range f.activities {
		out = append(out, a.Clone())
	}
	return out, nil
}

type fakeCredential struct {
	summary recordstore.Record
	err     error
	calls   int
}

func (f *fakeCredential) Connect(_ context.Context, username, password string) (recordstore.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary.Clone(), nil
}

type fixture struct {
	records  *recordstore.Store
	tokens   *tokenstore.Store
	oauth    *fakeOAuth
	cred     *fakeCredential
	registry *domain.Registry
	sync     SyncUsecase
}

func newFixture(t *testing.T, mutate ...func(*domain.ProviderClient)) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		records: recordstore.New(dir),
		tokens: tokenstore.New(dir, map[string][]string{
			domain.ProviderStrava:       {"access_token"},
			domain.ProviderMyFitnessPal: {"username", "password"},
		}),
		oauth: &fakeOAuth{
			profile: recordstore.Record{strava.ProfileKey: "42", "firstname": "Ada", "city": "Rome"},
			activities: []recordstore.Record{
				{strava.ActivityIDField: "1001", "name": "Morning Run", "start_date": "2025-03-01T07:00:00Z"},
				{strava.ActivityIDField: "1002", "name": "Evening Ride", "start_date": "2025-03-01T18:00:00Z"},
			},
			exchangeBlob: map[string]any{"access_token": "access-1", "refresh_token": "refresh-1", "athlete_id": "42"},
		},
		cred: &fakeCredential{summary: recordstore.Record{myfitnesspal.DateField: "2025-03-03", "calories_consumed": "2100"}},
	}
	f.records.SetClock(func() time.Time { return time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC) })

	clients := []domain.ProviderClient{
		{
			Name: domain.ProviderStrava, Kind: domain.KindOAuth, OAuth: f.oauth,
			IdentityField: strava.ActivityIDField, ProfileKey: strava.ProfileKey,
			Columns: strava.ActivityColumns, ProfileColumns: strava.ProfileColumns, Available: true,
		},
		{
			Name: domain.ProviderMyFitnessPal, Kind: domain.KindCredential, Credential: f.cred,
			IdentityField: myfitnesspal.DateField, Columns: myfitnesspal.Columns, Available: true,
		},
		{
			Name: domain.ProviderGPX, Kind: domain.KindFile, File: GPXParser{},
			IdentityField: gpx.TimeField, Columns: gpx.Columns, Available: true,
		},
		{
			Name: domain.ProviderAppleHealth, Kind: domain.KindFile, File: HealthExportParser{},
			IdentityField: healthkit.StartField, Columns: healthkit.Columns, Available: true,
		},
	}
	for i := range clients {
		for _, m := range mutate {
			m(&clients[i])
		}
	}
	f.registry = domain.NewRegistry(clients...)
	f.sync = NewSyncUsecase(f.registry, f.records, f.tokens, 50)
	return f
}

var errProviderDown = errors.New("503 service unavailable")
