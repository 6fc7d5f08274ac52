package usecase

import (
	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/gpx"
	"mindbody-backend/pkg/healthkit"
	"mindbody-backend/pkg/myfitnesspal"
	"mindbody-backend/pkg/strava"
)

// NewProviderRegistry wires the concrete provider clients into the closed provider set.
func NewProviderRegistry(stravaClient *strava.Client, mfpClient *myfitnesspal.Client) *domain.Registry {
	stravaEntry := domain.ProviderClient{
		Name:           domain.ProviderStrava,
		Kind:           domain.KindOAuth,
		OAuth:          stravaClient,
		IdentityField:  strava.ActivityIDField,
		ProfileKey:     strava.ProfileKey,
		Columns:        strava.ActivityColumns,
		ProfileColumns: strava.ProfileColumns,
		Available:      stravaClient.Configured(),
	}
	if !stravaEntry.Available {
		stravaEntry.UnavailableReason = "STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are not set"
	}

	mfpAvailable, mfpReason := mfpClient.Available()
	mfpEntry := domain.ProviderClient{
		Name:              domain.ProviderMyFitnessPal,
		Kind:              domain.KindCredential,
		Credential:        mfpClient,
		IdentityField:     myfitnesspal.DateField,
		Columns:           myfitnesspal.Columns,
		Available:         mfpAvailable,
		UnavailableReason: mfpReason,
	}

	gpxEntry := domain.ProviderClient{
		Name:          domain.ProviderGPX,
		Kind:          domain.KindFile,
		File:          GPXParser{},
		IdentityField: gpx.TimeField,
		Columns:       gpx.Columns,
		Available:     true,
	}

	healthEntry := domain.ProviderClient{
		Name:          domain.ProviderAppleHealth,
		Kind:          domain.KindFile,
		File:          HealthExportParser{},
		IdentityField: healthkit.StartField,
		Columns:       healthkit.Columns,
		Available:     true,
	}

	return domain.NewRegistry(stravaEntry, mfpEntry, gpxEntry, healthEntry)
}
