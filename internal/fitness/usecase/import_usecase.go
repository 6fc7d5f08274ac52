package usecase

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/internal/fitness/repository"
	"mindbody-backend/pkg/gpx"
	"mindbody-backend/pkg/healthkit"
	"mindbody-backend/pkg/observability"
	"mindbody-backend/pkg/recordstore"

	"github.com/google/uuid"
)

// importUsecase implements ImportUsecase
type importUsecase struct {
	registry *domain.Registry
	records  repository.RecordRepository
	history  historyLog
	now      func() time.Time
}

// NewImportUsecase creates a new instance of importUsecase
func NewImportUsecase(registry *domain.Registry, records repository.RecordRepository) ImportUsecase {
	return &importUsecase{
		registry: registry,
		records:  records,
		history:  historyLog{records: records},
		now:      time.Now,
	}
}

// ImportGPX parses a track file and appends its points to the tracks dataset with the
// detected vendor as provenance. A file that fails to parse writes no points.
func (u *importUsecase) ImportGPX(ctx context.Context, user, filename string, data []byte) domain.SyncResult {
	return u.ImportFile(ctx, user, domain.ProviderGPX, filename, data)
}

// ImportFile hands an upload to the named file provider and appends what it extracts.
func (u *importUsecase) ImportFile(ctx context.Context, user, provider, filename string, data []byte) domain.SyncResult {
	res := u.importFile(ctx, user, provider, filename, data)
	res.RunID = uuid.New().String()
	res.Provider = provider
	res.FinishedAt = u.now()
	u.history.record(ctx, user, res)
	return res
}

func (u *importUsecase) importFile(ctx context.Context, user, provider, filename string, data []byte) domain.SyncResult {
	client, ok := u.registry.Lookup(provider)
	if !ok {
		return domain.Failed(provider, domain.ErrUnsupportedProvider)
	}
	if client.Kind != domain.KindFile {
		return domain.Failed(provider, domain.ErrWrongProviderKind)
	}
	if !client.Available {
		return domain.Failed(client.Name, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, client.UnavailableReason))
	}

	file := filepath.Base(filename)
	parsed, err := client.File.ParseFile(file, data)
	if err != nil {
		log.Printf("[Import] Rejected %s from %s: %v", file, user, err)
		return domain.Failed(client.Name, err)
	}
	for _, rec := range parsed.Records {
		rec["file"] = file
	}
	columns := append(append(append([]string{}, client.Columns...), parsed.Columns...), "file")

	added, err := u.records.Append(ctx, user, parsed.Dataset, parsed.Records, parsed.SourceLabel,
		recordstore.WithDedup(client.IdentityField), recordstore.WithColumnOrder(columns...))
	if err != nil {
		return domain.Failed(client.Name, err)
	}
	observability.RecordAppend(parsed.Dataset, parsed.SourceLabel, added.RowsAdded, added.Skipped)
	log.Printf("[Import] %s imported for %s: %d rows into %s (%s)", file, user, added.RowsAdded, parsed.Dataset, parsed.SourceLabel)

	return domain.SyncResult{
		Status:  domain.StatusOK,
		Rows:    added.RowsAdded,
		Skipped: added.Skipped,
		Source:  parsed.SourceLabel,
	}
}

// GPXParser adapts gpx.Parse to domain.FileCapability.
type GPXParser struct{}

func (GPXParser) ParseFile(_ string, data []byte) (*domain.FileImport, error) {
	track, err := gpx.Parse(data)
	if err != nil {
		return nil, err
	}
	records := track.Records()
	for _, rec := range records {
		rec["track_name"] = track.Name
	}
	return &domain.FileImport{
		Dataset:     domain.DatasetTracks,
		SourceLabel: track.SourceLabel,
		Records:     records,
		Columns:     []string{"track_name"},
	}, nil
}

// HealthExportParser adapts healthkit.Parse to domain.FileCapability.
type HealthExportParser struct{}

func (HealthExportParser) ParseFile(_ string, data []byte) (*domain.FileImport, error) {
	workouts, err := healthkit.Parse(data)
	if err != nil {
		return nil, err
	}
	return &domain.FileImport{
		Dataset:     domain.DatasetImportedWorkouts,
		SourceLabel: healthkit.SourceLabel,
		Records:     healthkit.Records(workouts),
	}, nil
}
