package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/internal/journal/repository"
	"mindbody-backend/pkg/recordstore"

	"github.com/google/uuid"
)

// browsable lists the datasets a user may read; false marks those that cannot be edited.
var browsable = map[string]bool{
	"activities":                  true,
	"provider_profiles":           true,
	"tracks":                      true,
	"imported_workouts":           true,
	journaldomain.DatasetWorkouts: true,
	journaldomain.DatasetMood:     true,
	journaldomain.DatasetProfile:  true,
	"sync_history":                false,
}

var dateLayouts = []string{recordstore.TimestampLayout, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// journalUsecase implements JournalUsecase
type journalUsecase struct {
	records   repository.RecordRepository
	validator *validator
	now       func() time.Time
}

// NewJournalUsecase creates a new instance of journalUsecase
func NewJournalUsecase(records repository.RecordRepository) (JournalUsecase, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	return &journalUsecase{records: records, validator: v, now: time.Now}, nil
}

// entryDate normalizes a user supplied date, defaulting to now.
func (u *journalUsecase) entryDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return u.now().Format(recordstore.TimestampLayout), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.Format(recordstore.TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", journaldomain.ErrInvalidEntryDate, raw)
}

func (u *journalUsecase) appendEntry(ctx context.Context, user, dataset, date string, fields map[string]any, columns []string) (recordstore.Record, error) {
	rec := recordstore.FromValues(fields)
	rec[journaldomain.EntryIDField] = uuid.New().String()
	rec[journaldomain.DateField] = date

	if _, err := u.records.Append(ctx, user, dataset, []recordstore.Record{rec}, journaldomain.ProvenanceManual,
		recordstore.WithColumnOrder(columns...)); err != nil {
		return nil, err
	}
	log.Printf("[Journal] %s entry saved for %s", dataset, user)
	return rec, nil
}

func (u *journalUsecase) LogWorkout(ctx context.Context, user string, entry journaldomain.WorkoutEntry) (recordstore.Record, error) {
	if sport, ok := journaldomain.ParseSport(string(entry.Sport)); ok {
		entry.Sport = sport
	}
	fields, err := u.validator.workout(entry)
	if err != nil {
		return nil, err
	}
	date, err := u.entryDate(entry.Date)
	if err != nil {
		return nil, err
	}
	return u.appendEntry(ctx, user, journaldomain.DatasetWorkouts, date, fields, journaldomain.WorkoutColumns)
}

func (u *journalUsecase) LogMood(ctx context.Context, user string, entry journaldomain.MoodEntry) (recordstore.Record, error) {
	entry.Mood = strings.TrimSpace(entry.Mood)
	fields, err := u.validator.moodEntry(entry)
	if err != nil {
		return nil, err
	}
	date, err := u.entryDate(entry.Date)
	if err != nil {
		return nil, err
	}
	return u.appendEntry(ctx, user, journaldomain.DatasetMood, date, fields, journaldomain.MoodColumns)
}

// SaveProfile appends a new profile version; earlier versions stay as history.
func (u *journalUsecase) SaveProfile(ctx context.Context, user string, profile journaldomain.Profile) (recordstore.Record, error) {
	fields, err := u.validator.profileEntry(profile)
	if err != nil {
		return nil, err
	}
	return u.appendEntry(ctx, user, journaldomain.DatasetProfile, u.now().Format(recordstore.TimestampLayout), fields, journaldomain.ProfileColumns)
}

func (u *journalUsecase) CurrentProfile(ctx context.Context, user string) (recordstore.Record, bool, error) {
	return u.records.Latest(ctx, user, journaldomain.DatasetProfile)
}

func (u *journalUsecase) ProfileHistory(ctx context.Context, user string) ([]recordstore.Record, error) {
	t, err := u.records.ReadTable(ctx, user, journaldomain.DatasetProfile)
	if err != nil {
		return nil, err
	}
	return t.Rows, nil
}

// RecentWorkouts returns up to n workouts, most recent last.
func (u *journalUsecase) RecentWorkouts(ctx context.Context, user string, n int) ([]recordstore.Record, error) {
	t, err := u.records.ReadTable(ctx, user, journaldomain.DatasetWorkouts)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(t.Rows) > n {
		return t.Rows[len(t.Rows)-n:], nil
	}
	return t.Rows, nil
}

func (u *journalUsecase) Dataset(ctx context.Context, user, name string) (recordstore.Table, error) {
	if _, ok := browsable[name]; !ok {
		return recordstore.Table{}, fmt.Errorf("%w: %q", journaldomain.ErrUnknownDataset, name)
	}
	return u.records.ReadTable(ctx, user, name)
}

func (u *journalUsecase) DeleteEntry(ctx context.Context, user, dataset string, index int) error {
	deletable, ok := browsable[dataset]
	if !ok {
		return fmt.Errorf("%w: %q", journaldomain.ErrUnknownDataset, dataset)
	}
	if !deletable {
		return fmt.Errorf("%w: %q", journaldomain.ErrReadOnlyDataset, dataset)
	}
	if err := u.records.DeleteRow(ctx, user, dataset, index); err != nil {
		return err
	}
	log.Printf("[Journal] Row %d deleted from %s for %s", index, dataset, user)
	return nil
}
