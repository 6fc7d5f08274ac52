package usecase

import (
	"context"

	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/recordstore"
)

// JournalUsecase records what the user logs by hand and exposes their datasets.
type JournalUsecase interface {
	LogWorkout(ctx context.Context, user string, entry journaldomain.WorkoutEntry) (recordstore.Record, error)
	LogMood(ctx context.Context, user string, entry journaldomain.MoodEntry) (recordstore.Record, error)
	SaveProfile(ctx context.Context, user string, profile journaldomain.Profile) (recordstore.Record, error)
	CurrentProfile(ctx context.Context, user string) (recordstore.Record, bool, error)
	ProfileHistory(ctx context.Context, user string) ([]recordstore.Record, error)
	RecentWorkouts(ctx context.Context, user string, n int) ([]recordstore.Record, error)
	Dataset(ctx context.Context, user, name string) (recordstore.Table, error)
	DeleteEntry(ctx context.Context, user, dataset string, index int) error
}
