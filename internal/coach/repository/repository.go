package repository

import (
	"context"

	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/recordstore"
)

// RecordReader is the read side of the record store the coach builds context from.
type RecordReader interface {
	ReadTable(ctx context.Context, user, dataset string) (recordstore.Table, error)
	Latest(ctx context.Context, user, dataset string) (recordstore.Record, bool, error)
}

// WorkoutLogger saves workouts described in chat.
type WorkoutLogger interface {
	LogWorkout(ctx context.Context, user string, entry journaldomain.WorkoutEntry) (recordstore.Record, error)
}
