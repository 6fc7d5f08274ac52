package repository

import (
	"context"

	"mindbody-backend/pkg/recordstore"
)

// RecordRepository is the subset of the record store the journal reads and writes.
type RecordRepository interface {
	Append(ctx context.Context, user, dataset string, records []recordstore.Record, provenance string, opts ...recordstore.AppendOption) (recordstore.AppendResult, error)
	ReadTable(ctx context.Context, user, dataset string) (recordstore.Table, error)
	Latest(ctx context.Context, user, dataset string) (recordstore.Record, bool, error)
	DeleteRow(ctx context.Context, user, dataset string, index int) error
}
