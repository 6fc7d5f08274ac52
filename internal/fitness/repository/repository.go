package repository

import (
	"context"

	"mindbody-backend/pkg/recordstore"
	"mindbody-backend/pkg/tokenstore"
)

// RecordRepository is the subset of the record store the fitness module writes through.
type RecordRepository interface {
	Append(ctx context.Context, user, dataset string, records []recordstore.Record, provenance string, opts ...recordstore.AppendOption) (recordstore.AppendResult, error)
	Upsert(ctx context.Context, user, dataset, key string, record recordstore.Record, provenance string, opts ...recordstore.AppendOption) (bool, error)
	Read(ctx context.Context, user, dataset string) ([]recordstore.Record, error)
}

// TokenRepository stores provider credential blobs per user.
type TokenRepository interface {
	Save(ctx context.Context, user, provider string, blob tokenstore.Blob) error
	Replace(ctx context.Context, user, provider string, blob tokenstore.Blob) error
	Load(ctx context.Context, user, provider string) (tokenstore.Blob, bool, error)
	Remove(ctx context.Context, user, provider string) (bool, error)
	IsConnected(ctx context.Context, user, provider string) bool
}
