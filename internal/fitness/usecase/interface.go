package usecase

import (
	"context"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/pkg/recordstore"
)

// SyncUsecase pulls fresh records from a provider into the user's datasets.
type SyncUsecase interface {
	Sync(ctx context.Context, user, provider string, blob map[string]any) domain.SyncResult
	History(ctx context.Context, user string) ([]recordstore.Record, error)
	LastRun(ctx context.Context, user, provider string) (*domain.SyncResult, error)
}

// ConnectionUsecase drives the per-provider connection lifecycle.
type ConnectionUsecase interface {
	RequestConnect(ctx context.Context, user, provider string) (*domain.ConnectRequest, error)
	HandleCallback(ctx context.Context, provider, state, code, callbackErr string) (*domain.Connection, error)
	SubmitCredentials(ctx context.Context, user, provider, username, password string) (*domain.Connection, error)
	Disconnect(ctx context.Context, user, provider string) (*domain.Connection, error)
	Status(ctx context.Context, user, provider string) (*domain.Connection, error)
	List(ctx context.Context, user string) ([]*domain.Connection, error)
	SyncNow(ctx context.Context, user, provider string) (domain.SyncResult, error)
}

// ImportUsecase loads uploaded files: GPX tracks and Apple Health exports.
type ImportUsecase interface {
	ImportGPX(ctx context.Context, user, filename string, data []byte) domain.SyncResult
	ImportFile(ctx context.Context, user, provider, filename string, data []byte) domain.SyncResult
}
