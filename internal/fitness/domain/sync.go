package domain

import (
	"errors"
	"time"
)

// Datasets written by the fitness module
const (
	DatasetActivities       = "activities"
	DatasetProviderProfiles = "provider_profiles"
	DatasetTracks           = "tracks"
	DatasetImportedWorkouts = "imported_workouts"
	DatasetSyncHistory      = "sync_history"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNotSyncable         = errors.New("provider does not support sync")
	ErrMissingCredentials  = errors.New("missing credentials")
	ErrWrongProviderKind   = errors.New("operation not supported by this provider")
	ErrInvalidState        = errors.New("invalid or expired authorization state")
	ErrAuthorizationDenied = errors.New("authorization was not granted")
)

// SyncResult is the structured outcome of one sync or import run. Failures are
// reported here, never as a bare error.
type SyncResult struct {
	RunID       string    `json:"run_id,omitempty"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	Rows        int       `json:"rows"`
	ProfileRows int       `json:"profile_rows,omitempty"`
	Skipped     int       `json:"skipped,omitempty"`
	Source      string    `json:"source,omitempty"`
	Error       string    `json:"error,omitempty"`
	Message     string    `json:"message,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

func (r SyncResult) OK() bool {
	return r.Status == StatusOK
}

// Failed builds an error result.
func Failed(provider string, err error) SyncResult {
	return SyncResult{Provider: provider, Status: StatusError, Error: err.Error()}
}
