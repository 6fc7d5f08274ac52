package recordstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// fileLocks serialises read-modify-write on one table: a mutex per path inside the
// process and an flock on <path>.lock across processes.
type fileLocks struct {
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

func newFileLocks() *fileLocks {
	return &fileLocks{paths: make(map[string]*sync.Mutex)}
}

func (l *fileLocks) acquire(ctx context.Context, path string) (func(), error) {
	l.mu.Lock()
	m, ok := l.paths[path]
	if !ok {
		m = &sync.Mutex{}
		l.paths[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		m.Unlock()
		return nil, err
	}
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil || !locked {
		m.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock %s: %w", filepath.Base(path), err)
	}
	return func() {
		_ = fl.Unlock()
		m.Unlock()
	}, nil
}
