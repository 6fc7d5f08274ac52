// Package recordstore keeps per-user datasets as CSV tables whose column set grows as
// new fields arrive. Every write rewrites the whole file under an exclusive lock.
package recordstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidName = errors.New("invalid user or dataset name")
	ErrRowNotFound = errors.New("row not found")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@+-]*$`)

type Store struct {
	root  string
	now   func() time.Time
	locks *fileLocks
}

// AppendResult reports what an Append wrote.
type AppendResult struct {
	RowsAdded int      `json:"rows_added"`
	Skipped   int      `json:"skipped"`
	Identity  string   `json:"identity,omitempty"`
	Columns   []string `json:"columns"`
}

type appendOptions struct {
	dedup       bool
	identity    string
	columnOrder []string
}

type AppendOption func(*appendOptions)

// WithDedup drops incoming rows whose identifying value is already stored. identity
// is the preferred field; see SelectIdentity for the fallback order.
func WithDedup(identity string) AppendOption {
	return func(o *appendOptions) {
		o.dedup = true
		o.identity = identity
	}
}

// WithColumnOrder places the named columns first, in order, when they are new.
func WithColumnOrder(columns ...string) AppendOption {
	return func(o *appendOptions) {
		o.columnOrder = append(o.columnOrder, columns...)
	}
}

func New(root string) *Store {
	return &Store{
		root:  root,
		now:   time.Now,
		locks: newFileLocks(),
	}
}

// SetClock replaces the clock used for import timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// UserDir returns the directory holding a user's datasets.
func (s *Store) UserDir(user string) (string, error) {
	if !ValidName(user) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, user)
	}
	return filepath.Join(s.root, "users", user), nil
}

func (s *Store) datasetPath(user, dataset string) (string, error) {
	dir, err := s.UserDir(user)
	if err != nil {
		return "", err
	}
	if !ValidName(dataset) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, dataset)
	}
	return filepath.Join(dir, dataset+".csv"), nil
}

func (s *Store) globalPath(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, name+".csv"), nil
}

// Append merges records into the user's dataset. Existing rows keep their position,
// new rows follow in input order, and every row gains any column the other side had.
// Each new row is tagged with provenance and an import timestamp unless it already
// carries those fields.
func (s *Store) Append(ctx context.Context, user, dataset string, records []Record, provenance string, opts ...AppendOption) (AppendResult, error) {
	path, err := s.datasetPath(user, dataset)
	if err != nil {
		return AppendResult{}, err
	}
	var o appendOptions
	for _, opt := range opts {
		opt(&o)
	}

	var result AppendResult
	err = s.withTable(ctx, path, func(t *Table) (bool, error) {
		if len(records) == 0 {
			result.Columns = append([]string(nil), t.Columns...)
			return false, nil
		}

		incoming := make([]Record, 0, len(records))
		for _, rec := range records {
			incoming = append(incoming, rec.Clone())
		}

		if o.dedup {
			result.Identity = SelectIdentity(t.Columns, incoming, o.identity)
		}

		t.mergeColumns(incoming, o.columnOrder)
		t.addColumn(ProviderField)
		t.addColumn(ImportTimestampField)

		kept, skipped := incoming, 0
		if o.dedup {
			kept, skipped = dropKnown(t.Rows, incoming, result.Identity)
		}

		stamp := s.now().Format(TimestampLayout)
		for _, rec := range kept {
			if _, ok := rec[ProviderField]; !ok {
				rec[ProviderField] = provenance
			}
			if _, ok := rec[ImportTimestampField]; !ok {
				rec[ImportTimestampField] = stamp
			}
		}
		t.Rows = append(t.Rows, kept...)
		t.fill()

		result.RowsAdded = len(kept)
		result.Skipped = skipped
		result.Columns = append([]string(nil), t.Columns...)
		return true, nil
	})
	if err != nil {
		return AppendResult{}, err
	}
	return result, nil
}

// Upsert replaces the row whose key field equals record[key], or appends the record
// when no row matches. It reports whether an existing row was replaced. Only
// WithColumnOrder is honoured among opts.
func (s *Store) Upsert(ctx context.Context, user, dataset, key string, record Record, provenance string, opts ...AppendOption) (bool, error) {
	path, err := s.datasetPath(user, dataset)
	if err != nil {
		return false, err
	}
	var o appendOptions
	for _, opt := range opts {
		opt(&o)
	}
	value := strings.TrimSpace(record[key])
	if key == "" || value == "" {
		return false, fmt.Errorf("upsert requires a value for %q", key)
	}

	replaced := false
	err = s.withTable(ctx, path, func(t *Table) (bool, error) {
		rec := record.Clone()
		if _, ok := rec[ProviderField]; !ok {
			rec[ProviderField] = provenance
		}
		rec[ImportTimestampField] = s.now().Format(TimestampLayout)

		t.mergeColumns([]Record{rec}, append([]string{key}, o.columnOrder...))
		for i, row := range t.Rows {
			if strings.TrimSpace(row[key]) == value {
				t.Rows[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			t.Rows = append(t.Rows, rec)
		}
		t.fill()
		return true, nil
	})
	return replaced, err
}

// Read returns the dataset's rows in stored order. A dataset that does not exist yet
// reads as empty.
func (s *Store) Read(ctx context.Context, user, dataset string) ([]Record, error) {
	t, err := s.ReadTable(ctx, user, dataset)
	if err != nil {
		return nil, err
	}
	return t.Rows, nil
}

func (s *Store) ReadTable(ctx context.Context, user, dataset string) (Table, error) {
	path, err := s.datasetPath(user, dataset)
	if err != nil {
		return Table{}, err
	}
	var out Table
	err = s.withTable(ctx, path, func(t *Table) (bool, error) {
		out = *t
		return false, nil
	})
	if out.Rows == nil {
		out.Rows = []Record{}
	}
	return out, err
}

// Latest returns the most recently appended row.
func (s *Store) Latest(ctx context.Context, user, dataset string) (Record, bool, error) {
	rows, err := s.Read(ctx, user, dataset)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[len(rows)-1], true, nil
}

// DeleteRow removes the row at index (0-based, stored order).
func (s *Store) DeleteRow(ctx context.Context, user, dataset string, index int) error {
	path, err := s.datasetPath(user, dataset)
	if err != nil {
		return err
	}
	return s.withTable(ctx, path, func(t *Table) (bool, error) {
		if index < 0 || index >= len(t.Rows) {
			return false, fmt.Errorf("%w: index %d", ErrRowNotFound, index)
		}
		t.Rows = append(t.Rows[:index], t.Rows[index+1:]...)
		return true, nil
	})
}

// ReadGlobal reads a table stored at the root of the data directory.
func (s *Store) ReadGlobal(ctx context.Context, name string) (Table, error) {
	path, err := s.globalPath(name)
	if err != nil {
		return Table{}, err
	}
	var out Table
	err = s.withTable(ctx, path, func(t *Table) (bool, error) {
		out = *t
		return false, nil
	})
	return out, err
}

// UpdateGlobal runs fn on a root-level table under the table's lock and persists the
// result when fn returns nil.
func (s *Store) UpdateGlobal(ctx context.Context, name string, fn func(*Table) error) error {
	path, err := s.globalPath(name)
	if err != nil {
		return err
	}
	return s.withTable(ctx, path, func(t *Table) (bool, error) {
		if err := fn(t); err != nil {
			return false, err
		}
		t.fill()
		return true, nil
	})
}

// withTable holds the file lock across load, fn and (if fn asks) write.
func (s *Store) withTable(ctx context.Context, path string, fn func(*Table) (bool, error)) error {
	unlock, err := s.locks.acquire(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	t, err := loadTable(path)
	if err != nil {
		return err
	}
	write, err := fn(t)
	if err != nil || !write {
		return err
	}
	return writeTable(path, t)
}

func loadTable(path string) (*Table, error) {
	t := &Table{}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	for _, col := range header {
		t.addColumn(col)
	}
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(Record, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.fill()
	return t, nil
}

func writeTable(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return err
	}
	line := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			line[i] = row[col]
		}
		if err := w.Write(line); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ValidName reports whether name is usable as a user or dataset name.
func ValidName(name string) bool {
	return namePattern.MatchString(name) && !strings.Contains(name, "..")
}
