// Package tokenstore persists per-user provider credentials in a single JSON document
// keyed by provider name.
package tokenstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var ErrInvalidName = errors.New("invalid user or provider name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@+-]*$`)

// Blob is an opaque credential structure: OAuth token fields or a username/password pair.
type Blob map[string]any

func (b Blob) String(key string) string {
	if b == nil {
		return ""
	}
	switch v := b[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// SyncCallback runs after a successful Save so fresh records can be pulled immediately.
type SyncCallback func(ctx context.Context, user, provider string, blob Blob) error

type Store struct {
	root     string
	required map[string][]string
	mu       sync.Mutex
	callback SyncCallback
}

// New creates a store rooted at dir. required maps a provider to the fields a blob must
// carry for the provider to count as connected.
func New(dir string, required map[string][]string) *Store {
	req := make(map[string][]string, len(required))
	for k, v := range required {
		req[k] = append([]string(nil), v...)
	}
	return &Store{
		root:     dir,
		required: req,
	}
}

// SetSyncCallback registers the follow-up run after each Save.
func (s *Store) SetSyncCallback(cb SyncCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

func (s *Store) docPath(user string) (string, error) {
	if !validName(user) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, user)
	}
	return filepath.Join(s.root, "users", user, "tokens.json"), nil
}

// Save stores blob as the provider's credential, replacing any earlier one, then runs
// the sync callback. The callback's outcome never affects the save.
func (s *Store) Save(ctx context.Context, user, provider string, blob Blob) error {
	if err := s.put(user, provider, blob); err != nil {
		return err
	}
	log.Printf("[TokenStore] Token saved for %s (%s)", user, provider)

	s.mu.Lock()
	cb := s.callback
	s.mu.Unlock()
	if cb != nil {
		s.runCallback(ctx, cb, user, provider, blob)
	}
	return nil
}

// Replace stores blob without running the sync callback. Used for refreshed tokens
// and for credentials whose first sync already ran.
func (s *Store) Replace(ctx context.Context, user, provider string, blob Blob) error {
	return s.put(user, provider, blob)
}

func (s *Store) put(user, provider string, blob Blob) error {
	if !validName(provider) {
		return fmt.Errorf("%w: %q", ErrInvalidName, provider)
	}
	path, err := s.docPath(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := readDoc(path)
	if err != nil {
		return err
	}
	doc[provider] = blob
	return writeDoc(path, doc)
}

func (s *Store) runCallback(ctx context.Context, cb SyncCallback, user, provider string, blob Blob) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[TokenStore] Follow-up sync for %s (%s) panicked: %v", user, provider, r)
		}
	}()
	if err := cb(ctx, user, provider, blob); err != nil {
		log.Printf("[TokenStore] Follow-up sync for %s (%s) failed: %v", user, provider, err)
	}
}

// Load returns the provider's blob, or false when none is stored.
func (s *Store) Load(ctx context.Context, user, provider string) (Blob, bool, error) {
	path, err := s.docPath(user)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := readDoc(path)
	if err != nil {
		return nil, false, err
	}
	blob, ok := doc[provider]
	if !ok || blob == nil {
		return nil, false, nil
	}
	return blob, true, nil
}

// Remove deletes the provider's credential and reports whether one existed.
func (s *Store) Remove(ctx context.Context, user, provider string) (bool, error) {
	path, err := s.docPath(user)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := readDoc(path)
	if err != nil {
		return false, err
	}
	if _, ok := doc[provider]; !ok {
		return false, nil
	}
	delete(doc, provider)
	if err := writeDoc(path, doc); err != nil {
		return false, err
	}
	log.Printf("[TokenStore] %s disconnected for %s", provider, user)
	return true, nil
}

// IsConnected reports whether a blob exists for provider and carries every required
// field. Errors read as not connected.
func (s *Store) IsConnected(ctx context.Context, user, provider string) bool {
	blob, ok, err := s.Load(ctx, user, provider)
	if err != nil || !ok {
		return false
	}
	for _, field := range s.required[provider] {
		if blob.String(field) == "" {
			return false
		}
	}
	return true
}

// Providers lists the providers that have a stored blob.
func (s *Store) Providers(ctx context.Context, user string) ([]string, error) {
	path, err := s.docPath(user)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := readDoc(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(doc))
	for p := range doc {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Users lists every user with a credential document.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "users"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || !validName(e.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, "users", e.Name(), "tokens.json")); err == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func readDoc(path string) (map[string]Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Blob{}, nil
		}
		return nil, err
	}
	doc := map[string]Blob{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	for provider, blob := range doc {
		for k, v := range blob {
			blob[k] = restoreNumbers(v)
		}
		doc[provider] = blob
	}
	return doc, nil
}

// restoreNumbers turns decoded numbers back into int64 when integral and float64
// otherwise, so an expiry saved as int64 loads as int64.
func restoreNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = restoreNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = restoreNumbers(item)
		}
		return val
	default:
		return v
	}
}

func writeDoc(path string, doc map[string]Blob) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func validName(name string) bool {
	return namePattern.MatchString(name) && !strings.Contains(name, "..")
}
