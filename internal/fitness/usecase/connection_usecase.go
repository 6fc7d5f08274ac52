package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mindbody-backend/internal/fitness/domain"
	"mindbody-backend/internal/fitness/repository"
	"mindbody-backend/pkg/tokenstore"
)

// connectionUsecase implements ConnectionUsecase
type connectionUsecase struct {
	registry *domain.Registry
	tokens   repository.TokenRepository
	sync     SyncUsecase
	state    stateSigner

	mu      sync.Mutex
	pending map[string]time.Time // user/provider -> authorization deadline
}

// NewConnectionUsecase creates a new instance of connectionUsecase. stateSecret signs
// the OAuth state parameter, which is valid for stateTTL.
func NewConnectionUsecase(registry *domain.Registry, tokens repository.TokenRepository, syncUsecase SyncUsecase, stateSecret string, stateTTL time.Duration) ConnectionUsecase {
	return newConnectionUsecase(registry, tokens, syncUsecase, stateSecret, stateTTL, time.Now)
}

func newConnectionUsecase(registry *domain.Registry, tokens repository.TokenRepository, syncUsecase SyncUsecase, stateSecret string, stateTTL time.Duration, now func() time.Time) *connectionUsecase {
	return &connectionUsecase{
		registry: registry,
		tokens:   tokens,
		sync:     syncUsecase,
		state:    stateSigner{secret: []byte(stateSecret), ttl: stateTTL, now: now},
		pending:  make(map[string]time.Time),
	}
}

func pendingKey(user, provider string) string {
	return user + "/" + provider
}

func (u *connectionUsecase) lookup(provider string, kind domain.ProviderKind) (domain.ProviderClient, error) {
	client, ok := u.registry.Lookup(provider)
	if !ok {
		return client, domain.ErrUnsupportedProvider
	}
	if client.Kind != kind {
		return client, fmt.Errorf("%w: %s is a %s provider", domain.ErrWrongProviderKind, provider, client.Kind)
	}
	if !client.Available {
		return client, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, client.UnavailableReason)
	}
	return client, nil
}

// RequestConnect moves DISCONNECTED to AUTHORIZING by issuing an authorization URL.
// Nothing is persisted.
func (u *connectionUsecase) RequestConnect(ctx context.Context, user, provider string) (*domain.ConnectRequest, error) {
	client, err := u.lookup(provider, domain.KindOAuth)
	if err != nil {
		return nil, err
	}
	state, exp, err := u.state.issue(user, provider)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.pending[pendingKey(user, provider)] = exp
	u.mu.Unlock()

	log.Printf("[Connections] Authorization URL issued for %s (%s)", user, provider)
	return &domain.ConnectRequest{
		Provider:  provider,
		State:     domain.StateAuthorizing,
		AuthURL:   client.OAuth.AuthCodeURL(state),
		ExpiresAt: exp,
	}, nil
}

// HandleCallback finishes an OAuth flow. Success stores the token, which triggers the
// first sync through the token store; the sync outcome does not change the state.
func (u *connectionUsecase) HandleCallback(ctx context.Context, provider, state, code, callbackErr string) (*domain.Connection, error) {
	client, err := u.lookup(provider, domain.KindOAuth)
	if err != nil {
		return nil, err
	}
	user, err := u.state.parse(state, provider)
	if err != nil {
		return nil, err
	}
	u.clearPending(user, provider)

	if callbackErr != "" || code == "" {
		log.Printf("[Connections] %s authorization denied for %s: %s", provider, user, callbackErr)
		return u.connection(ctx, user, client), fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, callbackErr)
	}

	blob, err := client.OAuth.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("[Connections] %s token exchange failed for %s: %v", provider, user, err)
		return u.connection(ctx, user, client), err
	}
	if err := u.tokens.Save(ctx, user, provider, tokenstore.Blob(blob)); err != nil {
		return u.connection(ctx, user, client), err
	}

	log.Printf("[Connections] %s connected for %s", provider, user)
	return u.connection(ctx, user, client), nil
}

// SubmitCredentials moves a credential provider straight to CONNECTED when its first
// sync succeeds. On failure nothing is stored and the provider's error is returned.
func (u *connectionUsecase) SubmitCredentials(ctx context.Context, user, provider, username, password string) (*domain.Connection, error) {
	client, err := u.lookup(provider, domain.KindCredential)
	if err != nil {
		return nil, err
	}
	blob := tokenstore.Blob{"username": username, "password": password}

	res := u.sync.Sync(ctx, user, provider, blob)
	if !res.OK() {
		return u.connection(ctx, user, client), errors.New(res.Error)
	}
	if err := u.tokens.Replace(ctx, user, provider, blob); err != nil {
		return nil, err
	}
	log.Printf("[Connections] %s connected for %s", provider, user)
	return u.connection(ctx, user, client), nil
}

// Disconnect removes stored credentials. It is idempotent.
func (u *connectionUsecase) Disconnect(ctx context.Context, user, provider string) (*domain.Connection, error) {
	client, ok := u.registry.Lookup(provider)
	if !ok || client.Kind == domain.KindFile {
		return nil, domain.ErrUnsupportedProvider
	}
	u.clearPending(user, provider)
	if _, err := u.tokens.Remove(ctx, user, provider); err != nil {
		return nil, err
	}
	return u.connection(ctx, user, client), nil
}

func (u *connectionUsecase) Status(ctx context.Context, user, provider string) (*domain.Connection, error) {
	client, ok := u.registry.Lookup(provider)
	if !ok || client.Kind == domain.KindFile {
		return nil, domain.ErrUnsupportedProvider
	}
	return u.connection(ctx, user, client), nil
}

// List reports every connectable provider.
func (u *connectionUsecase) List(ctx context.Context, user string) ([]*domain.Connection, error) {
	var out []*domain.Connection
	for _, client := range u.registry.All() {
		if client.Kind == domain.KindFile {
			continue
		}
		out = append(out, u.connection(ctx, user, client))
	}
	return out, nil
}

// SyncNow re-runs a sync with the stored credentials.
func (u *connectionUsecase) SyncNow(ctx context.Context, user, provider string) (domain.SyncResult, error) {
	if _, ok := u.registry.Lookup(provider); !ok {
		return domain.Failed(provider, domain.ErrUnsupportedProvider), nil
	}
	blob, ok, err := u.tokens.Load(ctx, user, provider)
	if err != nil {
		return domain.SyncResult{}, err
	}
	if !ok {
		return domain.Failed(provider, fmt.Errorf("%s is not connected", provider)), nil
	}
	return u.sync.Sync(ctx, user, provider, blob), nil
}

func (u *connectionUsecase) connection(ctx context.Context, user string, client domain.ProviderClient) *domain.Connection {
	conn := &domain.Connection{
		User:              user,
		Provider:          client.Name,
		Kind:              client.Kind,
		State:             u.currentState(ctx, user, client.Name),
		Available:         client.Available,
		UnavailableReason: client.UnavailableReason,
	}
	if last, err := u.sync.LastRun(ctx, user, client.Name); err != nil {
		log.Printf("[Connections] Failed to read sync history for %s: %v", user, err)
	} else {
		conn.LastSync = last
	}
	return conn
}

func (u *connectionUsecase) currentState(ctx context.Context, user, provider string) domain.ConnectionState {
	if u.tokens.IsConnected(ctx, user, provider) {
		return domain.StateConnected
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	key := pendingKey(user, provider)
	if deadline, ok := u.pending[key]; ok {
		if u.state.now().Before(deadline) {
			return domain.StateAuthorizing
		}
		delete(u.pending, key)
	}
	return domain.StateDisconnected
}

func (u *connectionUsecase) clearPending(user, provider string) {
	u.mu.Lock()
	delete(u.pending, pendingKey(user, provider))
	u.mu.Unlock()
}
