package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "mindbody-backend/internal/auth/domain"
	authdto "mindbody-backend/internal/auth/dto"
	"mindbody-backend/internal/auth/repository"
	"mindbody-backend/pkg/config"
	"mindbody-backend/pkg/recordstore"

	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*authUsecase, *recordstore.Store) {
	t.Helper()
	store := recordstore.New(t.TempDir())
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour}
	return NewAuthUsecase(repository.NewCSVUserRepository(store), cfg).(*authUsecase), store
}

func TestRegisterLoginValidate(t *testing.T) {
	u, store := newAuth(t)
	ctx := context.Background()

	resp, err := u.Register(ctx, &authdto.RegisterRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "alice", resp.User.Username)

	// the stored password is a hash, never the plain text
	table, err := store.ReadGlobal(ctx, "users")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	require.NotEqual(t, "s3cret!", table.Rows[0]["password_hash"])

	_, err = u.Register(ctx, &authdto.RegisterRequest{Username: "alice", Password: "other1"})
	require.ErrorIs(t, err, authdomain.ErrUsernameTaken)

	login, err := u.Login(ctx, &authdto.LoginRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)

	user, err := u.ValidateToken(ctx, login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	_, err = u.Login(ctx, &authdto.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
	_, err = u.Login(ctx, &authdto.LoginRequest{Username: "bob", Password: "s3cret!"})
	require.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
}

func TestRegisterRejectsPathLikeUsernames(t *testing.T) {
	u, _ := newAuth(t)

	for _, name := range []string{"../etc", "a/b", ".hidden", ""} {
		_, err := u.Register(context.Background(), &authdto.RegisterRequest{Username: name, Password: "s3cret!"})
		require.ErrorIs(t, err, ErrInvalidUsername, name)
	}
}

func TestValidateTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	u, _ := newAuth(t)
	ctx := context.Background()

	resp, err := u.Register(ctx, &authdto.RegisterRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)

	u.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = u.ValidateToken(ctx, resp.AccessToken)
	require.ErrorIs(t, err, authdomain.ErrInvalidToken)

	u.now = time.Now
	other := &authUsecase{userRepo: u.userRepo, config: &config.Config{JWTSecret: "other", JWTAccessExpiry: time.Hour}, now: time.Now}
	forged, err := other.generateToken(resp.User)
	require.NoError(t, err)
	_, err = u.ValidateToken(ctx, forged.AccessToken)
	require.ErrorIs(t, err, authdomain.ErrInvalidToken)
}
