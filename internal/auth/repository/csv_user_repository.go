package repository

import (
	"context"
	"time"

	authdomain "mindbody-backend/internal/auth/domain"
	"mindbody-backend/pkg/recordstore"
)

const usersTable = "users"

// GlobalTableStore is the part of the record store holding root-level tables.
type GlobalTableStore interface {
	ReadGlobal(ctx context.Context, name string) (recordstore.Table, error)
	UpdateGlobal(ctx context.Context, name string, fn func(*recordstore.Table) error) error
}

// csvUserRepository implements UserRepository on the users.csv table
type csvUserRepository struct {
	store GlobalTableStore
	now   func() time.Time
}

// NewCSVUserRepository creates a UserRepository backed by DATA_DIR/users.csv
func NewCSVUserRepository(store GlobalTableStore) UserRepository {
	return &csvUserRepository{store: store, now: time.Now}
}

func (r *csvUserRepository) Create(ctx context.Context, user *authdomain.User) error {
	return r.store.UpdateGlobal(ctx, usersTable, func(t *recordstore.Table) error {
		for _, row := range t.Rows {
			if row["username"] == user.Username {
				return authdomain.ErrUsernameTaken
			}
		}
		now := r.now().UTC()
		user.CreatedAt = now
		user.UpdatedAt = now
		if len(t.Columns) == 0 {
			t.Columns = []string{"username", "password_hash", "created_at"}
		}
		t.Rows = append(t.Rows, recordstore.Record{
			"username":      user.Username,
			"password_hash": user.Password,
			"created_at":    now.Format(time.RFC3339),
		})
		return nil
	})
}

func (r *csvUserRepository) FindByUsername(ctx context.Context, username string) (*authdomain.User, error) {
	t, err := r.store.ReadGlobal(ctx, usersTable)
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if row["username"] != username {
			continue
		}
		created, _ := time.Parse(time.RFC3339, row["created_at"])
		return &authdomain.User{
			Username:  row["username"],
			Password:  row["password_hash"],
			CreatedAt: created,
			UpdatedAt: created,
		}, nil
	}
	return nil, nil
}
