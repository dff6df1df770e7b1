package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/users"
)

var (
	_ users.Repo   = (*UserStore)(nil)
	_ clients.Repo = (*ClientStore)(nil)
)

// UserStore is the users.Repo view of a Store. The token methods already
// claim the Store's method set, so users and clients get thin views.
type UserStore struct{ s *Store }

// ClientStore is the clients.Repo view of a Store.
type ClientStore struct{ s *Store }

func (s *Store) Users() *UserStore     { return &UserStore{s: s} }
func (s *Store) Clients() *ClientStore { return &ClientStore{s: s} }

const userColumns = `id, email, password_hash, first_name, last_name, role, created_at`

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u         users.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = users.RoleType(role)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (us *UserStore) Upsert(ctx context.Context, user *users.User) error {
	if err := us.s.ready(ctx); err != nil {
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = us.s.nowFunc().UTC()
	}
	if user.Role == "" {
		user.Role = users.RoleMember
	}
	user.Email = normaliseEmail(user.Email)

	_, err := us.s.sqlDB.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    email = excluded.email,
    password_hash = excluded.password_hash,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    role = excluded.role`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, string(user.Role), toMillis(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (us *UserStore) get(ctx context.Context, where, key string) (*users.User, error) {
	if err := us.s.ready(ctx); err != nil {
		return nil, err
	}
	row := us.s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, key)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("user", key, errs.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (us *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return us.get(ctx, "email", normaliseEmail(email))
}

func (us *UserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	return us.get(ctx, "id", id)
}

func (us *UserStore) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if err := us.s.ready(ctx); err != nil {
		return nil, err
	}
	offset, limit = pageBounds(offset, limit)

	rows, err := us.s.sqlDB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := []*users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (cs *ClientStore) Upsert(ctx context.Context, client *clients.Client) error {
	if err := cs.s.ready(ctx); err != nil {
		return err
	}
	if client == nil || strings.TrimSpace(client.ID) == "" {
		return fmt.Errorf("client id is required")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = cs.s.nowFunc().UTC()
	}

	_, err := cs.s.sqlDB.ExecContext(ctx, `
INSERT INTO clients (id, secret_hash, description, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    secret_hash = excluded.secret_hash,
    description = excluded.description`,
		client.ID, client.SecretHash, client.Description, toMillis(client.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}
	return nil
}

func (cs *ClientStore) Get(ctx context.Context, clientID string) (*clients.Client, error) {
	if err := cs.s.ready(ctx); err != nil {
		return nil, err
	}

	var (
		c         clients.Client
		createdAt int64
	)
	err := cs.s.sqlDB.QueryRowContext(ctx,
		`SELECT id, secret_hash, description, created_at FROM clients WHERE id = ?`, clientID,
	).Scan(&c.ID, &c.SecretHash, &c.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("client", clientID, errs.ErrClientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}
