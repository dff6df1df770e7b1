package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/users"
)

type userRepository struct {
	store *Store
}

type clientRepository struct {
	store *Store
}

// Users returns the Postgres-backed users.Repo.
func (s *Store) Users() users.Repo {
	return &userRepository{store: s}
}

// Clients returns the Postgres-backed clients.Repo.
func (s *Store) Clients() clients.Repo {
	return &clientRepository{store: s}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, created_at`

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = users.RoleType(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *users.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = users.RoleMember
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	const query = `
        INSERT INTO users (id, email, password_hash, first_name, last_name, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            email=EXCLUDED.email,
            password_hash=EXCLUDED.password_hash,
            first_name=EXCLUDED.first_name,
            last_name=EXCLUDED.last_name,
            role=EXCLUDED.role
        RETURNING created_at`

	if err := r.store.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
	).Scan(&user.CreatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

func (r *userRepository) get(ctx context.Context, query, key string) (*users.User, error) {
	u, err := scanUser(r.store.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("user", key, errs.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	off, lim := pageBounds(offset, limit)
	rows, err := r.store.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`, off, lim)
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

func (r *clientRepository) Upsert(ctx context.Context, client *clients.Client) error {
	if client == nil || strings.TrimSpace(client.ID) == "" {
		return fmt.Errorf("client id is required")
	}

	const query = `
        INSERT INTO clients (id, secret_hash, description)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            secret_hash=EXCLUDED.secret_hash,
            description=EXCLUDED.description
        RETURNING created_at`

	if err := r.store.pool.QueryRow(ctx, query,
		client.ID,
		client.SecretHash,
		client.Description,
	).Scan(&client.CreatedAt); err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}
	client.CreatedAt = client.CreatedAt.UTC()
	return nil
}

func (r *clientRepository) Get(ctx context.Context, clientID string) (*clients.Client, error) {
	const query = `SELECT id, secret_hash, description, created_at FROM clients WHERE id=$1`

	var c clients.Client
	err := r.store.pool.QueryRow(ctx, query, clientID).Scan(&c.ID, &c.SecretHash, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("client", clientID, errs.ErrClientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
