package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/token"
)

type tokenRepository struct {
	store *Store
}

// Tokens returns the Postgres-backed token.Repo.
func (s *Store) Tokens() token.Repo {
	return &tokenRepository{store: s}
}

const tokenColumns = `id, token, subject_id, subject_kind, created_at`

func scanToken(row pgx.Row) (*token.Token, error) {
	var (
		t    token.Token
		kind string
	)
	if err := row.Scan(&t.ID, &t.Token, &t.SubjectID, &kind, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.SubjectKind = token.SubjectKind(kind)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r *tokenRepository) get(ctx context.Context, query string, args ...any) (*token.Token, error) {
	t, err := scanToken(r.store.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (r *tokenRepository) GetBySubject(ctx context.Context, kind token.SubjectKind, subjectID string) (*token.Token, error) {
	return r.get(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE subject_kind=$1 AND subject_id=$2`, string(kind), subjectID)
}

func (r *tokenRepository) GetByToken(ctx context.Context, tokenString string) (*token.Token, error) {
	return r.get(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE token=$1`, tokenString)
}

// Create inserts a record unless the subject already owns one. A conflicting
// insert returns no row.
func (r *tokenRepository) Create(ctx context.Context, subjectID string, kind token.SubjectKind, tokenString string) (*token.Token, error) {
	const query = `
        INSERT INTO tokens (id, token, subject_id, subject_kind)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subject_kind, subject_id) DO NOTHING
        RETURNING ` + tokenColumns

	t, err := scanToken(r.store.pool.QueryRow(ctx, query,
		uuid.New().String(),
		tokenString,
		subjectID,
		string(kind),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrSubjectHasToken, "%s %s", kind, subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return t, nil
}

func (r *tokenRepository) Delete(ctx context.Context, t *token.Token) error {
	if t == nil {
		return nil
	}
	if _, err := r.store.pool.Exec(ctx, `DELETE FROM tokens WHERE token=$1`, t.Token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *tokenRepository) List(ctx context.Context, offset, limit int) ([]*token.Token, error) {
	off, lim := pageBounds(offset, limit)
	rows, err := r.store.pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM tokens ORDER BY created_at, id OFFSET $1 LIMIT $2`, off, lim)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	tokens := []*token.Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
