package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/token"
)

var _ token.Repo = (*Store)(nil)

const tokenColumns = `id, token, subject_id, subject_kind, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*token.Token, error) {
	var (
		t         token.Token
		kind      string
		createdAt int64
	)
	if err := row.Scan(&t.ID, &t.Token, &t.SubjectID, &kind, &createdAt); err != nil {
		return nil, err
	}
	t.SubjectKind = token.SubjectKind(kind)
	t.CreatedAt = fromMillis(createdAt)
	return &t, nil
}

func (s *Store) getToken(ctx context.Context, where string, args ...any) (*token.Token, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE `+where, args...)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (s *Store) GetBySubject(ctx context.Context, kind token.SubjectKind, subjectID string) (*token.Token, error) {
	return s.getToken(ctx, "subject_kind = ? AND subject_id = ?", string(kind), subjectID)
}

func (s *Store) GetByToken(ctx context.Context, tokenString string) (*token.Token, error) {
	return s.getToken(ctx, "token = ?", tokenString)
}

// Create inserts a token record. The UNIQUE(subject_kind, subject_id)
// constraint makes the insert a no-op when the subject already owns a record.
func (s *Store) Create(ctx context.Context, subjectID string, kind token.SubjectKind, tokenString string) (*token.Token, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	t := &token.Token{
		ID:          uuid.New().String(),
		Token:       tokenString,
		SubjectID:   subjectID,
		SubjectKind: kind,
		CreatedAt:   fromMillis(toMillis(s.nowFunc())),
	}

	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO tokens (`+tokenColumns+`)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(subject_kind, subject_id) DO NOTHING`,
		t.ID, t.Token, t.SubjectID, string(t.SubjectKind), toMillis(t.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	if affected == 0 {
		return nil, errs.Wrapf(errs.ErrSubjectHasToken, "%s %s", kind, subjectID)
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, t *token.Token) error {
	if t == nil {
		return nil
	}
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tokens WHERE token = ?`, t.Token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]*token.Token, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	offset, limit = pageBounds(offset, limit)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}
