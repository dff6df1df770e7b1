package tokenfakerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
	"github.com/jrsteele09/go-token-server/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens   map[string]*token.Token // token string to record
	subjects map[string]string       // subject key to token string
	lock     sync.RWMutex
	nowFunc  func() time.Time
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens:   make(map[string]*token.Token),
		subjects: make(map[string]string),
		nowFunc:  time.Now,
	}
}

func (tr *FakeTokenRepo) Create(_ context.Context, subjectID string, kind token.SubjectKind, tokenString string) (*token.Token, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	key := subjectKey(kind, subjectID)
	if _, exists := tr.subjects[key]; exists {
		return nil, errs.Wrapf(errs.ErrSubjectHasToken, "%s %s", kind, subjectID)
	}

	rec := &token.Token{
		ID:          uuid.New().String(),
		Token:       tokenString,
		SubjectID:   subjectID,
		SubjectKind: kind,
		CreatedAt:   tr.nowFunc().UTC(),
	}
	tr.tokens[tokenString] = rec
	tr.subjects[key] = tokenString
	return copyToken(rec), nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context, t *token.Token) error {
	if t == nil {
		return nil
	}
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rec, ok := tr.tokens[t.Token]
	if !ok {
		return nil
	}
	delete(tr.tokens, rec.Token)
	key := subjectKey(rec.SubjectKind, rec.SubjectID)
	if tr.subjects[key] == rec.Token {
		delete(tr.subjects, key)
	}
	return nil
}

func (tr *FakeTokenRepo) GetByToken(_ context.Context, tokenString string) (*token.Token, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rec, ok := tr.tokens[tokenString]
	if !ok {
		return nil, nil
	}
	return copyToken(rec), nil
}

func (tr *FakeTokenRepo) GetBySubject(_ context.Context, kind token.SubjectKind, subjectID string) (*token.Token, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tokenString, ok := tr.subjects[subjectKey(kind, subjectID)]
	if !ok {
		return nil, nil
	}
	return copyToken(tr.tokens[tokenString]), nil
}

func (tr *FakeTokenRepo) List(_ context.Context, offset, limit int) ([]*token.Token, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tokens := make([]*token.Token, 0, len(tr.tokens))
	for _, v := range tr.tokens {
		tokens = append(tokens, copyToken(v))
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].CreatedAt.Before(tokens[j].CreatedAt)
	})

	if offset < 0 || offset >= len(tokens) {
		return []*token.Token{}, nil
	}
	end := len(tokens)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return tokens[offset:end], nil
}

// Count returns the number of stored records.
func (tr *FakeTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}

func subjectKey(kind token.SubjectKind, subjectID string) string {
	return string(kind) + ":" + subjectID
}

func copyToken(t *token.Token) *token.Token {
	c := *t
	return &c
}
