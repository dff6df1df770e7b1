package token

import "context"

// Repo persists at most one token per subject. A subject is identified by its
// kind and ID together, so a user and a client sharing an ID never share a
// record.
//
// Lookups return (nil, nil) when nothing matches. Create returns an error
// wrapping errors.ErrSubjectHasToken when the subject already owns a record;
// implementations must enforce this atomically. Delete of an absent record
// is a no-op.
type Repo interface {
	GetBySubject(ctx context.Context, kind SubjectKind, subjectID string) (*Token, error)
	GetByToken(ctx context.Context, tokenString string) (*Token, error)
	Create(ctx context.Context, subjectID string, kind SubjectKind, tokenString string) (*Token, error)
	Delete(ctx context.Context, token *Token) error
	List(ctx context.Context, offset, limit int) ([]*Token, error)
}
