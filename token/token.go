package token

import "time"

// SubjectKind tells users and clients apart. Both can own a token.
type SubjectKind string

const (
	SubjectUser   SubjectKind = "user"
	SubjectClient SubjectKind = "client"
)

// Subject is the identity a token is minted for.
type Subject struct {
	ID   string
	Kind SubjectKind
	Role string // empty for clients
}

// Token is a persisted bearer credential. Issue and expiry times live inside
// the signed string only.
type Token struct {
	ID          string      `json:"id"`
	Token       string      `json:"-"`
	SubjectID   string      `json:"subject_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	CreatedAt   time.Time   `json:"created_at"`
}
