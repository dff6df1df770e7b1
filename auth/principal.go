package auth

import (
	"time"

	"github.com/jrsteele09/go-token-server/clients"
	"github.com/jrsteele09/go-token-server/roles"
	"github.com/jrsteele09/go-token-server/token"
	"github.com/jrsteele09/go-token-server/users"
)

// Principal is the subject resolved from a bearer token. Exactly one of User
// and Client is set, matching Kind.
type Principal struct {
	Kind      token.SubjectKind
	User      *users.User
	Client    *clients.Client
	Token     *token.Token
	ExpiresAt time.Time
}

var _ roles.Subject = (*Principal)(nil)

func (p *Principal) SubjectID() string {
	switch {
	case p == nil:
		return ""
	case p.User != nil:
		return p.User.ID
	case p.Client != nil:
		return p.Client.ID
	}
	return ""
}

func (p *Principal) SubjectRole() users.RoleType {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Role
}

func (p *Principal) SubjectEmail() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Email
}

func (p *Principal) IsClient() bool {
	return p != nil && p.Kind == token.SubjectClient
}
