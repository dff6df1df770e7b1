package clients

import (
	"time"

	"github.com/jrsteele09/go-token-server/users"
)

// Client is a registered OAuth2 client. Clients authenticate with a secret
// and carry no role.
type Client struct {
	ID          string    `json:"id"`
	SecretHash  string    `json:"-"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CheckSecret verifies a presented secret against the stored hash.
func (c *Client) CheckSecret(secret string) bool {
	if c == nil {
		return false
	}
	return users.CheckPasswordHash(secret, c.SecretHash)
}

// New builds a client with a hashed secret.
func New(id, secret, description string, cost int) (*Client, error) {
	hash, err := users.HashPasswordWithCost(secret, cost)
	if err != nil {
		return nil, err
	}
	return &Client{
		ID:          id,
		SecretHash:  hash,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
