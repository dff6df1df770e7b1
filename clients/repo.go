package clients

import "context"

// Repo stores registered clients. Get returns a NotFoundError wrapping
// errors.ErrClientNotFound when the client is unknown.
type Repo interface {
	Upsert(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
}
