package fakeclientrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-token-server/clients"
	errs "github.com/jrsteele09/go-token-server/internal/errors"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	clients map[string]*clients.Client
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Client),
	}
}

func (cr *FakeClientRepo) Upsert(_ context.Context, client *clients.Client) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	cr.clients[client.ID] = client
	return nil
}

func (cr *FakeClientRepo) Get(_ context.Context, clientID string) (*clients.Client, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	client, ok := cr.clients[clientID]
	if !ok {
		return nil, errs.NewNotFound("client", clientID, errs.ErrClientNotFound)
	}
	return client, nil
}
