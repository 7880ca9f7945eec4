package memory

import (
	"context"
	"sync"

	clients "energy-accounting/internal/clients/domain"
)

// ClientRepository is an in-memory client hierarchy.
type ClientRepository struct {
	mu    sync.RWMutex
	mains map[string]clients.MainClient
	subs  map[string]clients.SubClient
	parts map[string]clients.PartClient
}

// NewClientRepository constructs a repository.
func NewClientRepository() *ClientRepository {
	return &ClientRepository{
		mains: make(map[string]clients.MainClient),
		subs:  make(map[string]clients.SubClient),
		parts: make(map[string]clients.PartClient),
	}
}

// SaveMain stores a main client.
func (r *ClientRepository) SaveMain(ctx context.Context, client clients.MainClient) error {
	_ = ctx
	if err := client.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.mains[client.ID] = client
	r.mu.Unlock()
	return nil
}

// SaveSub stores a sub client.
func (r *ClientRepository) SaveSub(ctx context.Context, client clients.SubClient) error {
	_ = ctx
	if err := client.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.subs[client.ID] = client
	r.mu.Unlock()
	return nil
}

// SavePart stores a part client.
func (r *ClientRepository) SavePart(ctx context.Context, client clients.PartClient) error {
	_ = ctx
	if err := client.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.parts[client.ID] = client
	r.mu.Unlock()
	return nil
}

// GetMain loads a main client.
func (r *ClientRepository) GetMain(ctx context.Context, id string) (*clients.MainClient, error) {
	_ = ctx
	r.mu.RLock()
	client, ok := r.mains[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &client, nil
}

// GetSub loads a sub client.
func (r *ClientRepository) GetSub(ctx context.Context, id string) (*clients.SubClient, error) {
	_ = ctx
	r.mu.RLock()
	client, ok := r.subs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &client, nil
}

// ListSubClients lists sub clients of a main client.
func (r *ClientRepository) ListSubClients(ctx context.Context, mainClientID string) ([]clients.SubClient, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []clients.SubClient
	for _, sub := range r.subs {
		if sub.MainClientID == mainClientID {
			result = append(result, sub)
		}
	}
	return result, nil
}

// ListPartClients lists part clients of a sub client.
func (r *ClientRepository) ListPartClients(ctx context.Context, subClientID string) ([]clients.PartClient, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []clients.PartClient
	for _, part := range r.parts {
		if part.SubClientID == subClientID {
			result = append(result, part)
		}
	}
	return result, nil
}
