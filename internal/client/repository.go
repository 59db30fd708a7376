package client

import (
	"context"
	"sync"

	"github.com/spintom/inserf/internal/apperr"
)

var ErrNotFound = apperr.New(apperr.NotFound, "cliente no encontrado")

type Repository interface {
	GetByID(ctx context.Context, id int) (Client, error)
	UpdateContact(ctx context.Context, id int, contact Contact) error
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	clients map[int]Client
}

func NewInMemoryRepository(seed []Client) *InMemoryRepository {
	r := &InMemoryRepository{clients: make(map[int]Client, len(seed))}
	for _, c := range seed {
		r.clients[c.ID] = c
	}
	return r
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) UpdateContact(ctx context.Context, id int, contact Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return ErrNotFound
	}
	c.Contact = contact
	r.clients[id] = c
	return nil
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	saved := make(map[int]Client, len(r.clients))
	for id, c := range r.clients {
		saved[id] = c
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.clients = saved
		r.mu.Unlock()
	}
}
