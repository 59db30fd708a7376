package user

import (
	"context"
	"strings"
	"sync"

	"github.com/spintom/inserf/internal/apperr"
)

var (
	ErrNotFound           = apperr.New(apperr.NotFound, "usuario no encontrado")
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "Usuario o contraseña incorrectos")
	ErrUsernameExists     = apperr.New(apperr.Conflict, "el usuario ya existe")
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

// GetByUsername matches case-insensitively, like the Postgres lookup.
func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) {
			return User{}, ErrUsernameExists
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}

	r.users = append(r.users, user)
	return user, nil
}
