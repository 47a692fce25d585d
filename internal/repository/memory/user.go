package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// AppUserRepository is an in-memory implementation of
// domain.AppUserRepository, used by tests.
type AppUserRepository struct {
	mu         sync.RWMutex
	users      map[string]*domain.AppUser // keyed by id
	byUsername map[string]string          // username -> id
}

// NewAppUserRepository creates an empty in-memory repository.
func NewAppUserRepository() *AppUserRepository {
	return &AppUserRepository{
		users:      make(map[string]*domain.AppUser),
		byUsername: make(map[string]string),
	}
}

func (r *AppUserRepository) GetByID(id string) (*domain.AppUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneUser(r.users[id]), nil
}

func (r *AppUserRepository) GetByUsername(username string) (*domain.AppUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	return cloneUser(r.users[id]), nil
}

func (r *AppUserRepository) Create(user *domain.AppUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	r.users[user.ID] = cloneUser(user)
	r.byUsername[user.Username] = user.ID
	return nil
}

// Count returns the number of stored users.
func (r *AppUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func cloneUser(user *domain.AppUser) *domain.AppUser {
	if user == nil {
		return nil
	}
	clone := *user
	return &clone
}
