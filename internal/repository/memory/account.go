package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// CreatorAccountRepository is an in-memory implementation of
// domain.CreatorAccountRepository, used by tests.
type CreatorAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.CreatorAccount // keyed by id
	byHandle map[string]string                 // handle -> id
}

// NewCreatorAccountRepository creates an empty in-memory repository.
func NewCreatorAccountRepository() *CreatorAccountRepository {
	return &CreatorAccountRepository{
		accounts: make(map[string]*domain.CreatorAccount),
		byHandle: make(map[string]string),
	}
}

func (r *CreatorAccountRepository) GetByHandle(handle string) (*domain.CreatorAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHandle[handle]
	if !ok {
		return nil, nil
	}
	return cloneAccount(r.accounts[id]), nil
}

func (r *CreatorAccountRepository) Create(account *domain.CreatorAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	r.accounts[account.ID] = cloneAccount(account)
	r.byHandle[account.Handle] = account.ID
	return nil
}

func (r *CreatorAccountRepository) Update(account *domain.CreatorAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *CreatorAccountRepository) LinkToUser(accountID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[accountID]; ok {
		account.AppUserID = userID
		account.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Count returns the number of stored accounts.
func (r *CreatorAccountRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func cloneAccount(account *domain.CreatorAccount) *domain.CreatorAccount {
	if account == nil {
		return nil
	}
	clone := *account
	return &clone
}
