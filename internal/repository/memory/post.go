package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// PostRepository is an in-memory implementation of domain.PostRepository,
// used by tests.
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*domain.Post
}

// NewPostRepository creates an empty in-memory repository.
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*domain.Post)}
}

func (r *PostRepository) Create(post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now().UTC()

	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *PostRepository) GetByID(id string) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return clonePost(r.posts[id]), nil
}

// Count returns the number of stored posts.
func (r *PostRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

func clonePost(post *domain.Post) *domain.Post {
	if post == nil {
		return nil
	}
	clone := *post
	clone.Hashtags = append([]string(nil), post.Hashtags...)
	return &clone
}
