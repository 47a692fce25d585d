package domain

import "time"

// AppUser is an application user account. The import pipeline creates one
// lazily, at most once per creator account, the first time a video by that
// creator is imported.
type AppUser struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	Bio          string
	CreatedAt    time.Time
}

// AppUserRepository defines storage operations for application users
type AppUserRepository interface {
	// GetByID returns a user by id, or nil when absent
	GetByID(id string) (*AppUser, error)

	// GetByUsername returns a user by username, or nil when absent
	GetByUsername(username string) (*AppUser, error)

	// Create inserts a new user, assigning an ID when empty
	Create(user *AppUser) error
}

// Post is a user-facing feed entry. Imported posts carry the provenance
// category so the feed can distinguish them from native content.
type Post struct {
	ID       string
	UserID   string
	Content  string
	Title    string
	MediaURL string
	Hashtags []string

	// Category marks provenance; imported posts use CategoryImport
	Category   string
	Visibility string
	CreatedAt  time.Time
}

const (
	// CategoryImport marks a post created by the import pipeline
	CategoryImport = "tiktok-import"

	// VisibilityPublic is the default visibility for imported posts
	VisibilityPublic = "public"
)

// PostRepository defines storage operations for posts
type PostRepository interface {
	// Create inserts a new post, assigning an ID when empty
	Create(post *Post) error

	// GetByID returns a post by id, or nil when absent
	GetByID(id string) (*Post, error)
}
