package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// PostRepository is a SQLite implementation of domain.PostRepository.
// Hashtags are stored as a JSON array in a text column.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post.
func (r *PostRepository) Create(post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now().UTC()

	hashtags, err := json.Marshal(post.Hashtags)
	if err != nil {
		return fmt.Errorf("encode hashtags: %w", err)
	}

	_, err = r.db.Exec(`INSERT INTO posts
		(id, user_id, content, title, media_url, hashtags, category, visibility, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.UserID, post.Content, post.Title, post.MediaURL,
		string(hashtags), post.Category, post.Visibility, post.CreatedAt)
	return err
}

// GetByID returns a post by id, or nil when absent.
func (r *PostRepository) GetByID(id string) (*domain.Post, error) {
	row := r.db.QueryRow(`SELECT id, user_id, content, title, media_url, hashtags, category, visibility, created_at
		FROM posts WHERE id = ?`, id)

	var post domain.Post
	var (
		content  sql.NullString
		title    sql.NullString
		mediaURL sql.NullString
		hashtags sql.NullString
	)

	if err := row.Scan(
		&post.ID,
		&post.UserID,
		&content,
		&title,
		&mediaURL,
		&hashtags,
		&post.Category,
		&post.Visibility,
		&post.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	post.Content = content.String
	post.Title = title.String
	post.MediaURL = mediaURL.String

	if hashtags.String != "" {
		if err := json.Unmarshal([]byte(hashtags.String), &post.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags for post %s: %w", post.ID, err)
		}
	}

	return &post, nil
}
