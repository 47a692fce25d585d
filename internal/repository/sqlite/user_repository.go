package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// AppUserRepository is a SQLite implementation of domain.AppUserRepository.
type AppUserRepository struct {
	db *sql.DB
}

// NewAppUserRepository creates a new AppUserRepository.
func NewAppUserRepository(db *sql.DB) *AppUserRepository {
	return &AppUserRepository{db: db}
}

// GetByID returns a user by id, or nil when absent.
func (r *AppUserRepository) GetByID(id string) (*domain.AppUser, error) {
	row := r.db.QueryRow(`SELECT id, username, email, password_hash, display_name, avatar_url, bio, created_at
		FROM app_users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByUsername returns a user by username, or nil when absent.
func (r *AppUserRepository) GetByUsername(username string) (*domain.AppUser, error) {
	row := r.db.QueryRow(`SELECT id, username, email, password_hash, display_name, avatar_url, bio, created_at
		FROM app_users WHERE username = ?`, username)
	return scanUser(row)
}

// Create inserts a new user.
func (r *AppUserRepository) Create(user *domain.AppUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`INSERT INTO app_users
		(id, username, email, password_hash, display_name, avatar_url, bio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.DisplayName, user.AvatarURL, user.Bio, user.CreatedAt)
	return err
}

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*domain.AppUser, error) {
	var user domain.AppUser
	var (
		display sql.NullString
		avatar  sql.NullString
		bio     sql.NullString
	)

	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&display,
		&avatar,
		&bio,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user.DisplayName = display.String
	user.AvatarURL = avatar.String
	user.Bio = bio.String

	return &user, nil
}
