package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// CreatorAccountRepository is a SQLite implementation of
// domain.CreatorAccountRepository.
type CreatorAccountRepository struct {
	db *sql.DB
}

// NewCreatorAccountRepository creates a new CreatorAccountRepository.
func NewCreatorAccountRepository(db *sql.DB) *CreatorAccountRepository {
	return &CreatorAccountRepository{db: db}
}

// GetByHandle returns the account for a handle, or nil when absent.
func (r *CreatorAccountRepository) GetByHandle(handle string) (*domain.CreatorAccount, error) {
	row := r.db.QueryRow(`SELECT id, handle, external_user_id, display_name, avatar_url, verified, bio,
		app_user_id, follower_count, following_count, likes_count, video_count, created_at, updated_at
		FROM creator_accounts WHERE handle = ?`, handle)
	return scanAccount(row)
}

// Create inserts a new account.
func (r *CreatorAccountRepository) Create(account *domain.CreatorAccount) error {
	now := time.Now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO creator_accounts
		(id, handle, external_user_id, display_name, avatar_url, verified, bio, app_user_id,
			follower_count, following_count, likes_count, video_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Handle, account.ExternalUserID, account.DisplayName, account.AvatarURL,
		boolToInt(account.Verified), account.Bio, nullableString(account.AppUserID),
		account.FollowerCount, account.FollowingCount, account.LikesCount, account.VideoCount,
		account.CreatedAt, account.UpdatedAt)
	return err
}

// Update rewrites the mutable profile fields and counters.
func (r *CreatorAccountRepository) Update(account *domain.CreatorAccount) error {
	account.UpdatedAt = time.Now().UTC()
	_, err := r.db.Exec(`UPDATE creator_accounts SET
		external_user_id = ?, display_name = ?, avatar_url = ?, verified = ?, bio = ?,
		follower_count = ?, following_count = ?, likes_count = ?, video_count = ?, updated_at = ?
		WHERE id = ?`,
		account.ExternalUserID, account.DisplayName, account.AvatarURL, boolToInt(account.Verified),
		account.Bio, account.FollowerCount, account.FollowingCount, account.LikesCount,
		account.VideoCount, account.UpdatedAt, account.ID)
	return err
}

// LinkToUser sets the app-user link on an account.
func (r *CreatorAccountRepository) LinkToUser(accountID, userID string) error {
	_, err := r.db.Exec(`UPDATE creator_accounts SET app_user_id = ?, updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), accountID)
	return err
}

func scanAccount(scanner interface {
	Scan(dest ...any) error
}) (*domain.CreatorAccount, error) {
	var account domain.CreatorAccount
	var (
		externalID sql.NullString
		display    sql.NullString
		avatar     sql.NullString
		bio        sql.NullString
		appUserID  sql.NullString
		verified   int
	)

	if err := scanner.Scan(
		&account.ID,
		&account.Handle,
		&externalID,
		&display,
		&avatar,
		&verified,
		&bio,
		&appUserID,
		&account.FollowerCount,
		&account.FollowingCount,
		&account.LikesCount,
		&account.VideoCount,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	account.ExternalUserID = externalID.String
	account.DisplayName = display.String
	account.AvatarURL = avatar.String
	account.Bio = bio.String
	account.AppUserID = appUserID.String
	account.Verified = verified != 0

	return &account, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
