package domain

import "time"

// CreatorAccount is the platform's local mirror of a source-site creator,
// keyed by handle. Created once per distinct handle; mutable profile fields
// are refreshed in place on repeat imports.
type CreatorAccount struct {
	ID             string
	Handle         string
	ExternalUserID string
	DisplayName    string
	AvatarURL      string
	Verified       bool
	Bio            string

	// AppUserID links the mirrored creator to an application user once the
	// first import for this creator completes. Empty means unlinked.
	AppUserID string

	FollowerCount  int64
	FollowingCount int64
	LikesCount     int64
	VideoCount     int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatorAccountRepository defines storage operations for creator accounts
type CreatorAccountRepository interface {
	// GetByHandle returns the account for a handle, or nil when absent
	GetByHandle(handle string) (*CreatorAccount, error)

	// Create inserts a new account, assigning an ID when empty
	Create(account *CreatorAccount) error

	// Update rewrites the mutable fields of an existing account
	Update(account *CreatorAccount) error

	// LinkToUser sets the app-user link on an account
	LinkToUser(accountID, userID string) error
}
