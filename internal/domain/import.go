package domain

import "time"

// ImportStatus represents the lifecycle state of an import job
type ImportStatus string

const (
	// ImportStatusPending indicates a job that has been recorded but not started
	ImportStatusPending ImportStatus = "pending"

	// ImportStatusProcessing indicates an import attempt in flight
	ImportStatusProcessing ImportStatus = "processing"

	// ImportStatusCompleted indicates the full pipeline succeeded
	ImportStatusCompleted ImportStatus = "completed"

	// ImportStatusFailed indicates an unrecoverable step failure
	ImportStatusFailed ImportStatus = "failed"
)

// ImportJob is the durable record of one import attempt. Jobs are never
// deleted; the table doubles as an audit trail and as the dedup ledger via
// the unique ExternalVideoID constraint.
type ImportJob struct {
	ID               string
	CreatorAccountID string

	// ExternalVideoID is unique across all jobs, enforcing at most one
	// import per source video
	ExternalVideoID string

	SourceURL    string
	Status       ImportStatus
	ErrorMessage string

	// PostID is set when the job completes
	PostID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImportJobRepository defines storage operations for the dedup ledger
type ImportJobRepository interface {
	// GetByExternalVideoID returns the job for a source video id, or nil
	GetByExternalVideoID(externalVideoID string) (*ImportJob, error)

	// Create inserts a new job. Returns ErrDuplicateImport when a job for
	// the same external video id already exists.
	Create(job *ImportJob) error

	// MarkCompleted transitions a job to completed with the resulting post id
	MarkCompleted(id, postID string) error

	// MarkFailed transitions a job to failed with an error message
	MarkFailed(id, message string) error

	// ListRecent returns up to limit jobs, most recent first
	ListRecent(limit int) ([]*ImportJob, error)
}

// ImportedUser summarizes the app user attached to a completed import
type ImportedUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// ImportedPost summarizes the post created by a completed import
type ImportedPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	MediaURL string `json:"videoUrl"`
}

// ImportOutcome is the structured result of one import attempt. A duplicate
// import is reported with Success=false and Duplicate=true; it is a
// recognized no-op, not a pipeline failure.
type ImportOutcome struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Duplicate      bool          `json:"duplicate,omitempty"`
	AccountCreated bool          `json:"accountCreated,omitempty"`
	PostCreated    bool          `json:"postCreated,omitempty"`
	User           *ImportedUser `json:"user,omitempty"`
	Post           *ImportedPost `json:"post,omitempty"`
	Error          string        `json:"error,omitempty"`
}
