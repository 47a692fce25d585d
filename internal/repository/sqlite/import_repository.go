package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// ImportJobRepository is a SQLite implementation of
// domain.ImportJobRepository. The unique external_video_id column is the
// dedup ledger's single cross-call invariant.
type ImportJobRepository struct {
	db *sql.DB
}

// NewImportJobRepository creates a new ImportJobRepository.
func NewImportJobRepository(db *sql.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// GetByExternalVideoID returns the job for a source video id, or nil.
func (r *ImportJobRepository) GetByExternalVideoID(externalVideoID string) (*domain.ImportJob, error) {
	row := r.db.QueryRow(`SELECT id, creator_account_id, external_video_id, source_url, status,
		error_message, post_id, created_at, updated_at
		FROM tiktok_imports WHERE external_video_id = ?`, externalVideoID)
	return scanImportJob(row)
}

// Create inserts a new job. A unique-constraint failure on the external
// video id is reported as ErrDuplicateImport so concurrent imports of the
// same URL collapse into the dedup branch.
func (r *ImportJobRepository) Create(job *domain.ImportJob) error {
	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.ImportStatusPending
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO tiktok_imports
		(id, creator_account_id, external_video_id, source_url, status, error_message, post_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.CreatorAccountID, job.ExternalVideoID, job.SourceURL, string(job.Status),
		job.ErrorMessage, nullableString(job.PostID), job.CreatedAt, job.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateImport, job.ExternalVideoID)
	}
	return err
}

// MarkCompleted transitions a job to completed with the resulting post id.
func (r *ImportJobRepository) MarkCompleted(id, postID string) error {
	_, err := r.db.Exec(`UPDATE tiktok_imports SET status = ?, post_id = ?, error_message = '', updated_at = ? WHERE id = ?`,
		string(domain.ImportStatusCompleted), postID, time.Now().UTC(), id)
	return err
}

// MarkFailed transitions a job to failed with an error message.
func (r *ImportJobRepository) MarkFailed(id, message string) error {
	_, err := r.db.Exec(`UPDATE tiktok_imports SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(domain.ImportStatusFailed), message, time.Now().UTC(), id)
	return err
}

// ListRecent returns up to limit jobs, most recent first.
func (r *ImportJobRepository) ListRecent(limit int) ([]*domain.ImportJob, error) {
	rows, err := r.db.Query(`SELECT id, creator_account_id, external_video_id, source_url, status,
		error_message, post_id, created_at, updated_at
		FROM tiktok_imports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanImportJob(scanner interface {
	Scan(dest ...any) error
}) (*domain.ImportJob, error) {
	var job domain.ImportJob
	var (
		sourceURL sql.NullString
		errorMsg  sql.NullString
		postID    sql.NullString
	)

	if err := scanner.Scan(
		&job.ID,
		&job.CreatorAccountID,
		&job.ExternalVideoID,
		&sourceURL,
		&job.Status,
		&errorMsg,
		&postID,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	job.SourceURL = sourceURL.String
	job.ErrorMessage = errorMsg.String
	job.PostID = postID.String

	return &job, nil
}
