package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/logger"
)

// Extractor resolves a video URL into a full VideoRecord.
type Extractor interface {
	ExtractByURL(ctx context.Context, videoURL string) (*domain.VideoRecord, error)
}

// Transferrer moves a record's media to durable storage.
type Transferrer interface {
	Transfer(ctx context.Context, record *domain.VideoRecord) (string, error)
}

const maxUsernameAttempts = 1000

var hashtagPattern = regexp.MustCompile(`#[a-zA-Z0-9_]+`)

// Importer runs the import pipeline: extract a video, mirror its creator,
// transfer the media, and publish a post, with every attempt recorded in
// the import ledger. Each step either succeeds with real data or aborts;
// nothing is ever backfilled with invented values.
type Importer struct {
	extractor   Extractor
	transferrer Transferrer
	accounts    domain.CreatorAccountRepository
	imports     domain.ImportJobRepository
	users       domain.AppUserRepository
	posts       domain.PostRepository
}

// NewImporter wires the import pipeline.
func NewImporter(
	extractor Extractor,
	transferrer Transferrer,
	accounts domain.CreatorAccountRepository,
	imports domain.ImportJobRepository,
	users domain.AppUserRepository,
	posts domain.PostRepository,
) *Importer {
	return &Importer{
		extractor:   extractor,
		transferrer: transferrer,
		accounts:    accounts,
		imports:     imports,
		users:       users,
		posts:       posts,
	}
}

// ImportFromURL runs the full pipeline for one video URL. A duplicate
// import returns an outcome with Duplicate=true and a nil error; pipeline
// failures return the outcome alongside the classified error.
func (i *Importer) ImportFromURL(ctx context.Context, videoURL string) (*domain.ImportOutcome, error) {
	record, err := i.extractor.ExtractByURL(ctx, videoURL)
	if err != nil {
		return failedOutcome("could not extract video data", err), err
	}

	if record.ExternalID == "" || record.Creator.Handle == "" {
		err := fmt.Errorf("%w: record is missing video id or creator handle", domain.ErrExtraction)
		return failedOutcome("extracted data is incomplete", err), err
	}

	// Dedup check before any writes
	existing, err := i.imports.GetByExternalVideoID(record.ExternalID)
	if err != nil {
		return failedOutcome("import lookup failed", err), err
	}
	if existing != nil {
		logger.Info().Printf("Video %s already imported (job %s), skipping", record.ExternalID, existing.ID)
		return duplicateOutcome(record.ExternalID), nil
	}

	account, created, err := i.ensureAccount(record)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", domain.ErrAccountCreation, err)
		return failedOutcome("creator account could not be prepared", wrapped), wrapped
	}

	job := &domain.ImportJob{
		CreatorAccountID: account.ID,
		ExternalVideoID:  record.ExternalID,
		SourceURL:        record.SourceURL,
		Status:           domain.ImportStatusProcessing,
	}
	if err := i.imports.Create(job); err != nil {
		if errors.Is(err, domain.ErrDuplicateImport) {
			// Lost a race with a concurrent import of the same video
			logger.Info().Printf("Video %s imported concurrently, skipping", record.ExternalID)
			return duplicateOutcome(record.ExternalID), nil
		}
		return failedOutcome("import job could not be recorded", err), err
	}

	hostedURL, err := i.transferrer.Transfer(ctx, record)
	if err != nil {
		i.failJob(job.ID, err)
		return failedOutcome("media transfer failed", err), err
	}

	user, err := i.ensureUser(account, record)
	if err != nil {
		i.failJob(job.ID, err)
		return failedOutcome("app user could not be prepared", err), err
	}

	post, err := i.createPost(user, record, hostedURL)
	if err != nil {
		i.failJob(job.ID, err)
		return failedOutcome("post could not be created", err), err
	}

	message := "video imported"
	if err := i.imports.MarkCompleted(job.ID, post.ID); err != nil {
		// The post exists, so the import did succeed; the ledger row is
		// left in processing and the discrepancy is reported to the caller
		logger.Error().Printf("Failed to mark import %s completed: %v", job.ID, err)
		message = "video imported, but the import record could not be marked completed"
	}

	logger.Info().Printf("Imported video %s as post %s (account created: %v)", record.ExternalID, post.ID, created)

	return &domain.ImportOutcome{
		Success:        true,
		Message:        message,
		AccountCreated: created,
		PostCreated:    true,
		User: &domain.ImportedUser{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
		},
		Post: &domain.ImportedPost{
			ID:       post.ID,
			Title:    post.Title,
			MediaURL: post.MediaURL,
		},
	}, nil
}

// ListRecentImports returns the most recent import jobs.
func (i *Importer) ListRecentImports(limit int) ([]*domain.ImportJob, error) {
	return i.imports.ListRecent(limit)
}

// ensureAccount finds or creates the mirrored creator account and
// opportunistically refreshes profile fields from the fresh extraction.
// Returns the account and whether it was newly created.
func (i *Importer) ensureAccount(record *domain.VideoRecord) (*domain.CreatorAccount, bool, error) {
	account, err := i.accounts.GetByHandle(record.Creator.Handle)
	if err != nil {
		return nil, false, err
	}

	if account == nil {
		account = &domain.CreatorAccount{
			Handle:         record.Creator.Handle,
			ExternalUserID: record.Creator.ExternalUserID,
			DisplayName:    record.Creator.DisplayName,
			AvatarURL:      record.Creator.AvatarURL,
			Verified:       record.Creator.Verified,
			FollowerCount:  record.CreatorStats.Followers,
			FollowingCount: record.CreatorStats.Following,
			LikesCount:     record.CreatorStats.Likes,
			VideoCount:     record.CreatorStats.Videos,
		}
		if err := i.accounts.Create(account); err != nil {
			return nil, false, err
		}
		return account, true, nil
	}

	// Refresh mutable profile fields; counters only when the extraction
	// actually carried them, so a sparse scrape never zeroes a good value
	changed := false
	if record.Creator.DisplayName != "" && record.Creator.DisplayName != account.DisplayName {
		account.DisplayName = record.Creator.DisplayName
		changed = true
	}
	if record.Creator.AvatarURL != "" && record.Creator.AvatarURL != account.AvatarURL {
		account.AvatarURL = record.Creator.AvatarURL
		changed = true
	}
	if record.Creator.ExternalUserID != "" && record.Creator.ExternalUserID != account.ExternalUserID {
		account.ExternalUserID = record.Creator.ExternalUserID
		changed = true
	}
	if record.Creator.Verified != account.Verified {
		account.Verified = record.Creator.Verified
		changed = true
	}
	if record.CreatorStats.Followers > 0 && record.CreatorStats.Followers != account.FollowerCount {
		account.FollowerCount = record.CreatorStats.Followers
		changed = true
	}
	if record.CreatorStats.Following > 0 && record.CreatorStats.Following != account.FollowingCount {
		account.FollowingCount = record.CreatorStats.Following
		changed = true
	}
	if record.CreatorStats.Likes > 0 && record.CreatorStats.Likes != account.LikesCount {
		account.LikesCount = record.CreatorStats.Likes
		changed = true
	}
	if record.CreatorStats.Videos > 0 && record.CreatorStats.Videos != account.VideoCount {
		account.VideoCount = record.CreatorStats.Videos
		changed = true
	}
	if changed {
		if err := i.accounts.Update(account); err != nil {
			return nil, false, err
		}
	}

	return account, false, nil
}

// ensureUser reuses the account's linked app user, or creates one on the
// first import for this creator.
func (i *Importer) ensureUser(account *domain.CreatorAccount, record *domain.VideoRecord) (*domain.AppUser, error) {
	if account.AppUserID != "" {
		user, err := i.users.GetByID(account.AppUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUserCreation, err)
		}
		if user != nil {
			return user, nil
		}
		// Link points at a user that no longer exists; fall through and
		// create a fresh one
		logger.Warn().Printf("Account %s links to missing user %s, recreating", account.ID, account.AppUserID)
	}

	username, err := i.availableUsername(record.Creator.Handle)
	if err != nil {
		return nil, err
	}

	password, err := randomPasswordHash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUserCreation, err)
	}

	displayName := record.Creator.DisplayName
	if displayName == "" {
		displayName = record.Creator.Handle
	}

	user := &domain.AppUser{
		Username:     username,
		Email:        username + "@tiktok-import.local",
		PasswordHash: password,
		DisplayName:  displayName,
		AvatarURL:    record.Creator.AvatarURL,
		Bio:          "TikTok creator @" + record.Creator.Handle,
	}
	if err := i.users.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUserCreation, err)
	}

	if err := i.accounts.LinkToUser(account.ID, user.ID); err != nil {
		return nil, fmt.Errorf("%w: link account: %v", domain.ErrUserCreation, err)
	}
	account.AppUserID = user.ID

	return user, nil
}

// availableUsername derives a free username from the creator handle,
// appending _1, _2, ... on collision.
func (i *Importer) availableUsername(handle string) (string, error) {
	base := sanitizeUsername(handle)
	if base == "" {
		suffix := make([]byte, 4)
		if _, err := rand.Read(suffix); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUserCreation, err)
		}
		base = "tiktok_" + hex.EncodeToString(suffix)
	}

	candidate := base
	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		existing, err := i.users.GetByUsername(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUserCreation, err)
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, attempt)
	}

	return "", fmt.Errorf("%w: no free username after %d attempts for %q", domain.ErrUserCreation, maxUsernameAttempts, base)
}

func (i *Importer) createPost(user *domain.AppUser, record *domain.VideoRecord, hostedURL string) (*domain.Post, error) {
	content := record.Caption
	if content == "" {
		content = "Video by @" + record.Creator.Handle
	}

	post := &domain.Post{
		UserID:     user.ID,
		Content:    content,
		Title:      videoTitle(record.Caption, record.Creator.Handle),
		MediaURL:   hostedURL,
		Hashtags:   extractHashtags(record.Caption),
		Category:   domain.CategoryImport,
		Visibility: domain.VisibilityPublic,
	}
	if err := i.posts.Create(post); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPostCreation, err)
	}
	return post, nil
}

func (i *Importer) failJob(jobID string, cause error) {
	if err := i.imports.MarkFailed(jobID, cause.Error()); err != nil {
		logger.Error().Printf("Failed to mark import %s failed: %v", jobID, err)
	}
}

// videoTitle derives a short title from the caption: the first line,
// truncated to 60 characters, with "..." whenever the result is shorter
// than the full caption. Captions of 10 characters or fewer fall back to a
// handle-based title.
func videoTitle(caption, handle string) string {
	if len(caption) > 10 {
		line := caption
		if idx := strings.IndexByte(line, '\n'); idx != -1 {
			line = line[:idx]
		}
		if len(line) > 60 {
			line = line[:60]
		}
		if len(line) < len(caption) {
			return line + "..."
		}
		return line
	}
	return "Video by @" + handle
}

// extractHashtags collects hashtag words from a caption, without the '#'.
func extractHashtags(caption string) []string {
	matches := hashtagPattern.FindAllString(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.TrimPrefix(m, "#"))
	}
	return tags
}

// sanitizeUsername lowercases a handle and keeps only the characters valid
// in a username.
func sanitizeUsername(handle string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(handle) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

func randomPasswordHash() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func failedOutcome(message string, err error) *domain.ImportOutcome {
	return &domain.ImportOutcome{
		Success: false,
		Message: message,
		Error:   err.Error(),
	}
}

func duplicateOutcome(externalID string) *domain.ImportOutcome {
	return &domain.ImportOutcome{
		Success:   false,
		Duplicate: true,
		Message:   fmt.Sprintf("video %s was already imported", externalID),
	}
}
