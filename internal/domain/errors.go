package domain

import "errors"

// Error taxonomy for the ingestion pipeline. Errors are wrapped with
// context at the failure site and classified with errors.Is at the
// boundary. Extraction failures are always reported as errors; the engine
// never substitutes synthesized data for a failed scrape.
var (
	// ErrInvalidURL means the supplied URL matched no known video link shape
	ErrInvalidURL = errors.New("invalid video url")

	// ErrExtraction means no usable results could be scraped from the page
	ErrExtraction = errors.New("extraction failed")

	// ErrPageData means the expected embedded state JSON was missing or malformed
	ErrPageData = errors.New("page data unavailable")

	// ErrBrowserLaunch means the headless browser process could not start
	ErrBrowserLaunch = errors.New("browser launch failed")

	// ErrNoSourceMedia means the record carries no usable media locator
	ErrNoSourceMedia = errors.New("no source media url")

	// ErrDownload means fetching the source media bytes failed
	ErrDownload = errors.New("media download failed")

	// ErrUpload means republishing the media to durable storage failed
	ErrUpload = errors.New("media upload failed")

	// ErrDuplicateImport means a job for the same external video id already
	// exists. This is a recognized no-op outcome, not a pipeline failure.
	ErrDuplicateImport = errors.New("video already imported")

	// ErrAccountCreation means the creator account could not be created
	ErrAccountCreation = errors.New("account creation failed")

	// ErrUserCreation means the app user could not be created
	ErrUserCreation = errors.New("user creation failed")

	// ErrPostCreation means the post could not be created
	ErrPostCreation = errors.New("post creation failed")
)
