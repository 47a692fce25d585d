package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/infrastructure/httpclient"
	"tiktok_ingest/internal/logger"
)

// Uploader republishes media bytes to durable storage and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, content io.Reader, folder, publicID, mediaType string) (string, error)
}

// MediaTransfer moves a video's bytes from the source CDN to the media host.
// Source CDN URLs are short-lived and signed, so the transfer must happen
// inside the same import attempt that extracted them.
type MediaTransfer struct {
	client    *httpclient.Client
	uploader  Uploader
	folder    string
	userAgent string
}

// NewMediaTransfer creates a MediaTransfer backed by the shared HTTP client.
func NewMediaTransfer(cfg *config.Config, client *httpclient.Client, uploader Uploader) *MediaTransfer {
	return &MediaTransfer{
		client:    client,
		uploader:  uploader,
		folder:    cfg.CloudinaryFolder,
		userAgent: cfg.ScraperUserAgent,
	}
}

// Transfer downloads the record's media and re-uploads it under a public id
// derived from the external video id, returning the hosted URL.
func (t *MediaTransfer) Transfer(ctx context.Context, record *domain.VideoRecord) (string, error) {
	if record.MediaURL == "" {
		return "", fmt.Errorf("%w for video %s", domain.ErrNoSourceMedia, record.ExternalID)
	}

	content, err := t.download(ctx, record.MediaURL)
	if err != nil {
		return "", err
	}

	publicID := "tiktok_" + record.ExternalID
	hostedURL, err := t.uploader.Upload(ctx, bytes.NewReader(content), t.folder, publicID, "video")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	if hostedURL == "" {
		return "", fmt.Errorf("%w: host returned no url", domain.ErrUpload)
	}

	logger.Info().Printf("Transferred media for video %s (%d bytes)", record.ExternalID, len(content))
	return hostedURL, nil
}

// download fetches the source media. The CDN rejects requests without a
// plausible Referer, so the headers mirror a browser playback request.
func (t *MediaTransfer) download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Referer", "https://www.tiktok.com/")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrDownload, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty response body", domain.ErrDownload)
	}

	return content, nil
}
