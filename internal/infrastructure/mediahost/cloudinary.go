package mediahost

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/logger"
)

// CloudinaryUploader republishes media bytes to Cloudinary and returns a
// stable public URL.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader initializes the Cloudinary client from config.
func NewCloudinaryUploader(cfg *config.Config) (*CloudinaryUploader, error) {
	if cfg.CloudinaryCloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name is not configured")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	logger.Info().Println("Connected to Cloudinary")
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload stores content under folder/publicID and returns the secure URL.
// Re-uploading under the same public id overwrites the previous asset.
func (u *CloudinaryUploader) Upload(ctx context.Context, content io.Reader, folder, publicID, mediaType string) (string, error) {
	result, err := u.cld.Upload.Upload(ctx, content, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: mediaType,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return result.SecureURL, nil
}
