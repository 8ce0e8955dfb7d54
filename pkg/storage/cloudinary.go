package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// UploadResult describes a stored media file.
type UploadResult struct {
	URL       string
	PublicID  string
	MediaType string // "image" or "video"
}

// MediaStorage defines the contract for the media provider (Cloudinary
// implementation). Destroy is best-effort: callers on cleanup paths are
// expected to log and ignore its error.
type MediaStorage interface {
	// Upload stores a file from reader and returns its secure URL, public ID
	// and detected media type. folder is a logical folder (e.g. "posts").
	Upload(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error)
	// Destroy removes a file by its public ID.
	Destroy(ctx context.Context, publicID string) error
}

type cloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates the Cloudinary-backed MediaStorage. It expects
// CLOUDINARY_URL or the individual CLOUDINARY_* variables in the environment.
func NewCloudinaryStorage() (MediaStorage, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	cld.Config.URL.Secure = true

	if cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloudName != "" {
		cld.Config.Cloud.CloudName = cloudName
	}

	return &cloudinaryStorage{cld: cld}, nil
}

func (s *cloudinaryStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (*UploadResult, error) {
	if s == nil || s.cld == nil {
		return nil, fmt.Errorf("cloudinary storage is not initialized")
	}

	publicID := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileName)

	params := uploader.UploadParams{
		Folder:         folder,
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
		PublicID:       publicID,
		Overwrite:      api.Bool(false),
		ResourceType:   "auto",
	}

	mediaType := "image"
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		// Convert images to webp and let cloudinary pick the quality.
		params.Format = "webp"
		params.Transformation = "q_auto"
	case ".mp4", ".mov", ".webm", ".avi", ".mkv":
		mediaType = "video"
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media to cloudinary: %w", err)
	}

	if resp.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	if resp.ResourceType == "video" {
		mediaType = "video"
	}

	return &UploadResult{
		URL:       resp.SecureURL,
		PublicID:  resp.PublicID,
		MediaType: mediaType,
	}, nil
}

func (s *cloudinaryStorage) Destroy(ctx context.Context, publicID string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary storage is not initialized")
	}
	if publicID == "" {
		return fmt.Errorf("empty public ID")
	}

	// Invalidate clears the CDN cache as well.
	params := uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	}

	resp, err := s.cld.Upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to delete media from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}
