// Package storage keeps uploaded media (link icons, thumbnails, profile
// images and theme backgrounds) either on local disk or in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	sc "github.com/dmitrijs2005/mymee/internal/server/config"
	"github.com/google/uuid"
)

// FileStorage stores an upload under a fresh unique name and returns the
// reference clients use to fetch it. Delete of an absent reference is not
// an error.
type FileStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// uniqueName keeps a sane extension of the original file name.
func uniqueName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// GetRandomStorageKey spreads objects by upload date.
func GetRandomStorageKey(original string, now time.Time) string {
	return fmt.Sprintf("uploads/%d/%d/%d/%s", now.Year(), now.Month(), now.Day(), uniqueName(original))
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *sc.Config) (FileStorage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir, cfg.PublicUploadPrefix)
	case "s3":
		return NewS3Storage(ctx, S3Options{
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3RootUser,
			SecretKey:     cfg.S3RootPassword,
			Bucket:        cfg.S3Bucket,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
