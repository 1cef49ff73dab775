package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/config"
)

var (
	// ErrUnsupportedType is returned for anything other than JPEG or PNG.
	ErrUnsupportedType = errors.New("only JPG/PNG allowed")
	// ErrTooLarge is returned when a photo exceeds the configured cap.
	ErrTooLarge = errors.New("photo exceeds size limit")
)

var allowedPhotoTypes = map[string][]string{
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
}

// Photo is an uploaded image attachment.
type Photo struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// PhotoStore persists an image and returns its durable public URL.
type PhotoStore interface {
	Save(ctx context.Context, photo Photo) (string, error)
}

// ValidatePhoto checks extension, declared content type and size.
func ValidatePhoto(photo Photo, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(photo.FileName))
	types, ok := allowedPhotoTypes[ext]
	if !ok {
		return ErrUnsupportedType
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(photo.ContentType, ";")[0]))
	matched := false
	for _, t := range types {
		if t == contentType {
			matched = true
			break
		}
	}
	if !matched {
		return ErrUnsupportedType
	}
	if maxBytes > 0 && photo.Size > maxBytes {
		return ErrTooLarge
	}
	return nil
}

// LocalPhotoStore writes photos to a directory that the HTTP server exposes as
// static files.
type LocalPhotoStore struct {
	dir       string
	publicURL string
	urlPrefix string
	maxBytes  int64
	logger    *zap.Logger
}

// NewLocalPhotoStore creates the upload directory if needed.
func NewLocalPhotoStore(cfg config.StorageConfig, publicURL string, logger *zap.Logger) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalPhotoStore{
		dir:       cfg.UploadDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		urlPrefix: "/" + strings.Trim(cfg.URLPrefix, "/"),
		maxBytes:  cfg.MaxBytes,
		logger:    logger,
	}, nil
}

// Dir returns the directory photos are written to.
func (s *LocalPhotoStore) Dir() string {
	return s.dir
}

// Save writes the photo under a random name. A partial file is removed on failure.
func (s *LocalPhotoStore) Save(ctx context.Context, photo Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(photo.FileName))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	reader := photo.Content
	if s.maxBytes > 0 {
		reader = io.LimitReader(photo.Content, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write photo: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close photo: %w", closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	s.logger.Debug("photo stored", zap.String("file", name), zap.Int64("bytes", written))
	return s.publicURL + s.urlPrefix + "/" + name, nil
}
