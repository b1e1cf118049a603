// Package upload validates declaration files and hands them to a storage backend.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"property-backend/config"
)

var (
	ErrInvalidType = errors.New("Invalid file type. Only PDF and DOC files are allowed.")
	ErrTooLarge    = errors.New("File too large")
)

// Object is a validated file ready to be written to a Storage.
type Object struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Storage persists uploaded objects under a generated name.
type Storage interface {
	Save(ctx context.Context, obj Object) error
	Remove(ctx context.Context, name string) error
}

// Policy decides which files are accepted.
type Policy struct {
	MaxSize int64
	Allowed []string
}

// Check validates a multipart file and returns its content type. A missing or
// generic declared type is replaced by the one sniffed from the content.
// Parameters of the declared type are ignored.
func (p Policy) Check(fh *multipart.FileHeader) (string, error) {
	if p.MaxSize > 0 && fh.Size > p.MaxSize {
		return "", fmt.Errorf("%w. Maximum size is %dMB", ErrTooLarge, p.MaxSize/(1024*1024))
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", ErrInvalidType
		}
		contentType = mediaType
	}
	if contentType == "" || contentType == "application/octet-stream" {
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		detected, err := mimetype.DetectReader(f)
		if err != nil {
			return "", fmt.Errorf("failed to detect content type: %w", err)
		}
		for _, allowed := range p.Allowed {
			if detected.Is(allowed) {
				return allowed, nil
			}
		}
		return "", ErrInvalidType
	}

	for _, allowed := range p.Allowed {
		if strings.EqualFold(contentType, allowed) {
			return allowed, nil
		}
	}
	return "", ErrInvalidType
}

// NewFilename returns <unix millis>-<random><extension of contentType>. The
// client's file name plays no part, so a stored file is always served as the
// type it was accepted as.
func NewFilename(contentType string, now time.Time) string {
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), rand.IntN(1_000_000_000), Extension(contentType))
}

// Extension returns the file extension registered for contentType, or "" when
// the type is unknown.
func Extension(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}

// Uploader validates files against a Policy and stores them.
type Uploader struct {
	storage Storage
	policy  Policy
	log     *zap.Logger
}

// NewUploader creates an Uploader.
func NewUploader(storage Storage, policy Policy, log *zap.Logger) *Uploader {
	return &Uploader{storage: storage, policy: policy, log: log}
}

// Save validates and stores fh, returning the generated file name.
func (u *Uploader) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	contentType, err := u.policy.Check(fh)
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	name := NewFilename(contentType, time.Now())
	if err := u.storage.Save(ctx, Object{Name: name, ContentType: contentType, Size: fh.Size, Body: f}); err != nil {
		return "", err
	}
	u.log.Info("declaration file stored", zap.String("name", name), zap.Int64("size", fh.Size))
	return name, nil
}

// Discard removes a stored file whose database row was never written. Failures
// are logged, not returned.
func (u *Uploader) Discard(ctx context.Context, name string) {
	if err := u.storage.Remove(ctx, name); err != nil {
		u.log.Warn("failed to remove orphaned upload", zap.String("name", name), zap.Error(err))
	}
}

// IsRejected reports whether err means the client sent an unacceptable file.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidType) || errors.Is(err, ErrTooLarge)
}

// New builds the Uploader configured by cfg.
func New(ctx context.Context, cfg config.UploadConfig, log *zap.Logger) (*Uploader, error) {
	var storage Storage
	switch cfg.Storage {
	case "", "local":
		local, err := NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		storage = local
	case "s3":
		s3Store, err := NewS3Store(ctx, cfg.S3, WithLogger(log))
		if err != nil {
			return nil, err
		}
		storage = s3Store
	default:
		return nil, fmt.Errorf("unsupported upload storage: %s", cfg.Storage)
	}
	return NewUploader(storage, Policy{MaxSize: cfg.MaxFileSizeBytes, Allowed: cfg.AllowedMimeTypes}, log), nil
}

// Local reports the directory served statically when files are kept on disk.
func (u *Uploader) Local() (string, bool) {
	if l, ok := u.storage.(*LocalStore); ok {
		return l.Dir(), true
	}
	return "", false
}
