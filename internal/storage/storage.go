// Package storage keeps assignment files submitted for upload questions.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Provider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// Open streams a stored object back to an authorized caller.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	GetURL(key string) string
	// Locate returns a reference the code server can read the object from.
	Locate(ctx context.Context, key string) (string, error)
}

// New picks the provider named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Driver {
	case "minio":
		p, err := NewMinioProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Using MinIO storage", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
		return p, nil
	case "", "local":
		logger.Info("Using local storage", "path", cfg.LocalPath)
		return NewLocalProvider(cfg.LocalPath, cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type LocalProvider struct {
	root      string
	publicURL string
}

func NewLocalProvider(root, publicURL string) *LocalProvider {
	return &LocalProvider{root: root, publicURL: strings.TrimRight(publicURL, "/")}
}

func (p *LocalProvider) path(key string) (string, error) {
	dst := filepath.Join(p.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(p.root, dst)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return dst, nil
}

func (p *LocalProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	dst, err := p.path(key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

func (p *LocalProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	dst, err := p.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(dst)
}

func (p *LocalProvider) GetURL(key string) string {
	return p.publicURL + "/" + key
}

func (p *LocalProvider) Locate(ctx context.Context, key string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dst)
}

const presignExpiry = time.Hour

type MinioProvider struct {
	client *minio.Client
	bucket string
}

func NewMinioProvider(ctx context.Context, cfg config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioProvider{client: client, bucket: cfg.MinioBucket}, nil
}

func (p *MinioProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *MinioProvider) Delete(ctx context.Context, key string) error {
	return p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
}

func (p *MinioProvider) GetURL(key string) string {
	return "/" + p.bucket + "/" + key
}

func (p *MinioProvider) Locate(ctx context.Context, key string) (string, error) {
	u, err := p.client.PresignedGetObject(ctx, p.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
