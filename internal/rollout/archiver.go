package rollout

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ArchivedSuffix is appended to a rollout file once uploaded
const ArchivedSuffix = ".archived"

// KeyPrefix is the object key prefix for uploaded rollouts
const KeyPrefix = "rollouts/"

// Uploader stores one object
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	Bucket() string
}

// S3Config holds the configuration for an S3-compatible object store
type S3Config struct {
	// Endpoint is the S3-compatible endpoint URL; empty for AWS S3
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	ForcePathStyle bool
}

// Enabled reports whether enough is configured to upload
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

// S3Uploader uploads through the multipart upload manager
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3Uploader creates an uploader for an AWS or S3-compatible bucket
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, opts...)
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

// Upload stores body under key
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader) error {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Bucket returns the destination bucket
func (u *S3Uploader) Bucket() string {
	return u.bucket
}

// normaliseEndpoint prepends a scheme when the endpoint is a bare host[:port]
func normaliseEndpoint(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint
}

// Archiver uploads completed rollout files and marks them archived
type Archiver struct {
	dir      string
	uploader Uploader
	log      zerolog.Logger
}

// NewArchiver creates an archiver for the rollout files in dir
func NewArchiver(dir string, uploader Uploader, log zerolog.Logger) *Archiver {
	return &Archiver{
		dir:      dir,
		uploader: uploader,
		log:      log.With().Str("component", "rollout_archiver").Logger(),
	}
}

// Pending lists completed rollout files not yet archived, sorted by name
func (a *Archiver) Pending() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rollout directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExtension) {
			continue
		}
		files = append(files, filepath.Join(a.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ArchivePending uploads every pending file. It stops at the first failure
// and returns the keys archived so far.
func (a *Archiver) ArchivePending(ctx context.Context) ([]string, error) {
	files, err := a.Pending()
	if err != nil {
		return nil, err
	}

	var archived []string
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		key, err := a.archive(ctx, path)
		if err != nil {
			return archived, err
		}
		archived = append(archived, key)
		a.log.Info().Str("file", filepath.Base(path)).Str("key", key).Msg("Archived rollout")
	}
	return archived, nil
}

func (a *Archiver) archive(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	key := KeyPrefix + filepath.Base(path)
	err = a.uploader.Upload(ctx, key, f)
	f.Close()
	if err != nil {
		return "", err
	}

	if err := os.Rename(path, path+ArchivedSuffix); err != nil {
		return "", fmt.Errorf("failed to mark %s archived: %w", path, err)
	}
	return key, nil
}

// Bucket returns the destination bucket name
func (a *Archiver) Bucket() string {
	return a.uploader.Bucket()
}
