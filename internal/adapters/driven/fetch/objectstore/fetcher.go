// Package objectstore provides the S3 fetcher for s3://bucket/key sources.
package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// DefaultTimeout bounds a single object download.
const DefaultTimeout = 2 * time.Minute

// API is the subset of the S3 client the fetcher uses.
type API interface {
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds the S3 connection settings. Empty credentials fall back to
// the default AWS credential chain.
type Config struct {
	Region    string `yaml:"region" toml:"region"`
	AccessKey string `yaml:"access_key" toml:"access_key"`
	SecretKey string `yaml:"secret_key" toml:"secret_key"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
}

// Fetcher downloads S3 objects.
type Fetcher struct {
	api        API
	downloader *manager.Downloader
	timeout    time.Duration
}

// New creates a fetcher from connection settings.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("%w: s3 access key and secret key must be set together", domain.ErrConfiguration)
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", domain.ErrConfiguration, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(client), nil
}

// NewWithAPI creates a fetcher over an existing client.
func NewWithAPI(api API) *Fetcher {
	return &Fetcher{
		api:        api,
		downloader: manager.NewDownloader(api),
		timeout:    DefaultTimeout,
	}
}

// Name returns the fetcher name.
func (f *Fetcher) Name() string {
	return "s3"
}

// Accepts reports whether the source is an S3 object.
func (f *Fetcher) Accepts(src domain.Source) bool {
	return src.Kind == domain.SourceKindS3
}

// Fetch downloads the object into memory.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*domain.RawDocument, error) {
	bucket, key, ok := domain.SplitS3URI(src.Ref)
	if !ok {
		return nil, fmt.Errorf("%w: invalid s3 uri %q", domain.ErrSourceUnreadable, src.Ref)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	head, err := f.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: head %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}

	buf := manager.NewWriteAtBuffer(nil)
	n, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", domain.ErrSourceUnreadable, src.Ref, err)
	}

	meta := map[string]any{"bucket": bucket, "key": key}
	if etag := aws.ToString(head.ETag); etag != "" {
		meta["id"] = etag
	}
	if head.LastModified != nil {
		meta["modified"] = head.LastModified.UTC().Format(time.RFC3339)
	}

	contentType := aws.ToString(head.ContentType)
	if contentType == "" || contentType == domain.MIMETypeOctet {
		if byExt := domain.MIMETypeForExtension(src.Extension()); byExt != "" {
			contentType = byExt
		}
	}

	return &domain.RawDocument{
		Source:   src,
		URI:      src.Ref,
		MIMEType: contentType,
		Content:  buf.Bytes()[:n],
		Metadata: meta,
	}, nil
}

