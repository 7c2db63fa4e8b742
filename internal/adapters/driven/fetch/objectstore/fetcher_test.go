package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// fakeS3 serves a single object from memory.
type fakeS3 struct {
	bucket, key string
	body        []byte
	contentType string
	err         error
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if aws.ToString(in.Bucket) != f.bucket || aws.ToString(in.Key) != f.key {
		return nil, errors.New("NotFound")
	}
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &s3.HeadObjectOutput{
		ContentType:   aws.String(f.contentType),
		ETag:          aws.String(`"abc123"`),
		LastModified:  &modified,
		ContentLength: aws.Int64(int64(len(f.body))),
	}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket || aws.ToString(in.Key) != f.key {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
	}, nil
}

func TestFetcher_Basics(t *testing.T) {
	f := NewWithAPI(&fakeS3{})
	assert.Equal(t, "s3", f.Name())
	assert.True(t, f.Accepts(domain.Source{Ref: "s3://b/k", Kind: domain.SourceKindS3}))
	assert.False(t, f.Accepts(domain.Source{Ref: "b/k", Kind: domain.SourceKindFile}))
}

func TestFetcher_Fetch(t *testing.T) {
	api := &fakeS3{bucket: "docs", key: "reports/q1.pdf", body: []byte("%PDF-1.4 body"), contentType: "application/pdf"}
	src := domain.Source{Ref: "s3://docs/reports/q1.pdf", Kind: domain.SourceKindS3}

	raw, err := NewWithAPI(api).Fetch(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, src, raw.Source)
	assert.Equal(t, "s3://docs/reports/q1.pdf", raw.URI)
	assert.Equal(t, "application/pdf", raw.MIMEType)
	assert.Equal(t, "%PDF-1.4 body", string(raw.Content))
	assert.Equal(t, `"abc123"`, raw.Metadata["id"])
	assert.Equal(t, "docs", raw.Metadata["bucket"])
	assert.Equal(t, "2024-03-01T12:00:00Z", raw.Metadata["modified"])
}

func TestFetcher_FetchContentTypeFromExtension(t *testing.T) {
	api := &fakeS3{bucket: "b", key: "page.html", body: []byte("<p>x</p>"), contentType: "application/octet-stream"}

	raw, err := NewWithAPI(api).Fetch(context.Background(), domain.Source{Ref: "s3://b/page.html", Kind: domain.SourceKindS3})
	require.NoError(t, err)
	assert.Equal(t, domain.MIMETypeHTML, raw.MIMEType)
}

func TestFetcher_FetchErrors(t *testing.T) {
	api := &fakeS3{bucket: "b", key: "k"}

	_, err := NewWithAPI(api).Fetch(context.Background(), domain.Source{Ref: "s3://b", Kind: domain.SourceKindS3})
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)

	_, err = NewWithAPI(api).Fetch(context.Background(), domain.Source{Ref: "s3://b/other", Kind: domain.SourceKindS3})
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)

	api.err = errors.New("access denied")
	_, err = NewWithAPI(api).Fetch(context.Background(), domain.Source{Ref: "s3://b/k", Kind: domain.SourceKindS3})
	assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNew_PartialCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "us-east-1", AccessKey: "only-key"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_StaticCredentials(t *testing.T) {
	f, err := New(context.Background(), Config{
		Region:    "us-east-1",
		AccessKey: "AKID",
		SecretKey: "SECRET",
		Endpoint:  "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.NotNil(t, f.api)
}
