package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/haasonsaas/syndicate/internal/retry"
)

// SourceFetcher retrieves source media bytes for an upload. Length is -1 when
// the source does not report a size.
type SourceFetcher interface {
	Fetch(ctx context.Context, sourceURL string) (body io.ReadCloser, contentType string, length int64, err error)
}

// HTTPFetcher fetches media from plain http(s) URLs.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP source fetcher.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements SourceFetcher. The GET is idempotent, so transient
// failures are retried with backoff; 4xx statuses are permanent.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, string, int64, error) {
	resp, err := retry.DoWithValue(ctx, retry.Exponential(3, 200*time.Millisecond, 2*time.Second), func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("build source request: %w", err))
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch source: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err := fmt.Errorf("fetch source: unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, "", -1, err
	}
	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

// S3API is the subset of the S3 client the fetcher needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher fetches media from s3://bucket/key URLs.
type S3Fetcher struct {
	client S3API
}

// NewS3Fetcher creates an S3 source fetcher from ambient AWS configuration.
func NewS3Fetcher(ctx context.Context) (*S3Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Fetcher{client: s3.NewFromConfig(cfg)}, nil
}

// NewS3FetcherWithClient creates an S3 source fetcher over an existing client.
func NewS3FetcherWithClient(client S3API) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// Fetch implements SourceFetcher.
func (f *S3Fetcher) Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, string, int64, error) {
	bucket, key, err := splitS3URL(sourceURL)
	if err != nil {
		return nil, "", -1, err
	}
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", -1, fmt.Errorf("fetch s3 object: %w", err)
	}
	contentType := aws.ToString(out.ContentType)
	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}
	return out.Body, contentType, length, nil
}

// RoutingFetcher picks the fetcher by URL scheme: s3:// URLs go to the S3
// fetcher, everything else to HTTP.
type RoutingFetcher struct {
	HTTP SourceFetcher
	S3   SourceFetcher
}

// Fetch implements SourceFetcher.
func (f *RoutingFetcher) Fetch(ctx context.Context, sourceURL string) (io.ReadCloser, string, int64, error) {
	if strings.HasPrefix(sourceURL, "s3://") {
		if f.S3 == nil {
			return nil, "", -1, fmt.Errorf("s3 source %q but no s3 fetcher configured", sourceURL)
		}
		return f.S3.Fetch(ctx, sourceURL)
	}
	return f.HTTP.Fetch(ctx, sourceURL)
}

func splitS3URL(sourceURL string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(sourceURL, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", sourceURL)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 url: %q", sourceURL)
	}
	return bucket, key, nil
}
