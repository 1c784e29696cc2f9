package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint      string
	Region        string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// Publisher writes JSON documents to an S3-compatible bucket that is publicly
// readable, so the static backend can fetch them by URL.
type Publisher struct {
	bucket        string
	publicBaseURL string
	client        *minio.Client
	logger        *slog.Logger

	bucketMu    sync.Mutex
	bucketReady bool
}

func NewPublisher(opts Options, logger *slog.Logger) (*Publisher, error) {
	cleanEndpoint := strings.TrimSpace(opts.Endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
		Region: strings.TrimSpace(opts.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(opts.PublicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}
	return &Publisher{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Publish overwrites the object at key and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, key string, body []byte) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  "application/json",
		CacheControl: "no-cache",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	publicURL := objectURL(p.publicBaseURL, p.bucket, key)
	if p.logger != nil {
		p.logger.Info("s3 publish completed", "bucket", p.bucket, "key", key, "url", publicURL)
	}
	return publicURL, nil
}

// Ping checks the bucket is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	_, err := p.client.BucketExists(ctx, p.bucket)
	return err
}

// ensureBucket remembers only success; a failed check is retried on the
// next publish.
func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.bucketMu.Lock()
	defer p.bucketMu.Unlock()
	if p.bucketReady {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("s3: check bucket: %w", err)
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("s3: create bucket: %w", err)
		}
		if err := p.allowPublicRead(ctx); err != nil {
			return err
		}
	}
	p.bucketReady = true
	return nil
}

func (p *Publisher) allowPublicRead(ctx context.Context) error {
	if err := p.client.SetBucketPolicy(ctx, p.bucket, publicReadPolicy(p.bucket)); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func objectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
