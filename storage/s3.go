package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/paritytech/subport/interfaces"
)

// S3Source reads an object from Amazon S3 or a compatible service.
// Without credentials, requests are anonymous and only public objects are readable.
type S3Source struct {
	client      *s3.S3
	bucket      string
	key         string
	log         *slog.Logger
	locationURI string
}

// S3Options configure the S3 client.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Source creates a source for bucket/key.
func NewS3Source(bucket, key string, opts S3Options, log *slog.Logger) (*S3Source, error) {
	if bucket == "" || strings.Trim(key, "/") == "" {
		return nil, fmt.Errorf("%w: s3 reference needs a bucket and a key", interfaces.ErrInvalidLocationURI)
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	cfg := aws.Config{Region: aws.String(opts.Region)}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	} else {
		cfg.Credentials = credentials.AnonymousCredentials
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	key = strings.TrimPrefix(key, "/")
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucket, key, opts.Region)
	if opts.Endpoint != "" {
		uri += "&endpoint=" + opts.Endpoint
	}

	return &S3Source{
		client:      s3.New(sess),
		bucket:      bucket,
		key:         key,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch downloads the object.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, fmt.Errorf("%w: s3://%s/%s", interfaces.ErrContentNotFound, s.bucket, s.key)
		}
		s.log.Error("Failed to fetch object from S3",
			slog.String("bucket", s.bucket),
			slog.String("key", s.key),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("object s3://%s/%s exceeds %d bytes", s.bucket, s.key, maxPayloadSize)
	}

	s.log.Debug("Fetched content from S3",
		slog.String("bucket", s.bucket),
		slog.String("key", s.key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Available checks that the object exists.
func (s *S3Source) Available(ctx context.Context) bool {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		s.log.Debug("S3 source unavailable", slog.String("bucket", s.bucket), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this source.
func (s *S3Source) Name() string {
	return "s3-" + s.bucket
}

// LocationURI returns the URI that identifies this source.
func (s *S3Source) LocationURI() string {
	return s.locationURI
}
