// Package storage uploads gallery media to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures an S3MediaStore. Endpoint is empty for AWS itself and set for
// S3-compatible services such as Supabase Storage or MinIO.
type Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// objectAPI is the part of the S3 client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3MediaStore struct {
	client        objectAPI
	bucket        string
	publicBaseURL string
	logger        zerolog.Logger
}

func NewS3MediaStore(ctx context.Context, opts Options) (*S3MediaStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := opts.PublicBaseURL
	if publicBase == "" && opts.Endpoint != "" {
		publicBase = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return newS3MediaStore(client, opts.Bucket, publicBase), nil
}

func newS3MediaStore(client objectAPI, bucket, publicBaseURL string) *S3MediaStore {
	return &S3MediaStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        log.With().Str("service", "mediaStore").Logger(),
	}
}

// ObjectKey builds the key for a new upload under the project's prefix, keeping the
// file extension.
func ObjectKey(projectID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("projects/%s/%s%s", projectID, uuid.New(), ext)
}

// Upload stores body under key and returns the public URL of the object.
func (s *S3MediaStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.logger.Info().Str("key", key).Int64("size", size).Msg("uploaded media object")
	return s.URL(key), nil
}

func (s *S3MediaStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL is the public address of key.
func (s *S3MediaStore) URL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}
