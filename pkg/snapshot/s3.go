package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/golang/snappy"

	"github.com/dd0wney/campusnav/pkg/campus"
)

// objectAPI is the part of the S3 client the store uses
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps a document in one object. Keys ending in ".sz" are
// snappy block-compressed like FileStore.
type S3Store struct {
	client objectAPI
	bucket string
	key    string
}

// NewS3Store creates a store using the default AWS credential chain, or the
// static keys in opts when both are set.
func NewS3Store(ctx context.Context, bucket, key string, opts S3Options) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return newS3Store(client, bucket, key), nil
}

func newS3Store(client objectAPI, bucket, key string) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key}
}

// Kind returns "s3"
func (s *S3Store) Kind() string { return "s3" }

// Close is a no-op
func (s *S3Store) Close() error { return nil }

func (s *S3Store) location() string {
	return "s3://" + s.bucket + "/" + s.key
}

func (s *S3Store) compressed() bool {
	return strings.HasSuffix(s.key, ".sz")
}

// Load downloads and decodes the object
func (s *S3Store) Load(ctx context.Context) (*campus.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", s.location(), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.location(), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.location(), err)
	}
	if s.compressed() {
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, &DecodeError{Location: s.location(), Cause: err}
		}
		data = decoded
	}
	return Decode(data)
}

// Save uploads the encoded document, replacing the object
func (s *S3Store) Save(ctx context.Context, doc *campus.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	contentType := "application/json"
	if s.compressed() {
		data = snappy.Encode(nil, data)
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", s.location(), err)
	}
	return nil
}
