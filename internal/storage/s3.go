package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const pdfContentType = "application/pdf"

// ErrObjectNotFound is returned by Get when no archived copy exists.
var ErrObjectNotFound = errors.New("object not found")

// S3ClientConfig holds configuration for S3Archive
type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// S3Archive keeps the original bytes of uploaded documents in an
// S3-compatible bucket (AWS S3, RustFS, MinIO).
type S3Archive struct {
	client         *s3.Client
	presignClient  *s3.PresignClient
	bucket         string
	downloadExpiry time.Duration
}

// NewS3Archive creates an archive for the configured bucket.
func NewS3Archive(ctx context.Context, cfg S3ClientConfig) (*S3Archive, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Archive{
		client:         client,
		presignClient:  s3.NewPresignClient(client),
		bucket:         cfg.Bucket,
		downloadExpiry: time.Hour,
	}, nil
}

// DocumentKey is the object key for a document's original PDF.
func DocumentKey(documentID string) string {
	return "documents/" + documentID + ".pdf"
}

// Put stores the PDF bytes for documentID, replacing any earlier copy.
func (a *S3Archive) Put(ctx context.Context, documentID string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(DocumentKey(documentID)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(pdfContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Get reads back the archived PDF.
func (a *S3Archive) Get(ctx context.Context, documentID string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(DocumentKey(documentID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Delete removes the archived PDF. Deleting a missing key is not an error.
func (a *S3Archive) Delete(ctx context.Context, documentID string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(DocumentKey(documentID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// DownloadURL returns a presigned GET URL for the archived PDF.
func (a *S3Archive) DownloadURL(ctx context.Context, documentID string) (string, error) {
	req, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(DocumentKey(documentID)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = a.downloadExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *S3Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}
