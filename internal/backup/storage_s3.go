package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3StorageProvider implements StorageProvider for Amazon S3 storage
type S3StorageProvider struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3StorageProvider creates a new S3StorageProvider instance
func NewS3StorageProvider(config *S3Config) (*S3StorageProvider, error) {
	if config == nil {
		return nil, NewValidationError("S3 storage configuration is required", nil)
	}
	if config.Bucket == "" {
		return nil, NewValidationError("S3 bucket is required", nil)
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"", // token
		),
	})
	if err != nil {
		return nil, NewStorageError("failed to create AWS session", err)
	}

	provider := &S3StorageProvider{
		client: s3.New(sess),
		bucket: config.Bucket,
		prefix: "backups/",
	}

	return provider, nil
}

// Store saves a blob to S3
func (s3p *S3StorageProvider) Store(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	_, err := s3p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s3p.bucket),
		Key:         aws.String(s3p.objectKey(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to upload blob %s to S3", name), err)
	}

	return nil
}

// Retrieve loads a blob from S3
func (s3p *S3StorageProvider) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, NewValidationError("blob name cannot be empty", nil)
	}

	result, err := s3p.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3p.bucket),
		Key:    aws.String(s3p.objectKey(name)),
	})
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("failed to download blob %s from S3", name), err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, NewStorageError(fmt.Sprintf("failed to read blob %s", name), err)
	}

	return data, nil
}

// Delete removes a blob from S3
func (s3p *S3StorageProvider) Delete(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError("blob name cannot be empty", nil)
	}

	_, err := s3p.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s3p.bucket),
		Key:    aws.String(s3p.objectKey(name)),
	})
	if err != nil {
		return NewStorageError(fmt.Sprintf("failed to delete blob %s from S3", name), err)
	}

	return nil
}

// List returns the names of stored blobs matching the prefix
func (s3p *S3StorageProvider) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s3p.bucket),
		Prefix: aws.String(s3p.prefix + prefix),
	}

	err := s3p.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				names = append(names, strings.TrimPrefix(*obj.Key, s3p.prefix))
			}
			return true
		})
	if err != nil {
		return nil, NewStorageError("failed to list blobs from S3", err)
	}

	return names, nil
}

// Location returns the S3 URI for a blob name
func (s3p *S3StorageProvider) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s3p.bucket, s3p.objectKey(name))
}

// HealthCheck verifies that the storage provider is accessible and functional
func (s3p *S3StorageProvider) HealthCheck(ctx context.Context) error {
	_, err := s3p.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s3p.bucket),
	})
	if err != nil {
		return NewStorageError("S3 storage provider health check failed: bucket not accessible", err)
	}

	_, err = s3p.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s3p.bucket),
		Prefix:  aws.String(s3p.prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return NewStorageError("S3 storage provider health check failed: cannot list objects", err)
	}

	return nil
}

// GetBucket returns the S3 bucket name
func (s3p *S3StorageProvider) GetBucket() string {
	return s3p.bucket
}

// objectKey returns the S3 object key for a blob name
func (s3p *S3StorageProvider) objectKey(name string) string {
	sanitized := strings.ReplaceAll(name, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "\\", "_")
	return s3p.prefix + sanitized
}
