package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zyncrender/max-plugin/internal/config"
)

// Archive keeps raw submission payloads for later inspection.
type Archive interface {
	StoreSubmission(ctx context.Context, jobID string, req *SubmitJobRequest) error
}

// S3Archive writes submissions to S3-compatible object storage.
type S3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive connects to the configured object storage endpoint.
func NewS3Archive(cfg *config.ArchiveConfig) (*S3Archive, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("archive configuration incomplete")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: cfg.Endpoint}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	return &S3Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

func (a *S3Archive) StoreSubmission(ctx context.Context, jobID string, req *SubmitJobRequest) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	key := fmt.Sprintf("submissions/%s.json", jobID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return nil
}

// LocalArchive writes submissions to a directory. It is the fallback when
// no object storage is configured.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

func (a *LocalArchive) StoreSubmission(ctx context.Context, jobID string, req *SubmitJobRequest) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	path := filepath.Join(a.dir, jobID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return nil
}
