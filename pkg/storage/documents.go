// Package storage provides presigned download URLs for court documents
// kept in object storage (ruling PDFs, agreement lists).
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DocumentStoreConfig holds object storage settings
type DocumentStoreConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PresignExpiry bounds how long generated download URLs stay valid
	PresignExpiry time.Duration
}

// DocumentStore issues presigned GET URLs for stored documents
type DocumentStore struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewDocumentStore creates a document store from the given settings
func NewDocumentStore(ctx context.Context, cfg DocumentStoreConfig) (*DocumentStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("document store bucket is required")
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}

	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		// default credential chain (IAM roles, env vars)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &DocumentStore{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		expiry:    cfg.PresignExpiry,
	}, nil
}

// PresignDownload returns a time-limited GET URL for the stored object
// named by archivo
func (d *DocumentStore) PresignDownload(ctx context.Context, archivo string) (string, error) {
	key := strings.TrimPrefix(strings.TrimSpace(archivo), "/")
	if key == "" {
		return "", fmt.Errorf("empty document path")
	}

	req, err := d.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(d.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign document %s: %w", key, err)
	}
	return req.URL, nil
}
