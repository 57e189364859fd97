// Package storage uploads rendered budget documents to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/infrastructure/config"
	"traiteur_devis/internal/usecase/interfaces"
)

var ErrBucketNotConfigured = errors.New("S3_BUCKET is not set")

// PutObjectAPI is the part of *s3.Client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	client  PutObjectAPI
	bucket  string
	baseURL string
	log     *logrus.Logger
}

var _ interfaces.IDocumentStorage = (*S3Storage)(nil)

// NewS3Client builds a client for AWS or, with S3_ENDPOINT set, for R2 or MinIO
// using path-style addressing.
func NewS3Client(awsCfg aws.Config, cfg config.S3Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

func NewS3Storage(client PutObjectAPI, cfg config.S3Config, log *logrus.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketNotConfigured
	}
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}
	return &S3Storage{client: client, bucket: cfg.Bucket, baseURL: baseURL, log: log}, nil
}

// Upload stores body under key and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("[storage][s3] upload failed")
		return "", err
	}
	url := s.baseURL + "/" + key
	s.log.WithFields(logrus.Fields{"key": key, "size": len(body)}).Info("[storage][s3] uploaded")
	return url, nil
}
