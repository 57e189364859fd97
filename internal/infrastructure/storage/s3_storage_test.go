package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traiteur_devis/internal/infrastructure/config"
	"traiteur_devis/internal/infrastructure/logging"
)

type fakePut struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Upload(t *testing.T) {
	fake := &fakePut{}
	s, err := NewS3Storage(fake, config.S3Config{Bucket: "devis", PublicBaseURL: "https://files.traiteur.test/"}, logging.Discard())
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "budgets/b-1/v2.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.traiteur.test/budgets/b-1/v2.pdf", url)
	assert.Equal(t, "devis", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fake.in.ContentType))
	assert.Equal(t, []byte("%PDF"), fake.body)
}

func TestS3Storage_Errors(t *testing.T) {
	_, err := NewS3Storage(&fakePut{}, config.S3Config{}, logging.Discard())
	assert.ErrorIs(t, err, ErrBucketNotConfigured)

	s, err := NewS3Storage(&fakePut{err: errors.New("denied")}, config.S3Config{Bucket: "devis"}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "https://devis.s3.amazonaws.com", s.baseURL)
	_, err = s.Upload(context.Background(), "k", "application/pdf", nil)
	assert.Error(t, err)
}
