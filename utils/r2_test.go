package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"free-games-bot/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestR2ArchiverPut(t *testing.T) {
	putter := &fakePutter{}
	a := &R2Archiver{Client: putter, Bucket: "digests", CDNBaseURL: "https://cdn.example.com"}

	url, err := a.Put(context.Background(), "digests/2024/01/01/x.json", []byte(`[]`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/digests/2024/01/01/x.json", url)
	assert.Equal(t, "digests", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	assert.Equal(t, `[]`, string(putter.body))
}

func TestR2ArchiverPutError(t *testing.T) {
	a := &R2Archiver{Client: &fakePutter{err: errors.New("denied")}, Bucket: "b"}

	_, err := a.Put(context.Background(), "k", nil, "application/json")
	assert.Error(t, err)
}

func TestNewR2ArchiverDefaultsCDNBase(t *testing.T) {
	a, err := NewR2Archiver(context.Background(), config.R2Config{
		AccountID:       "acc",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		Bucket:          "digests",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com/digests", a.CDNBaseURL)
}
