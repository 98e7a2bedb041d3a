package attachment_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaekwang-park/serverless-todo/internal/attachment"
)

func newS3Client() *s3.Client {
	return s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	})
}

func TestS3Signer_PresignUpload(t *testing.T) {
	signer := attachment.NewS3SignerFromClient(newS3Client(), "todo-images", "todo-images.s3.amazonaws.com", 300*time.Second)

	raw, err := signer.PresignUpload(context.Background(), "img-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Contains(t, u.Host+u.Path, "todo-images")
	assert.Contains(t, u.Path, "img-1")

	q := u.Query()
	assert.Equal(t, "300", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("X-Amz-Credential"), "AKIDEXAMPLE")
}

func TestS3Signer_PresignUploadUsesConfiguredExpiry(t *testing.T) {
	signer := attachment.NewS3SignerFromClient(newS3Client(), "todo-images", "todo-images.s3.amazonaws.com", 15*time.Minute)

	raw, err := signer.PresignUpload(context.Background(), "img-2")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}

type stubPresigner struct {
	in  *s3.PutObjectInput
	err error
}

func (s *stubPresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	s.in = in
	if s.err != nil {
		return nil, s.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + aws.ToString(in.Key)}, nil
}

func TestS3Signer_PresignUploadInput(t *testing.T) {
	stub := &stubPresigner{}
	signer := attachment.NewS3Signer(stub, "todo-images", "cdn.example.com", time.Minute)

	got, err := signer.PresignUpload(context.Background(), "img-3")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/img-3", got)
	require.NotNil(t, stub.in)
	assert.Equal(t, "todo-images", aws.ToString(stub.in.Bucket))
	assert.Equal(t, "img-3", aws.ToString(stub.in.Key))
}

func TestS3Signer_PresignUploadError(t *testing.T) {
	cause := errors.New("no credentials")
	signer := attachment.NewS3Signer(&stubPresigner{err: cause}, "todo-images", "cdn.example.com", time.Minute)

	_, err := signer.PresignUpload(context.Background(), "img-4")
	assert.ErrorIs(t, err, cause)
}

func TestS3Signer_ObjectURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		key  string
		want string
	}{
		{"default bucket host", "todo-images.s3.amazonaws.com", "img-1", "https://todo-images.s3.amazonaws.com/img-1"},
		{"custom host", "cdn.example.com", "abc-123", "https://cdn.example.com/abc-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := attachment.NewS3Signer(&stubPresigner{}, "todo-images", tt.host, time.Minute)
			assert.Equal(t, tt.want, signer.ObjectURL(tt.key))
		})
	}
}
