// Package attachment signs upload links for to-do attachments stored in S3.
package attachment

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectPresigner is the subset of *s3.PresignClient used by S3Signer.
type PutObjectPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Signer issues presigned PUT URLs for objects in a single bucket.
type S3Signer struct {
	presigner  PutObjectPresigner
	bucket     string
	publicHost string
	expires    time.Duration
}

// NewS3Signer returns a signer for bucket. Uploaded objects are expected to
// be served from https://{publicHost}/{key}.
func NewS3Signer(presigner PutObjectPresigner, bucket, publicHost string, expires time.Duration) *S3Signer {
	return &S3Signer{
		presigner:  presigner,
		bucket:     bucket,
		publicHost: publicHost,
		expires:    expires,
	}
}

// NewS3SignerFromClient wraps client in an s3.PresignClient.
func NewS3SignerFromClient(client *s3.Client, bucket, publicHost string, expires time.Duration) *S3Signer {
	return NewS3Signer(s3.NewPresignClient(client), bucket, publicHost, expires)
}

func (s *S3Signer) PresignUpload(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload of %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Signer) ObjectURL(key string) string {
	u := url.URL{Scheme: "https", Host: s.publicHost, Path: "/" + key}
	return u.String()
}
