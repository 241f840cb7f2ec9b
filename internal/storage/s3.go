package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Resolver presigns GET URLs for avatar objects stored in S3 (or a
// compatible API).
type S3Resolver struct {
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
	expires   time.Duration
}

func NewS3Resolver(client *s3.Client, bucket, keyPrefix string, expires time.Duration) *S3Resolver {
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	return &S3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		expires:   expires,
	}
}

func (r *S3Resolver) ResolveURL(ctx context.Context, key string) (string, error) {
	if r.bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("avatar key is empty")
	}
	if r.keyPrefix != "" && !strings.HasPrefix(key, r.keyPrefix+"/") {
		key = r.keyPrefix + "/" + key
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.expires))
	if err != nil {
		return "", fmt.Errorf("presign avatar %s: %w", key, err)
	}
	return req.URL, nil
}
