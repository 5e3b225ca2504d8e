// Package s3 stores clinical files (procedure photos, signed consents, ad
// images) in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/config"
)

const defaultPresignTTL = 15 * time.Minute

// Storage is what services need from object storage.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// OpError reports a failed bucket operation on one key.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string { return fmt.Sprintf("s3 %s %q: %v", e.Op, e.Key, e.Err) }
func (e *OpError) Unwrap() error { return e.Err }

// Client is the S3 Storage. Objects are private and encrypted at rest;
// readers get short-lived presigned URLs.
type Client struct {
	api     *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

var _ Storage = (*Client)(nil)

func New(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, endpointOptions(cfg.Endpoint))

	ttl := time.Duration(cfg.PresignTTLSec) * time.Second
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Client{api: api, presign: s3.NewPresignClient(api), bucket: cfg.Bucket, ttl: ttl}, nil
}

// endpointOptions points the client at a self-hosted gateway. MinIO and
// most of its peers only speak path-style addressing.
func endpointOptions(endpoint string) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	in := &s3.PutObjectInput{
		Bucket:               aws.String(c.bucket),
		Key:                  aws.String(key),
		Body:                 body,
		ContentType:          aws.String(contentType),
		ACL:                  types.ObjectCannedACLPrivate,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := c.api.PutObject(ctx, in); err != nil {
		return &OpError{Op: "upload", Key: key, Err: err}
	}
	return nil
}

// PresignDownload returns a GET URL valid for the configured TTL.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", &OpError{Op: "presign", Key: key, Err: err}
	}
	return req.URL, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &OpError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// ObjectKey builds "<prefix>/<owner>/<uuid><ext>" with the lower-cased
// extension of fileName.
func ObjectKey(prefix string, owner uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join(prefix, owner.String(), uuid.Must(uuid.NewV7()).String()+ext)
}
