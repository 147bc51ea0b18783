package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Overridable in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// s3DocumentStore hands out presigned PUT URLs.
type s3DocumentStore struct {
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
	logger    *logger.Logger
}

// NewS3DocumentStore builds the presign client from cfg. Static
// credentials are used when an access key is configured, the default AWS
// chain otherwise.
func NewS3DocumentStore(ctx context.Context, cfg config.Documents, log *logger.Logger) (DocumentStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		log.Err(err).Str("func", "NewS3DocumentStore").Msg("failed to load aws config")
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3DocumentStore{
		presigner: newS3PresignClient(client),
		bucket:    cfg.Bucket,
		ttl:       cfg.PresignTTL,
		logger:    log,
	}, nil
}

func (s *s3DocumentStore) UploadTarget(ctx context.Context, key string, contentType string, size int64) (models.UploadTarget, error) {
	storageKey := documentStorageKey(key, time.Now())

	req, err := presignPutObject(s.presigner, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(storageKey),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "s3DocumentStore.UploadTarget").
			Str("storage_key", storageKey).
			Msg("failed to presign upload")
		return models.UploadTarget{}, fmt.Errorf("presign document upload: %w", err)
	}

	return models.UploadTarget{
		Method:     req.Method,
		URL:        req.URL,
		Headers:    flattenHeader(req.SignedHeader),
		StorageKey: storageKey,
		ExpiresAt:  time.Now().Add(s.ttl).UTC(),
	}, nil
}

func documentStorageKey(key string, at time.Time) string {
	return fmt.Sprintf("documents/%d/%02d/%02d/%s", at.Year(), at.Month(), at.Day(), key)
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	flat := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 && name != "Host" {
			flat[name] = values[0]
		}
	}
	return flat
}
