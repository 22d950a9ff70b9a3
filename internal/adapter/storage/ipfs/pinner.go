package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// cidMetadataKey is the object metadata entry in which the gateway returns the CID.
const cidMetadataKey = "cid"

// ErrNoCID is returned when the gateway stored the object but reported no CID.
var ErrNoCID = errors.New("pinning gateway returned no cid")

// Config points at an S3-compatible IPFS pinning gateway (Filebase style).
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Pinner implements ports.ContentPinner by uploading objects to a bucket
// whose gateway pins every object on IPFS.
type Pinner struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// NewPinner builds an S3 client for the gateway.
func NewPinner(ctx context.Context, cfg Config, log zerolog.Logger) (*Pinner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Pinner{client: client, bucket: cfg.Bucket, log: log}, nil
}

// Pin uploads data under key and returns the CID the gateway assigned.
func (p *Pinner) Pin(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	put := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		put.ContentType = aws.String(contentType)
	}
	if _, err := p.client.PutObject(ctx, put); err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	head, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("reading %s metadata: %w", key, err)
	}

	cid := head.Metadata[cidMetadataKey]
	if cid == "" {
		return "", ErrNoCID
	}

	p.log.Info().Str("key", key).Str("cid", cid).Int("bytes", len(data)).Msg("ipfs: content pinned")
	return cid, nil
}

// Ping implements ports.HealthChecker.
func (p *Pinner) Ping(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	return err
}

// Name implements ports.HealthChecker.
func (p *Pinner) Name() string { return "ipfs" }
