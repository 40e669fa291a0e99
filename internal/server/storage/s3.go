// Package storage hands out presigned object storage URLs for rendered
// scoresheet PDFs. PDFs are produced elsewhere; this package only links to
// them.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
)

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// LinkTTL is how long a presigned PDF link stays valid.
const LinkTTL = 15 * time.Minute

type S3Store struct {
	region    string
	user      string
	password  string
	bucket    string
	endpoint  string
	pathStyle bool
}

func NewS3Store(cfg *sc.Config) *S3Store {
	return &S3Store{
		region:    cfg.S3Region,
		user:      cfg.S3RootUser,
		password:  cfg.S3RootPassword,
		bucket:    cfg.S3Bucket,
		endpoint:  cfg.S3BaseEndpoint,
		pathStyle: true,
	}
}

// ScoresheetPDFKey is the object key of a scoresheet's rendered PDF.
func ScoresheetPDFKey(scoresheetID string) string {
	return fmt.Sprintf("scoresheets/%s.pdf", scoresheetID)
}

func (s *S3Store) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.user, s.password, "")))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.endpoint)
		// MinIO and most self-hosted backends need path-style addressing
		o.UsePathStyle = s.pathStyle
	})

	return newS3PresignClient(client), nil
}

// PresignedGetURL returns a time-limited download URL for key.
func (s *S3Store) PresignedGetURL(ctx context.Context, key string) (string, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("presign client: %w", err)
	}

	bucket := s.bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(LinkTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	return req.URL, nil
}
