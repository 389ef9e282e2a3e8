package asset

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
)

// S3Store puts assets into an S3 compatible bucket served at PublicBaseURL.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, cfg config.S3Config, publicBaseURL string) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
		o.Retryer = aws.NopRetryer{}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, file model.LocalAsset) (string, error) {
	key := ObjectName(file.Filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentLength: aws.Int64(file.Size()),
		ContentType:   aws.String(file.MimeType),
	})
	if err != nil {
		serr := &errs.StorageError{Op: "put " + key, Err: err}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			serr.Status = respErr.HTTPStatusCode()
		}
		return "", serr
	}

	assetLogger.Info().
		Str("filename", file.Filename).
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("Stored asset in bucket")
	return publicURL(s.publicBaseURL, key), nil
}
