package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	config "github.com/beardedvibes/beardedvibes/configs"
)

type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage works against any S3-compatible endpoint; set Endpoint for
// R2-style providers, leave it empty for AWS itself.
func NewS3Storage(conf *config.S3) (*S3Storage, error) {
	region := conf.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    conf.Bucket,
		publicURL: strings.TrimRight(conf.PublicURL, "/"),
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
