package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/minedocs/internal/config"
	"github.com/sells-group/minedocs/internal/model"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads reports from an S3 bucket, or any S3-compatible endpoint.
type S3Store struct {
	client   S3API
	bucket   string
	template string
}

// NewS3 loads AWS configuration and creates an S3Store. Static credentials
// are used when access_key is set; otherwise the default chain applies.
func NewS3(ctx context.Context, cfg config.BlobConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "blob: load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	template := cfg.PublicURLTemplate
	if template == "" {
		if cfg.Endpoint != "" {
			template = strings.TrimRight(cfg.Endpoint, "/") + "/{bucket}/{path}"
		} else {
			template = fmt.Sprintf("https://{bucket}.s3.%s.amazonaws.com/{path}", cfg.Region)
		}
	}
	return NewS3WithClient(client, cfg.Bucket, template), nil
}

// NewS3WithClient creates an S3Store over an existing client.
func NewS3WithClient(client S3API, bucket, publicURLTemplate string) *S3Store {
	return &S3Store{client: client, bucket: bucket, template: publicURLTemplate}
}

func (s *S3Store) List(ctx context.Context, folder string) ([]model.Document, error) {
	prefix := folderPrefix(folder)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var docs []model.Document
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapf(err, "blob: list s3://%s/%s", s.bucket, prefix)
		}
		for _, obj := range page.Contents {
			doc, ok := documentFromKey(aws.ToString(obj.Key), prefix, aws.ToInt64(obj.Size))
			if ok {
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

func (s *S3Store) Download(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, wrapf(err, "blob: get s3://%s/%s", s.bucket, path)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, wrapf(err, "blob: read s3://%s/%s", s.bucket, path)
	}
	return data, nil
}

func (s *S3Store) PublicURL(path string) string {
	return expandTemplate(s.template, s.bucket, path)
}

var _ Store = (*S3Store)(nil)
