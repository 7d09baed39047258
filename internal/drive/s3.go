package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/lavrova/rfpdesk/internal/common"
	appconfig "github.com/lavrova/rfpdesk/internal/config"
)

const linkExpiry = 24 * time.Hour

// S3Store uploads into an S3 bucket. Callers normally bring their own
// credentials; the service identity is used only when a shared prefix is
// configured, mirroring the shared-drive rule of the original deployment.
type S3Store struct {
	cfg          appconfig.Config
	serviceCli   *s3.Client
	sharedPrefix string
}

func NewS3Store(ctx context.Context, cfg appconfig.Config) (*S3Store, error) {
	store := &S3Store{cfg: cfg, sharedPrefix: cfg.DriveSharedPrefix}

	if cfg.DriveSharedPrefix != "" {
		cli, err := buildClient(ctx, cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("init service-identity client: %w", err)
		}
		store.serviceCli = cli
		slog.Info("drive service identity enabled", "shared_prefix", cfg.DriveSharedPrefix)
	}
	return store, nil
}

func buildClient(ctx context.Context, cfg appconfig.Config, creds *Credentials) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}

	switch {
	case creds != nil:
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)))
	case cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3ForcePathStyle
	}), nil
}

// clientFor picks the caller's client or the service identity. Service
// uploads without a shared prefix are never attempted: per-user quota rules
// reject them, so they fail fast as ErrAuthRequired instead.
func (s *S3Store) clientFor(ctx context.Context, creds *Credentials) (*s3.Client, string, error) {
	if creds != nil {
		cli, err := buildClient(ctx, s.cfg, creds)
		if err != nil {
			return nil, "", common.WrapStage(common.ErrUploadFailed, err)
		}
		return cli, "generated", nil
	}
	if s.serviceCli != nil {
		return s.serviceCli, path.Join(s.sharedPrefix, "generated"), nil
	}
	return nil, "", common.ErrAuthRequired
}

func (s *S3Store) Upload(ctx context.Context, artifact Artifact, displayName string, creds *Credentials) (*Link, error) {
	cli, prefix, err := s.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	key := objectKey(prefix, displayName)

	_, err = cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Content),
		ContentType: aws.String(artifact.ContentType),
	})
	if err != nil {
		return nil, translateS3Err(err)
	}

	presign := s3.NewPresignClient(cli)
	req, err := presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = linkExpiry
	})
	if err != nil {
		return nil, common.WrapStage(common.ErrUploadFailed, fmt.Errorf("presign link: %w", err))
	}

	slog.Info("document uploaded to drive", "key", key, "bucket", s.cfg.S3Bucket, "size", len(artifact.Content))

	return &Link{URL: req.URL, FileID: key}, nil
}

func (s *S3Store) ListRecent(ctx context.Context, sinceDays int, creds *Credentials) ([]FileMeta, error) {
	cli, prefix, err := s.clientFor(ctx, creds)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -sinceDays)
	var files []FileMeta

	paginator := s3.NewListObjectsV2Paginator(cli, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.S3Bucket),
		Prefix: aws.String(prefix + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateS3Err(err)
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !strings.HasPrefix(name, namePrefix) {
				continue
			}
			if obj.LastModified == nil || obj.LastModified.Before(cutoff) {
				continue
			}
			files = append(files, FileMeta{
				ID:         aws.ToString(obj.Key),
				Name:       name,
				Size:       aws.ToInt64(obj.Size),
				ModifiedAt: *obj.LastModified,
			})
		}
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].ModifiedAt.After(files[b].ModifiedAt)
	})

	presign := s3.NewPresignClient(cli)
	for i := range files {
		req, err := presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.S3Bucket),
			Key:    aws.String(files[i].ID),
		}, func(o *s3.PresignOptions) {
			o.Expires = linkExpiry
		})
		if err == nil {
			files[i].URL = req.URL
		}
	}

	return files, nil
}

func translateS3Err(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.WrapStage(common.ErrTimeout, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AllAccessDisabled", "QuotaExceeded":
			return common.WrapStage(common.ErrQuotaOrPermission, err)
		}
	}
	return common.WrapStage(common.ErrUploadFailed, err)
}

func objectKey(prefix, displayName string) string {
	safe := strings.ReplaceAll(displayName, " ", "_")
	safe = strings.ReplaceAll(safe, "/", "_")
	day := time.Now().Format("2006/01/02")
	uniqueID := uuid.New().String()[:8]
	ext := path.Ext(safe)
	base := strings.TrimSuffix(safe, ext)
	return fmt.Sprintf("%s/%s/%s_%s%s", prefix, day, base, uniqueID, ext)
}
