package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrReportNotFound is returned when a stored report does not exist.
var ErrReportNotFound = errors.New("report not found")

// StorageService keeps rendered reports so they can be downloaded after the
// batch request has returned.
type StorageService interface {
	EnsureReady(ctx context.Context) error
	SaveReport(ctx context.Context, batchID uuid.UUID, data []byte) (string, error)
	OpenReport(ctx context.Context, key string) ([]byte, error)
}

func reportKey(batchID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", batchID.String(), ReportFilename)
}

type localStorageService struct {
	reportPath string
}

func NewLocalStorageService(reportPath string) StorageService {
	return &localStorageService{
		reportPath: reportPath,
	}
}

func (s *localStorageService) EnsureReady(ctx context.Context) error {
	if err := os.MkdirAll(s.reportPath, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	return nil
}

func (s *localStorageService) SaveReport(ctx context.Context, batchID uuid.UUID, data []byte) (string, error) {
	key := reportKey(batchID)
	filePath := filepath.Join(s.reportPath, key)

	// Write to a temp file first so a reader never sees a partial report
	tmp, err := os.CreateTemp(s.reportPath, "report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return key, nil
}

func (s *localStorageService) OpenReport(ctx context.Context, key string) ([]byte, error) {
	if key == "" || key != filepath.Base(key) {
		return nil, fmt.Errorf("invalid report key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(s.reportPath, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	return data, nil
}

// S3Options configures report storage on AWS S3 or any S3-compatible store
// such as Cloudflare R2.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// objectStore is the subset of *s3.Client used for reports.
type objectStore interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3StorageService struct {
	client objectStore
	bucket string
	prefix string
}

func NewS3StorageService(ctx context.Context, opts S3Options) (StorageService, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3StorageService(client, opts), nil
}

func newS3StorageService(client objectStore, opts S3Options) *s3StorageService {
	return &s3StorageService{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}
}

func (s *s3StorageService) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *s3StorageService) EnsureReady(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", s.bucket, err)
	}

	return nil
}

func (s *s3StorageService) SaveReport(ctx context.Context, batchID uuid.UUID, data []byte) (string, error) {
	key := reportKey(batchID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(s.objectKey(key)),
		Body:               bytes.NewReader(data),
		ContentLength:      aws.Int64(int64(len(data))),
		ContentType:        aws.String(ReportContentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", ReportFilename)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	return key, nil
}

func (s *s3StorageService) OpenReport(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read report body: %w", err)
	}

	return buf.Bytes(), nil
}
