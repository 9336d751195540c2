// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const CodeFileTypeNotAllowed = "FILE_TYPE_NOT_ALLOWED"

// FileStore keeps uploaded document bytes.
type FileStore interface {
	DocumentUploadOptions(applicationID uuid.UUID) UploadOptions
	Upload(ctx context.Context, file UploadFile, options UploadOptions) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Checksum string `json:"checksum"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

// StorageService writes to S3 when AWS credentials are configured and to a
// local directory otherwise.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// DocumentUploadOptions are the limits applied to application documents.
func (s *StorageService) DocumentUploadOptions(applicationID uuid.UUID) UploadOptions {
	return UploadOptions{
		Folder:       path.Join("applications", applicationID.String()),
		MaxSize:      s.config.Storage.MaxUploadSize,
		AllowedTypes: []string{".pdf", ".jpg", ".jpeg", ".png"},
	}
}

func (s *StorageService) Upload(ctx context.Context, file UploadFile, options UploadOptions) (*UploadResult, error) {
	size := int64(len(file.Data))
	if options.MaxSize > 0 && size > options.MaxSize {
		return nil, &FileTooLargeError{Size: size, Max: options.MaxSize}
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if len(options.AllowedTypes) > 0 && !containsString(options.AllowedTypes, ext) {
		return nil, &domain.RuleViolationError{
			Message:      fmt.Sprintf("File type %q is not allowed. Accepted types: %s.", ext, strings.Join(options.AllowedTypes, ", ")),
			FailureCodes: []string{CodeFileTypeNotAllowed},
		}
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}

	key := s.generateFileName(file.Name, options.Folder)

	var (
		url string
		err error
	)
	if s.s3Client != nil {
		url, err = s.uploadToS3(ctx, file.Data, key, contentType)
	} else {
		url, err = s.uploadToLocal(file.Data, key)
	}
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     size,
		MimeType: contentType,
		Checksum: utils.SHA256Hex(file.Data),
	}, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.config.AWS.S3Bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String(contentType),
		ContentLength:        aws.Int64(int64(len(data))),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(data []byte, key string) (string, error) {
	target := filepath.Join(s.config.Storage.LocalPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return s.localURL(key), nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if s.s3Client == nil {
		target := filepath.Join(s.config.Storage.LocalPath, filepath.FromSlash(key))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// DownloadURL returns a presigned S3 URL, or the public local URL when S3
// is not configured.
func (s *StorageService) DownloadURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return s.localURL(key), nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := time.Now().UTC().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)

	if folder != "" {
		return path.Join(folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func (s *StorageService) localURL(key string) string {
	base := strings.TrimRight(s.config.Storage.PublicBaseURL, "/")
	if base == "" {
		return "/uploads/" + key
	}
	return base + "/" + key
}

type FileTooLargeError struct {
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", e.Size, e.Max)
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
