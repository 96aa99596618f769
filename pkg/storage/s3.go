package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	// MaxUploadSize is the maximum allowed size for a lecture upload (500MB).
	MaxUploadSize = 500 * 1024 * 1024
	// FolderVideos is the bucket prefix for lecture objects.
	FolderVideos = "videos"
	// DefaultPresignExpire is the validity of issued access URLs (one week).
	DefaultPresignExpire = 7 * 24 * time.Hour
)

// Allowed upload extensions for lecture videos and thumbnails.
var (
	AllowedVideoExtensions = map[string]bool{
		".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
		".mkv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
	}
	AllowedImageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
	contentTypes = map[string]string{
		".mp4": "video/mp4", ".m4v": "video/mp4", ".mov": "video/quicktime",
		".avi": "video/x-msvideo", ".wmv": "video/x-ms-wmv", ".flv": "video/x-flv",
		".mkv": "video/x-matroska", ".webm": "video/webm", ".mpg": "video/mpeg",
		".mpeg": "video/mpeg", ".jpg": "image/jpeg", ".jpeg": "image/jpeg",
		".png": "image/png", ".gif": "image/gif", ".webp": "image/webp",
	}
)

// safeNameRe matches everything that may not appear in an object key segment;
// word characters and Hangul syllables pass through.
var safeNameRe = regexp.MustCompile(`[^\w가-힣]`)

// S3Config holds object storage settings. Endpoint supports S3-compatible
// providers (e.g. https://s3.ap-northeast-1.wasabisys.com); empty means AWS.
type S3Config struct {
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireSeconds int
}

// S3 uploads lecture objects and mints pre-signed access URLs for them.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 50 * 1024 * 1024
		u.Concurrency = 5
	})
	logger.Info("S3 client ready",
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket))
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// IsAllowedVideo returns true when the filename has a supported video extension.
func IsAllowedVideo(filename string) bool {
	return AllowedVideoExtensions[strings.ToLower(path.Ext(filename))]
}

// IsAllowedImage returns true when the filename has a supported image extension.
func IsAllowedImage(filename string) bool {
	return AllowedImageExtensions[strings.ToLower(path.Ext(filename))]
}

// ContentTypeForFilename returns the MIME type for a filename extension.
func ContentTypeForFilename(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SafeName replaces characters outside [word, Hangul] with underscores so the
// group name can be embedded in an object key.
func SafeName(name string) string {
	return safeNameRe.ReplaceAllString(name, "_")
}

// VideoFolder returns the per-lecture prefix: videos/{groupID}_{safeName}_{YYYYMMDD}.
func VideoFolder(groupID, groupName, date string) string {
	return fmt.Sprintf("%s/%s_%s_%s", FolderVideos, groupID, SafeName(groupName), date)
}

// VideoKey returns the primary object key: {folder}/video{ext}.
func VideoKey(folder, filename string) string {
	return folder + "/video" + strings.ToLower(path.Ext(filename))
}

// ThumbnailKey returns the thumbnail object key: {folder}/thumbnail{ext}.
func ThumbnailKey(folder, filename string) string {
	return folder + "/thumbnail" + strings.ToLower(path.Ext(filename))
}

// QRKey returns the QR image object key: {folder}/{name}.png.
func QRKey(folder, name string) string {
	return folder + "/" + name + ".png"
}

// SignedURL returns a pre-signed GET URL for key, valid for expires. The URL
// embeds X-Amz-Date and X-Amz-Expires, which the refresh logic parses to
// decide when a stored URL needs reissuing.
func (s *S3) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// PresignExpire returns the configured validity for issued URLs.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireSeconds <= 0 {
		return DefaultPresignExpire
	}
	return time.Duration(s.cfg.PresignExpireSeconds) * time.Second
}

// Bucket returns the configured bucket name.
func (s *S3) Bucket() string { return s.cfg.Bucket }

// Upload streams a reader into the bucket.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error {
	var contentLengthPtr *int64
	if contentLength > 0 {
		contentLengthPtr = &contentLength
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLengthPtr,
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// HeadBucket verifies the bucket is reachable with the current credentials.
func (s *S3) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket: %w", err)
	}
	return nil
}

// GetObjectStream returns the object body and content type for streaming.
// Caller must close the body.
func (s *S3) GetObjectStream(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", err
	}
	ct := ""
	if out.ContentType != nil {
		ct = *out.ContentType
	}
	return out.Body, ct, nil
}

// DeleteObject removes an object from the bucket.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
