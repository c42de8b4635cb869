package logs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aiox-platform/roverchat/internal/config"
)

// BlobFetcher returns the text stored at an object URL.
type BlobFetcher interface {
	Fetch(ctx context.Context, objectURL string) (string, error)
}

// ParseObjectURL splits an object URL into bucket and key. Virtual-hosted
// S3 URLs (<bucket>.s3.amazonaws.com) use the first host label as the bucket,
// any other host is taken as the bucket name itself.
func ParseObjectURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing object url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("object url %q has no host", raw)
	}
	bucket = host
	if strings.Contains(host, ".s3.amazonaws.com") {
		bucket, _, _ = strings.Cut(host, ".")
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("object url %q has no key", raw)
	}
	return bucket, key, nil
}

// MinioFetcher reads memory blobs from S3 compatible storage.
type MinioFetcher struct {
	client *minio.Client
}

func NewMinioFetcher(cfg config.StorageConfig) (*MinioFetcher, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewIAM("")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &MinioFetcher{client: client}, nil
}

func (f *MinioFetcher) Fetch(ctx context.Context, objectURL string) (string, error) {
	bucket, key, err := ParseObjectURL(objectURL)
	if err != nil {
		return "", err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("getting %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
	return string(data), nil
}
