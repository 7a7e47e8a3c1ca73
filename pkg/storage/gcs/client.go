package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	uploadTimeout = 30 * time.Second
	pingTimeout   = 5 * time.Second
	cacheControl  = "public, max-age=86400"
)

// Client uploads public assets into a single bucket.
type Client struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a storage client from explicit credentials when provided,
// otherwise from application default credentials.
func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return &Client{
		client:        client,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes data to objectName and returns its public URL. Public read
// access is granted at the bucket level.
func (c *Client) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	objectName = strings.TrimLeft(objectName, "/")
	if objectName == "" {
		return "", errors.New("object name is required")
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	writer := c.client.Bucket(c.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = cacheControl

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing object %s: %w", objectName, err)
	}

	return PublicURL(c.publicBaseURL, c.bucket, objectName), nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket attrs: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// PublicURL joins the public base, bucket and object path.
func PublicURL(base, bucket, objectName string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.TrimLeft(objectName, "/"))
}
