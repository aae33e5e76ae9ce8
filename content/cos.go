package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// DefaultCOSTimeout bounds a single COS call.
const DefaultCOSTimeout = 60 * time.Second

// COSStore serves objects from a Tencent Cloud Object Storage bucket.
type COSStore struct {
	client *cos.Client
	logger *slog.Logger
}

var _ Store = (*COSStore)(nil)

type cosOptions struct {
	secretID  string
	secretKey string
	timeout   time.Duration
	client    *cos.Client
	logger    *slog.Logger
}

// COSOption configures a COSStore.
type COSOption func(*cosOptions)

// WithCredentials sets the COS secret pair.
// Default is COS_SECRETID and COS_SECRETKEY from the environment.
func WithCredentials(secretID, secretKey string) COSOption {
	return func(o *cosOptions) {
		o.secretID = secretID
		o.secretKey = secretKey
	}
}

// WithCOSTimeout bounds each call. Default is DefaultCOSTimeout.
func WithCOSTimeout(d time.Duration) COSOption {
	return func(o *cosOptions) {
		o.timeout = d
	}
}

// WithCOSClient uses a preconfigured client; the bucket URL and
// credentials are then ignored.
func WithCOSClient(c *cos.Client) COSOption {
	return func(o *cosOptions) {
		o.client = c
	}
}

// WithCOSLogger sets a custom logger.
func WithCOSLogger(logger *slog.Logger) COSOption {
	return func(o *cosOptions) {
		o.logger = logger
	}
}

// NewCOSStore creates a store for the bucket at bucketURL, for example
// https://corpus-1250000000.cos.ap-mumbai.myqcloud.com.
func NewCOSStore(bucketURL string, opts ...COSOption) (*COSStore, error) {
	o := &cosOptions{
		secretID:  os.Getenv("COS_SECRETID"),
		secretKey: os.Getenv("COS_SECRETKEY"),
		timeout:   DefaultCOSTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "cos-content")

	if o.client != nil {
		return &COSStore{client: o.client, logger: logger}, nil
	}

	if bucketURL == "" {
		return nil, ErrBucketURLRequired
	}
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bucket URL: %w", err)
	}
	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  o.secretID,
			SecretKey: o.secretKey,
		},
	}
	return &COSStore{
		client: cos.NewClient(&cos.BaseURL{BucketURL: u}, httpClient),
		logger: logger,
	}, nil
}

// Exists issues a HEAD request for key.
func (s *COSStore) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	_, err := s.client.Object.Head(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return false, nil
		}
		s.logger.Error("error checking object", "key", key, "err", err)
		return false, fmt.Errorf("checking object %s: %w", key, err)
	}
	return true, nil
}

// Fetch downloads the object at key.
func (s *COSStore) Fetch(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		s.logger.Error("error downloading object", "key", key, "err", err)
		return "", fmt.Errorf("downloading object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading object %s: %w", key, err)
	}
	return string(data), nil
}
