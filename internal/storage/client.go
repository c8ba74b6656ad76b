// Package storage retrieves import payloads from the object-storage service
// (or an FTP drop for divisions that still deliver files that way).
package storage

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rantizi/infomedia-dashboard/internal/config"
)

// Downloader fetches raw file bytes by storage path.
type Downloader interface {
	Download(ctx context.Context, storagePath string) ([]byte, error)
}

// Client downloads objects from the storage REST API with retry and rate
// limiting. Paths with an ftp:// scheme are routed to the FTP fetcher.
type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	ftp        *FTPFetcher
}

// NewClient creates a storage client from configuration.
func NewClient(cfg config.StorageConfig) *Client {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "imports"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		maxRetries: 3,
		ftp:        NewFTPFetcher(FTPOptions{}),
	}
}

// Download retrieves the object stored at storagePath. A leading slash is
// stripped; the path is otherwise used exactly as recorded on the import.
func (c *Client) Download(ctx context.Context, storagePath string) ([]byte, error) {
	if strings.HasPrefix(storagePath, "ftp://") {
		return c.ftp.Download(ctx, storagePath)
	}

	if c.baseURL == "" || c.serviceKey == "" {
		return nil, eris.New("storage: base_url and service_key must be configured")
	}

	objectPath := strings.TrimLeft(storagePath, "/")
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "storage: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "storage: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("apikey", c.serviceKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("storage: request failed, retrying",
				zap.String("path", objectPath),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			lastErr = eris.Errorf("storage: %d from %s/%s: %s", resp.StatusCode, c.bucket, objectPath, body)
			zap.L().Warn("storage: server error, retrying",
				zap.String("path", objectPath),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, eris.Errorf("storage: download %s/%s: status %d: %s",
				c.bucket, objectPath, resp.StatusCode, body)
		}

		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "storage: read body for %s/%s", c.bucket, objectPath)
		}
		return data, nil
	}

	return nil, eris.Wrapf(lastErr, "storage: all retries exhausted for %s/%s", c.bucket, objectPath)
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 15 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
