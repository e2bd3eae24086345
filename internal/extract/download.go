package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/retry"
	"notesum-backend/internal/shared/telemetry"
)

const defaultMaxDownloadBytes = 200 << 20

// Downloader fetches signed blob URLs. Freshly uploaded objects can 404 for a
// few seconds, so only 404 responses are retried.
type Downloader struct {
	Client   *http.Client
	Policy   retry.Policy
	MaxBytes int64
}

// NewDownloader builds a downloader with the storage-lag retry policy.
func NewDownloader(client *http.Client, policy retry.Policy) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Downloader{Client: client, Policy: policy, MaxBytes: defaultMaxDownloadBytes}
}

// Open returns the response body and its content type.
func (d *Downloader) Open(ctx context.Context, url string) (io.ReadCloser, string, error) {
	var resp *http.Response
	err := retry.Do(ctx, d.Policy, isNotFound, func(attempt int, delay time.Duration, err error) {
		telemetry.Warn("download.retry", map[string]any{
			"attempt":    attempt,
			"delay_ms":   delay.Milliseconds(),
			"request_id": telemetry.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
	}, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return failure.Wrap(failure.InvalidInput, "download", err)
		}
		r, err := d.Client.Do(req)
		if err != nil {
			return failure.Wrap(failure.FetchFailed, "download", err)
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
			r.Body.Close()
			return failure.Upstream(failure.FetchFailed, "download", r.StatusCode, string(body))
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	body := resp.Body
	if d.MaxBytes > 0 {
		body = limitedBody{Reader: io.LimitReader(resp.Body, d.MaxBytes), Closer: resp.Body}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Bytes downloads the whole object into memory.
func (d *Downloader) Bytes(ctx context.Context, url string) ([]byte, error) {
	body, _, err := d.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, failure.Wrap(failure.FetchFailed, "download", fmt.Errorf("read body: %w", err))
	}
	return data, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}

func isNotFound(err error) bool {
	return failure.StatusOf(err) == http.StatusNotFound
}
