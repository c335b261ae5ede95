package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultTimeout bounds one request attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds a whole archive download.
	DefaultDownloadTimeout = 10 * time.Minute

	chunkSize = 64 * 1024
)

// RetryPolicy bounds GetWithRetry. The delay doubles after every failed
// attempt; there is no jitter.
type RetryPolicy struct {
	MaxRetries   int           // total attempts
	InitialDelay time.Duration // wait before the second attempt
	Timeout      time.Duration // per attempt; zero means the client default
}

// DefaultRetryPolicy is three attempts starting at one second.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}

// Response is a fully read successful response.
type Response struct {
	StatusCode int
	Body       []byte
	// URL is the final URL after redirects.
	URL string
}

// Client issues the requests. The zero value is not usable; call New.
type Client struct {
	httpClient      *http.Client
	userAgent       string
	timeout         time.Duration
	downloadTimeout time.Duration

	// Sleep waits between attempts. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called once per scheduled retry.
	OnRetry func()
	Logger  *slog.Logger
}

// New creates a client. Zero timeouts select the defaults.
func New(userAgent string, timeout, downloadTimeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	return &Client{
		// Timeouts are applied per call through the request context.
		httpClient:      &http.Client{},
		userAgent:       userAgent,
		timeout:         timeout,
		downloadTimeout: downloadTimeout,
		Sleep:           sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// GetWithRetry fetches url, retrying network errors and non-2xx responses
// up to policy.MaxRetries attempts in total. After the last failure it
// returns a *ConnectionError. Cancelling ctx stops immediately.
func (c *Client) GetWithRetry(ctx context.Context, url string, policy RetryPolicy) (*Response, error) {
	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	delay := policy.InitialDelay
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.get(ctx, url, timeout)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("GET %s: %w", url, ctx.Err())
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		c.log().Warn("request failed, retrying",
			"url", url, "attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)
		if c.OnRetry != nil {
			c.OnRetry()
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("GET %s: %w", url, err)
		}
		delay *= 2
	}

	return nil, &ConnectionError{URL: url, Attempts: attempts, Err: lastErr}
}

// get performs one attempt bounded by timeout.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body, URL: resp.Request.URL.String()}, nil
}

// do sends a GET and rejects non-2xx statuses. The caller closes the body.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// ProgressFunc receives the download percentage each time it changes.
type ProgressFunc func(percent int)

// Download streams url into destPath in 64 KiB chunks and returns the number
// of bytes written. Progress is reported only when the server sends a
// Content-Length. Redirects are followed. The request is not retried, and a
// partially written file is left for the caller to discard.
func (c *Client) Download(ctx context.Context, url, destPath string, progress ProgressFunc) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w: %w", url, ErrNetwork, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	total := resp.ContentLength
	var downloaded int64
	lastPercent := -1

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return downloaded, fmt.Errorf("writing download: %w", writeErr)
			}
			downloaded += int64(n)
			if total > 0 && progress != nil {
				percent := int(downloaded * 100 / total)
				if percent != lastPercent {
					progress(percent)
					lastPercent = percent
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("reading download stream: %w: %w", ErrNetwork, readErr)
		}
	}

	if err := f.Close(); err != nil {
		return downloaded, fmt.Errorf("closing download file: %w", err)
	}
	c.log().Info("download complete", "url", url, "path", destPath, "bytes", downloaded)
	return downloaded, nil
}
