package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetryAfter  = 30 * time.Second
)

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// jsonClient posts JSON with bounded exponential backoff.
type jsonClient struct {
	http       *http.Client
	maxRetries int
}

func newJSONClient(timeout time.Duration, maxRetries int) *jsonClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &jsonClient{http: &http.Client{Timeout: timeout}, maxRetries: maxRetries}
}

func (c *jsonClient) postJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt >= c.maxRetries {
				return err
			}
			if err := sleep(ctx, retryDelay(attempt)); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryAfter(resp.Header.Get("Retry-After"), attempt)
			statusErr := readStatusError(resp)
			if attempt >= c.maxRetries {
				return statusErr
			}
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode >= 300 {
			return readStatusError(resp)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func readStatusError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

// retryDelay is exponential from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func retryAfter(header string, attempt int) time.Duration {
	if header == "" {
		return retryDelay(attempt)
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return retryDelay(attempt)
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
