// Package httpx holds the HTTP policy shared by the reddit, speech and screenshot adapters:
// a fixed User-Agent and a bounded retry for replayable requests.
package httpx

import (
	"errors"
	"net/http"
	"time"
)

const (
	DefaultTimeout  = 60 * time.Second
	DefaultRetryMax = 2

	// DefaultUserAgent follows reddit's "<platform>:<app id>:<version>" convention.
	DefaultUserAgent = "go:reel-o-bot:v0.1 (by /u/reel-o-bot)"
)

// Transport sets the User-Agent and retries GET/HEAD requests without a body on transport
// errors and 5xx responses.
type Transport struct {
	Base http.RoundTripper

	UserAgent string

	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	// Backoff is the wait before retry n (1-based). Nil retries immediately.
	Backoff func(n int) time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 && t.Backoff != nil {
			select {
			case <-time.After(t.Backoff(attempt)):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			if resp.StatusCode < 500 || attempt == max {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
			continue
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewClient builds a client with the shared retry policy. An empty userAgent uses
// DefaultUserAgent; a zero timeout uses DefaultTimeout.
func NewClient(userAgent string, timeout time.Duration) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{
			Base:      base,
			UserAgent: userAgent,
			RetryMax:  DefaultRetryMax,
			Backoff:   func(n int) time.Duration { return time.Duration(n) * 500 * time.Millisecond },
		},
		Timeout: timeout,
	}
}
