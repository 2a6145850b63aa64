package httpx

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/theimaginaryfoundation/reel-o-bot/reel/fileutils"
)

// StatusError is a non-2xx response from a remote service.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, body)
}

// CheckResponse returns nil for a 2xx response. Otherwise it drains a short prefix of the
// body into a *StatusError and closes the body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       fileutils.Truncate(string(b), 200),
	}
}
