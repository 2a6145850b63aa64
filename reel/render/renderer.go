package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/fileutils"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/httpx"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type screenshotOptions struct {
	Type           string `json:"type"`
	OmitBackground bool   `json:"omitBackground"`
}

type screenshotRequest struct {
	HTML     string            `json:"html"`
	Options  screenshotOptions `json:"options"`
	Selector string            `json:"selector,omitempty"`
}

// HTTPRenderer posts filled pages to a headless-browser screenshot service
// (browserless-style /screenshot) and stores the PNG as <Dir>/<name>.png.
type HTTPRenderer struct {
	HTTP *http.Client
	URL  string
	Dir  string

	// Selector limits the screenshot to the card element.
	Selector string
}

var _ reel.Renderer = (*HTTPRenderer)(nil)

func (r *HTTPRenderer) Render(ctx context.Context, name string, req reel.RenderRequest) (reel.ImageHandle, error) {
	if strings.TrimSpace(r.URL) == "" || strings.TrimSpace(r.Dir) == "" {
		return reel.ImageHandle{}, errors.New("Render: url and dir must be set")
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return reel.ImageHandle{}, fmt.Errorf("Render: invalid name %q", name)
	}

	page, err := FillTemplate(req)
	if err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}
	selector := r.Selector
	if selector == "" {
		selector = ".post, .comment"
	}
	body, err := json.Marshal(screenshotRequest{
		HTML:     page,
		Options:  screenshotOptions{Type: "png"},
		Selector: selector,
	})
	if err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	hc := r.HTTP
	if hc == nil {
		hc = httpx.NewClient("", 0)
	}
	resp, err := hc.Do(hreq)
	if err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}
	if err := httpx.CheckResponse(resp); err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}
	defer resp.Body.Close()

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: read: %w", name, err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: response is not a PNG (%d bytes)", name, len(img))
	}

	path := filepath.Join(r.Dir, name+".png")
	if err := fileutils.WriteFileAtomic(path, img, 0o644); err != nil {
		return reel.ImageHandle{}, fmt.Errorf("Render %s: %w", name, err)
	}
	return reel.ImageHandle{Path: path}, nil
}
