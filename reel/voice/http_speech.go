package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/theimaginaryfoundation/reel-o-bot/reel/httpx"
)

// HTTPSpeech speaks through a REST endpoint that takes {"text": ...} and answers with audio
// bytes, the shape Deepgram's /v1/speak uses.
type HTTPSpeech struct {
	HTTP  *http.Client
	URL   string
	Token string

	// Format is the extension of the returned audio; empty means "mp3".
	Format string
}

func (h *HTTPSpeech) Name() string { return "http" }

func (h *HTTPSpeech) Speak(ctx context.Context, text string) (Audio, error) {
	if strings.TrimSpace(h.URL) == "" {
		return Audio{}, errors.New("http speech: url is not set")
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Audio{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("http speech: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Token "+h.Token)
	}

	hc := h.HTTP
	if hc == nil {
		hc = httpx.NewClient("", 0)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("http speech: %w", err)
	}
	if err := httpx.CheckResponse(resp); err != nil {
		return Audio{}, fmt.Errorf("http speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, fmt.Errorf("http speech: read audio: %w", err)
	}
	format := h.Format
	if format == "" {
		format = "mp3"
	}
	return Audio{Data: data, Format: format}, nil
}
