package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// OpenAI speaks through the audio/speech endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
	speed  float64

	// Waits before each retry, by error class. The number of entries bounds the retries.
	RateLimitWaits   []time.Duration
	ServerErrorWaits []time.Duration
}

func NewOpenAI(client *openai.Client, model, voice string, speed float64) *OpenAI {
	return &OpenAI{
		client:           client,
		model:            model,
		voice:            voice,
		speed:            speed,
		RateLimitWaits:   []time.Duration{20 * time.Second, 40 * time.Second},
		ServerErrorWaits: []time.Duration{2 * time.Second, 10 * time.Second},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Speak(ctx context.Context, text string) (Audio, error) {
	if o.client == nil {
		return Audio{}, errors.New("openai: client is not set")
	}
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if o.speed > 0 {
		params.Speed = openai.Float(o.speed)
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		return Audio{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, fmt.Errorf("openai: read audio: %w", err)
	}
	return Audio{Data: data, Format: "mp3"}, nil
}

func (o *OpenAI) callWithRetry(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error) {
	var rl, se int
	for {
		resp, err := o.client.Audio.Speech.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		var wait time.Duration
		switch {
		case isRateLimitError(err) && rl < len(o.RateLimitWaits):
			wait = o.RateLimitWaits[rl]
			rl++
		case isServerError(err) && se < len(o.ServerErrorWaits):
			wait = o.ServerErrorWaits[se]
			se++
		default:
			return nil, err
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
