package main

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/reel-o-bot/reel/redditapi"
)

type Config struct {
	ThreadID string

	OutDir  string
	WorkDir string

	Voice      string
	VoiceModel string
	VoiceName  string
	VoiceSpeed float64
	SpeechURL  string
	APIKey     string

	RenderURL string
	FFmpeg    string

	MaxInFlight    int
	SegmentTimeout time.Duration
	MaxComments    int

	FilterFile      string
	RefreshInterval time.Duration
	UserAgent       string

	PrintRenderSchema bool
	Verbose           bool
}

func (c Config) Validate() error {
	if c.PrintRenderSchema {
		return nil
	}
	if strings.TrimSpace(c.ThreadID) == "" {
		return errors.New("missing thread id (usage: reel-o-bot [flags] <thread-id>)")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.WorkDir == "" {
		return errors.New("missing -work-dir")
	}
	switch c.Voice {
	case "openai":
		if c.VoiceModel == "" || c.VoiceName == "" {
			return errors.New("-voice openai needs -voice-model and -voice-name")
		}
	case "http":
		if c.SpeechURL == "" {
			return errors.New("-voice http needs -speech-url")
		}
	default:
		return errors.New("-voice must be openai or http")
	}
	if c.VoiceSpeed < 0 {
		return errors.New("voice-speed must be >= 0")
	}
	if c.RenderURL == "" {
		return errors.New("missing -render-url")
	}
	if c.FFmpeg == "" {
		return errors.New("missing -ffmpeg")
	}
	if c.MaxInFlight < 0 {
		return errors.New("max-in-flight must be >= 0")
	}
	if c.SegmentTimeout < 0 {
		return errors.New("segment-timeout must be >= 0")
	}
	if c.MaxComments < 0 {
		return errors.New("max-comments must be >= 0")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("refresh-interval must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		OutDir:          filepath.FromSlash("out"),
		WorkDir:         filepath.FromSlash("out/work"),
		Voice:           "openai",
		VoiceModel:      "gpt-4o-mini-tts",
		VoiceName:       "onyx",
		VoiceSpeed:      1.05,
		RenderURL:       "http://localhost:3000/screenshot",
		FFmpeg:          "ffmpeg",
		MaxInFlight:     0,
		SegmentTimeout:  2 * time.Minute,
		MaxComments:     0,
		RefreshInterval: redditapi.DefaultRefreshInterval,
	}
}
