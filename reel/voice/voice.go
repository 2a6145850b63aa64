// Package voice turns narration text into audio files. A Mux picks one of several named
// backends and writes each clip's audio into a work directory.
package voice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/fileutils"
)

// Audio is raw synthesized speech.
type Audio struct {
	Data   []byte
	Format string // file extension, e.g. "mp3"
}

// Backend is one speech engine.
type Backend interface {
	Name() string
	Speak(ctx context.Context, text string) (Audio, error)
}

// Mux routes synthesis to a named backend and stores the result as <dir>/<clip>.<format>.
type Mux struct {
	dir      string
	def      string
	backends map[string]Backend
}

var _ reel.Synthesizer = (*Mux)(nil)

func NewMux(dir, defaultName string, backends ...Backend) (*Mux, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("NewMux: dir is empty")
	}
	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		if b == nil {
			return nil, errors.New("NewMux: nil backend")
		}
		name := normalize(b.Name())
		if name == "" {
			return nil, errors.New("NewMux: backend has no name")
		}
		if _, ok := byName[name]; ok {
			return nil, fmt.Errorf("NewMux: duplicate backend %q", name)
		}
		byName[name] = b
	}
	def := normalize(defaultName)
	if _, ok := byName[def]; !ok {
		return nil, fmt.Errorf("NewMux: default backend %q is not registered (have %s)", defaultName, strings.Join(names(byName), ", "))
	}
	return &Mux{dir: dir, def: def, backends: byName}, nil
}

// Backend reports the name of the backend Synthesize will use.
func (m *Mux) Backend() string { return m.def }

// Synthesize returns reel.ErrEmptyNarration when text has no letter or number, without
// calling any backend.
func (m *Mux) Synthesize(ctx context.Context, clipName, text string) (reel.AudioHandle, error) {
	if !reel.HasNarration(text) {
		return reel.AudioHandle{}, reel.ErrEmptyNarration
	}
	if clipName == "" || strings.ContainsAny(clipName, `/\`) {
		return reel.AudioHandle{}, fmt.Errorf("Synthesize: invalid clip name %q", clipName)
	}

	b := m.backends[m.def]
	audio, err := b.Speak(ctx, text)
	if err != nil {
		return reel.AudioHandle{}, fmt.Errorf("Synthesize %s (%s): %w", clipName, b.Name(), err)
	}
	if len(audio.Data) == 0 {
		return reel.AudioHandle{}, fmt.Errorf("Synthesize %s (%s): backend returned no audio", clipName, b.Name())
	}
	format := audio.Format
	if format == "" {
		format = "mp3"
	}

	path := filepath.Join(m.dir, clipName+"."+format)
	if err := fileutils.WriteFileAtomic(path, audio.Data, 0o644); err != nil {
		return reel.AudioHandle{}, fmt.Errorf("Synthesize %s: %w", clipName, err)
	}
	return reel.AudioHandle{Path: path}, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func names(m map[string]Backend) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
