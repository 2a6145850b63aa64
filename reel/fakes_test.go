package reel

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls []RenderRequest
	names []string

	delay func(name string) time.Duration
	fail  map[string]error
}

func (r *fakeRenderer) Render(ctx context.Context, name string, req RenderRequest) (ImageHandle, error) {
	if r.delay != nil {
		select {
		case <-time.After(r.delay(name)):
		case <-ctx.Done():
			return ImageHandle{}, ctx.Err()
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.names = append(r.names, name)
	r.mu.Unlock()
	if err := r.fail[name]; err != nil {
		return ImageHandle{}, err
	}
	return ImageHandle{Path: name + ".png"}, nil
}

func (r *fakeRenderer) requestFor(name string) (RenderRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.names {
		if n == name {
			return r.calls[i], true
		}
	}
	return RenderRequest{}, false
}

type fakeSynth struct {
	mu    sync.Mutex
	texts map[string]string

	delay func(name string) time.Duration
	fail  map[string]error
}

func (s *fakeSynth) Synthesize(ctx context.Context, clipName, text string) (AudioHandle, error) {
	if s.delay != nil {
		select {
		case <-time.After(s.delay(clipName)):
		case <-ctx.Done():
			return AudioHandle{}, ctx.Err()
		}
	}
	s.mu.Lock()
	if s.texts == nil {
		s.texts = map[string]string{}
	}
	s.texts[clipName] = text
	s.mu.Unlock()
	if !HasNarration(text) {
		return AudioHandle{}, ErrEmptyNarration
	}
	if err := s.fail[clipName]; err != nil {
		return AudioHandle{}, err
	}
	return AudioHandle{Path: clipName + ".mp3"}, nil
}

func (s *fakeSynth) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

type concatCall struct {
	name  string
	clips []SegmentClip
}

type fakeMedia struct {
	mu      sync.Mutex
	made    []SegmentClip
	concats []concatCall

	failConcat error
}

func (m *fakeMedia) MakeClip(ctx context.Context, name string, image ImageHandle, audio AudioHandle) (SegmentClip, error) {
	if image.Path == "" {
		return SegmentClip{}, errors.New("no image")
	}
	clip := SegmentClip{Name: name, Path: name + ".mp4", Silent: audio.Silent}
	m.mu.Lock()
	m.made = append(m.made, clip)
	m.mu.Unlock()
	return clip, nil
}

func (m *fakeMedia) Concatenate(ctx context.Context, clips []SegmentClip, outputName string) (FinalVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.concats = append(m.concats, concatCall{name: outputName, clips: append([]SegmentClip(nil), clips...)})
	if m.failConcat != nil {
		return FinalVideo{}, m.failConcat
	}
	return FinalVideo{Name: outputName, Path: outputName + ".mp4"}, nil
}

type fakeContent struct {
	thread Thread
	err    error
}

func (c fakeContent) FetchThread(ctx context.Context, threadID string) (Thread, error) {
	if c.err != nil {
		return Thread{}, c.err
	}
	return c.thread, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	states map[string][]ItemState
	done   int
}

func (o *recordingObserver) OnItemState(item string, state ItemState, fields map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.states == nil {
		o.states = map[string][]ItemState{}
	}
	o.states[item] = append(o.states[item], state)
}

func (o *recordingObserver) OnSegmentDone(item string, index, total int, err error, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done++
}
