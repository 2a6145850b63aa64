package reel

import "context"

// ImageHandle points at a rendered frame image.
type ImageHandle struct {
	Path string `json:"path"`
}

// AudioHandle points at synthesized narration. Silent handles have no Path.
type AudioHandle struct {
	Path   string `json:"path,omitempty"`
	Silent bool   `json:"silent,omitempty"`
}

// SegmentClip is one image+audio clip. Index is set by the pipeline.
type SegmentClip struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Silent bool   `json:"silent,omitempty"`
}

// FinalVideo is the concatenation of an item's clips in index order.
type FinalVideo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Segments int    `json:"segments"`
}

// ContentProvider fetches a thread. Failures must be returned, never an empty thread.
type ContentProvider interface {
	FetchThread(ctx context.Context, threadID string) (Thread, error)
}

// Renderer turns a render request into a frame image.
type Renderer interface {
	Render(ctx context.Context, name string, req RenderRequest) (ImageHandle, error)
}

// Synthesizer turns narration text into audio. It returns ErrEmptyNarration when
// HasNarration(text) is false.
type Synthesizer interface {
	Synthesize(ctx context.Context, clipName, text string) (AudioHandle, error)
}

// MediaAssembler encodes clips and joins them.
type MediaAssembler interface {
	MakeClip(ctx context.Context, name string, image ImageHandle, audio AudioHandle) (SegmentClip, error)
	Concatenate(ctx context.Context, clips []SegmentClip, outputName string) (FinalVideo, error)
}
