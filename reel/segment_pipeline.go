package reel

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ClipName is the unique name of segment index within the item named base.
func ClipName(base string, index int) string {
	return fmt.Sprintf("%s-%d", base, index)
}

// SegmentJob is the input of one segment task.
type SegmentJob struct {
	BaseName string
	Index    int
	Total    int
	Frame    RevealFrame
	Header   ItemHeader
}

// SegmentPipeline turns one reveal frame into one clip.
type SegmentPipeline struct {
	Renderer    Renderer
	Synthesizer Synthesizer
	Media       MediaAssembler

	// TaskTimeout bounds each render and synthesize call (0 disables it).
	TaskTimeout time.Duration
}

// RunSegment renders and synthesizes concurrently, then joins both into a clip.
// An empty narration yields a silent clip; every other failure is a *SegmentError.
func (p *SegmentPipeline) RunSegment(ctx context.Context, job SegmentJob) (SegmentClip, error) {
	if p.Renderer == nil || p.Synthesizer == nil || p.Media == nil {
		return SegmentClip{}, errors.New("RunSegment: pipeline collaborators are not set")
	}

	name := ClipName(job.BaseName, job.Index)
	req := job.Header.Request(job.Frame, job.Index == job.Total-1)

	img, audio, err := Join(ctx,
		func(ctx context.Context) (ImageHandle, error) {
			ctx, cancel := p.taskContext(ctx)
			defer cancel()
			img, err := p.Renderer.Render(ctx, name, req)
			if err != nil {
				return ImageHandle{}, &SegmentError{Item: job.BaseName, Index: job.Index, Stage: StageRender, Err: err}
			}
			return img, nil
		},
		func(ctx context.Context) (AudioHandle, error) {
			ctx, cancel := p.taskContext(ctx)
			defer cancel()
			audio, err := p.Synthesizer.Synthesize(ctx, name, job.Frame.NarrationText)
			if errors.Is(err, ErrEmptyNarration) {
				return AudioHandle{Silent: true}, nil
			}
			if err != nil {
				return AudioHandle{}, &SegmentError{Item: job.BaseName, Index: job.Index, Stage: StageSynthesize, Err: err}
			}
			return audio, nil
		},
	)
	if err != nil {
		return SegmentClip{}, err
	}

	clip, err := p.Media.MakeClip(ctx, name, img, audio)
	if err != nil {
		return SegmentClip{}, &SegmentError{Item: job.BaseName, Index: job.Index, Stage: StageClip, Err: err}
	}
	clip.Index = job.Index
	if clip.Name == "" {
		clip.Name = name
	}
	clip.Silent = clip.Silent || audio.Silent
	return clip, nil
}

func (p *SegmentPipeline) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.TaskTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.TaskTimeout)
}
