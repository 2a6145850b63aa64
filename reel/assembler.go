package reel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SegmentFunc produces the clip for one index.
type SegmentFunc func(ctx context.Context, index int) (SegmentClip, error)

// Assembler fans out segment tasks and concatenates their clips in index order.
type Assembler struct {
	Media MediaAssembler

	// MaxInFlight caps concurrently running segment tasks (0 runs all at once).
	MaxInFlight int

	Observer Observer
}

// Assemble runs n segment tasks, waits for every one to settle, and concatenates the clips
// by index, never by completion order. Any failed segment fails the whole item; the
// lowest failing index is reported and sibling results are discarded.
func (a *Assembler) Assemble(ctx context.Context, baseName string, n int, run SegmentFunc) (FinalVideo, error) {
	if a.Media == nil {
		return FinalVideo{}, errors.New("Assemble: media assembler is not set")
	}
	if run == nil {
		return FinalVideo{}, errors.New("Assemble: run is nil")
	}
	if n <= 0 {
		return FinalVideo{}, fmt.Errorf("Assemble %s: %w: no segments", baseName, ErrSegmentation)
	}
	obs := observerOrNop(a.Observer)

	limit := a.MaxInFlight
	if limit <= 0 || limit > n {
		limit = n
	}
	obs.OnItemState(baseName, StateFannedOut, map[string]any{"segments": n, "in_flight": limit})

	sem := make(chan struct{}, limit)
	clips := make([]SegmentClip, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
			}
			// Queued segments of a cancelled run never start.
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", ClipName(baseName, i), err)
				obs.OnSegmentDone(baseName, i, n, errs[i], 0)
				return
			}

			start := time.Now()
			clip, err := run(ctx, i)
			clip.Index = i
			clips[i], errs[i] = clip, err
			obs.OnSegmentDone(baseName, i, n, err, time.Since(start))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			obs.OnItemState(baseName, StateFailed, map[string]any{"index": i, "error": err.Error()})
			return FinalVideo{}, fmt.Errorf("Assemble %s: %w", baseName, err)
		}
	}

	obs.OnItemState(baseName, StateAssembling, map[string]any{"clips": n})
	video, err := a.Media.Concatenate(ctx, clips, baseName)
	if err != nil {
		obs.OnItemState(baseName, StateFailed, map[string]any{"error": err.Error()})
		return FinalVideo{}, fmt.Errorf("Assemble %s: %w", baseName, &SegmentError{Item: baseName, Index: -1, Stage: StageConcatenate, Err: err})
	}
	if video.Name == "" {
		video.Name = baseName
	}
	video.Segments = n
	obs.OnItemState(baseName, StateDone, map[string]any{"path": video.Path})
	return video, nil
}
