package reel

import "time"

// ItemState is the lifecycle of one item's video.
type ItemState string

const (
	StateSegmenting ItemState = "segmenting"
	StateFannedOut  ItemState = "fanned_out"
	StateAssembling ItemState = "assembling"
	StateDone       ItemState = "done"
	StateFailed     ItemState = "failed"
)

// Observer receives progress events. Implementations must be safe for concurrent use:
// OnSegmentDone is called from segment goroutines.
type Observer interface {
	OnItemState(item string, state ItemState, fields map[string]any)
	OnSegmentDone(item string, index, total int, err error, dur time.Duration)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnItemState(string, ItemState, map[string]any) {}
func (NopObserver) OnSegmentDone(string, int, int, error, time.Duration) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
