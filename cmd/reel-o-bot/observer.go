package main

import (
	"sort"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
)

// progressObserver turns pipeline events into log lines.
type progressObserver struct {
	log *log.Helper
}

func (o progressObserver) OnItemState(item string, state reel.ItemState, fields map[string]any) {
	kv := []any{"msg", "item " + string(state), "item", item}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	if state == reel.StateFailed {
		o.log.Warnw(kv...)
		return
	}
	o.log.Infow(kv...)
}

func (o progressObserver) OnSegmentDone(item string, index, total int, err error, dur time.Duration) {
	if err != nil {
		o.log.Warnw("msg", "segment failed", "clip", reel.ClipName(item, index), "total", total, "err", err)
		return
	}
	o.log.Debugw("msg", "segment done", "clip", reel.ClipName(item, index), "total", total, "took", dur.Round(time.Millisecond).String())
}
