package reel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// QuestionBaseName names the question video; comment videos are named by their position.
const QuestionBaseName = "Q"

// ItemReport is the outcome of one item.
type ItemReport struct {
	Name       string    `json:"name"`
	Kind       ItemKind  `json:"kind"`
	SourceID   string    `json:"source_id,omitempty"`
	Status     ItemState `json:"status"`
	Segments   int       `json:"segments"`
	Video      string    `json:"video,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// RunReport is the outcome of one thread.
type RunReport struct {
	ThreadID   string       `json:"thread_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      []ItemReport `json:"items"`
}

// Failed counts failed items.
func (r RunReport) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == StateFailed {
			n++
		}
	}
	return n
}

// ProducerConfig wires a Producer.
type ProducerConfig struct {
	Content   ContentProvider
	Pipeline  *SegmentPipeline
	Assembler *Assembler
	Filter    *ContentFilter
	Observer  Observer

	// MaxComments caps how many comments get a video after the question (0 = none).
	MaxComments int

	// Now and UpvoteRoll default to time.Now and rand.Float64.
	Now        func() time.Time
	UpvoteRoll func() float64
}

// Producer drives items through segmentation and assembly, strictly one item at a time.
type Producer struct {
	cfg ProducerConfig
	log *log.Helper
}

// NewProducer builds a Producer.
func NewProducer(cfg ProducerConfig, logger log.Logger) *Producer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UpvoteRoll == nil {
		cfg.UpvoteRoll = rand.Float64
	}
	cfg.Observer = observerOrNop(cfg.Observer)
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Producer{cfg: cfg, log: log.NewHelper(log.With(logger, "module", "reel/producer"))}
}

// ProduceThread renders the question and then up to MaxComments comments. A failed
// question aborts the run; a failed comment is logged and the next one starts.
func (p *Producer) ProduceThread(ctx context.Context, threadID string) (RunReport, error) {
	rr := RunReport{ThreadID: threadID, StartedAt: p.cfg.Now().UTC()}

	if p.cfg.Content == nil {
		return rr, errors.New("ProduceThread: content provider is not set")
	}
	thread, err := p.cfg.Content.FetchThread(ctx, threadID)
	if err != nil {
		rr.FinishedAt = p.cfg.Now().UTC()
		return rr, fmt.Errorf("ProduceThread: fetch %s: %w", threadID, err)
	}
	p.log.Infow("msg", "fetched thread", "thread", threadID, "comments", len(thread.Comments))

	qr, err := p.ProduceItem(ctx, QuestionBaseName, thread.Question)
	rr.Items = append(rr.Items, qr)
	if err != nil {
		rr.FinishedAt = p.cfg.Now().UTC()
		return rr, fmt.Errorf("ProduceThread: question: %w", err)
	}

	comments := thread.Comments
	if len(comments) > p.cfg.MaxComments {
		comments = comments[:max(p.cfg.MaxComments, 0)]
	}
	for i, c := range comments {
		if err := ctx.Err(); err != nil {
			rr.FinishedAt = p.cfg.Now().UTC()
			return rr, fmt.Errorf("ProduceThread: %w", err)
		}
		r, err := p.ProduceItem(ctx, strconv.Itoa(i), c)
		rr.Items = append(rr.Items, r)
		if err != nil {
			p.log.Errorw("msg", "comment failed", "item", r.Name, "comment", c.ID, "err", err)
			continue
		}
		p.log.Infow("msg", "rendered comment", "item", r.Name, "video", r.Video)
	}

	rr.FinishedAt = p.cfg.Now().UTC()
	return rr, nil
}

// ProduceItem builds one item's video under baseName.
func (p *Producer) ProduceItem(ctx context.Context, baseName string, item SourceItem) (ItemReport, error) {
	start := time.Now()
	rep := ItemReport{Name: baseName, Kind: item.Kind, SourceID: item.ID}
	fail := func(err error) (ItemReport, error) {
		rep.Status = StateFailed
		rep.Error = err.Error()
		rep.DurationMS = time.Since(start).Milliseconds()
		return rep, err
	}

	if p.cfg.Pipeline == nil || p.cfg.Assembler == nil {
		return fail(errors.New("ProduceItem: pipeline or assembler is not set"))
	}

	p.cfg.Observer.OnItemState(baseName, StateSegmenting, map[string]any{"kind": string(item.Kind)})
	layout := LayoutFlat
	if item.Kind == KindComment {
		layout = LayoutParagraphs
	}
	script, err := BuildScript(item.BodyText, layout)
	if err != nil {
		p.cfg.Observer.OnItemState(baseName, StateFailed, map[string]any{"error": err.Error()})
		return fail(fmt.Errorf("ProduceItem %s: %w", baseName, err))
	}
	rep.Segments = len(script.Units)

	header := NewItemHeader(item, p.cfg.Now(), p.cfg.UpvoteRoll() < UpvoteRate)
	total := len(script.Units)
	video, err := p.cfg.Assembler.Assemble(ctx, baseName, total, func(ctx context.Context, i int) (SegmentClip, error) {
		frame, err := Mask(script, i, p.cfg.Filter)
		if err != nil {
			return SegmentClip{}, err
		}
		return p.cfg.Pipeline.RunSegment(ctx, SegmentJob{
			BaseName: baseName,
			Index:    i,
			Total:    total,
			Frame:    frame,
			Header:   header,
		})
	})
	if err != nil {
		return fail(fmt.Errorf("ProduceItem: %w", err))
	}

	rep.Status = StateDone
	rep.Video = video.Path
	rep.DurationMS = time.Since(start).Milliseconds()
	return rep, nil
}
