package reel

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProducer(content ContentProvider, r *fakeRenderer, s *fakeSynth, m *fakeMedia, maxComments int) *Producer {
	return NewProducer(ProducerConfig{
		Content:     content,
		Pipeline:    &SegmentPipeline{Renderer: r, Synthesizer: s, Media: m},
		Assembler:   &Assembler{Media: m},
		Filter:      DefaultContentFilter(),
		MaxComments: maxComments,
		Now:         func() time.Time { return fixedNow },
		UpvoteRoll:  func() float64 { return 0.5 },
	}, log.NewStdLogger(io.Discard))
}

func pizzaThread() Thread {
	return Thread{
		ID: "abc123",
		Question: SourceItem{
			Kind:      KindQuestion,
			ID:        "abc123",
			Author:    "pizza_fan",
			Score:     1200,
			CreatedAt: fixedNow.Add(-5 * time.Hour),
			BodyText:  "What is the best pizza topping? Be honest.",
		},
	}
}

func TestProduceThread_QuestionEndToEnd(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{delay: func(name string) time.Duration {
		if name == "Q-0" {
			return 30 * time.Millisecond
		}
		return 0
	}}
	s := &fakeSynth{}
	m := &fakeMedia{}
	p := newTestProducer(fakeContent{thread: pizzaThread()}, r, s, m, 0)

	rr, err := p.ProduceThread(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ProduceThread: %v", err)
	}
	if len(r.calls) != 2 {
		t.Fatalf("render calls=%d, want 2", len(r.calls))
	}
	if s.count() != 2 {
		t.Fatalf("synth calls=%d, want 2", s.count())
	}
	if s.texts["Q-0"] != "What is the best pizza topping? " || s.texts["Q-1"] != "Be honest." {
		t.Fatalf("synth texts=%v", s.texts)
	}
	if len(m.concats) != 1 || m.concats[0].name != QuestionBaseName {
		t.Fatalf("concats=%+v", m.concats)
	}
	clips := m.concats[0].clips
	if len(clips) != 2 || clips[0].Index != 0 || clips[1].Index != 1 {
		t.Fatalf("clips=%+v, want order [0,1]", clips)
	}
	if len(rr.Items) != 1 || rr.Items[0].Status != StateDone || rr.Items[0].Segments != 2 || rr.Items[0].Video != "Q.mp4" {
		t.Fatalf("report=%+v", rr.Items)
	}
	if rr.Failed() != 0 {
		t.Fatalf("Failed=%d", rr.Failed())
	}

	req, _ := r.requestFor("Q-0")
	if req.Score != "1.2k" || req.Time != "5 hours ago" || req.Upvoted {
		t.Fatalf("req=%+v", req)
	}
}

func TestProduceThread_EmptyNarrationDoesNotAbort(t *testing.T) {
	t.Parallel()

	thread := pizzaThread()
	thread.Comments = []SourceItem{{
		Kind:      KindComment,
		ID:        "c1",
		Author:    "someone",
		CreatedAt: fixedNow.Add(-time.Hour),
		BodyText:  "Hmm. ... Right.",
	}}
	r := &fakeRenderer{}
	s := &fakeSynth{}
	m := &fakeMedia{}
	p := newTestProducer(fakeContent{thread: thread}, r, s, m, 1)

	rr, err := p.ProduceThread(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ProduceThread: %v", err)
	}
	if len(rr.Items) != 2 || rr.Items[1].Status != StateDone || rr.Items[1].Segments != 3 {
		t.Fatalf("items=%+v", rr.Items)
	}
	var comment concatCall
	for _, c := range m.concats {
		if c.name == "0" {
			comment = c
		}
	}
	if len(comment.clips) != 3 {
		t.Fatalf("comment clips=%+v", comment.clips)
	}
	if comment.clips[0].Silent || !comment.clips[1].Silent || comment.clips[2].Silent {
		t.Fatalf("only the punctuation-only unit should be silent: %+v", comment.clips)
	}
}

func TestProduceThread_CommentFailureIsSkipped(t *testing.T) {
	t.Parallel()

	thread := pizzaThread()
	thread.Comments = []SourceItem{
		{Kind: KindComment, ID: "c1", BodyText: "Pineapple. Fight me."},
		{Kind: KindComment, ID: "c2", BodyText: "Mushrooms, obviously."},
		{Kind: KindComment, ID: "c3", BodyText: "Not rendered."},
	}
	r := &fakeRenderer{fail: map[string]error{"0-1": errors.New("render timeout")}}
	m := &fakeMedia{}
	p := newTestProducer(fakeContent{thread: thread}, r, &fakeSynth{}, m, 2)

	rr, err := p.ProduceThread(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ProduceThread: %v", err)
	}
	if len(rr.Items) != 3 {
		t.Fatalf("items=%d, want question + 2 comments", len(rr.Items))
	}
	if rr.Items[1].Status != StateFailed || rr.Items[1].Error == "" {
		t.Fatalf("comment 0=%+v, want failed", rr.Items[1])
	}
	if rr.Items[2].Status != StateDone {
		t.Fatalf("comment 1=%+v, want done", rr.Items[2])
	}
	for _, c := range m.concats {
		if c.name == "0" {
			t.Fatalf("failed comment produced a partial video")
		}
	}
	if rr.Failed() != 1 {
		t.Fatalf("Failed=%d, want 1", rr.Failed())
	}
}

func TestProduceThread_QuestionFailureAborts(t *testing.T) {
	t.Parallel()

	thread := pizzaThread()
	thread.Comments = []SourceItem{{Kind: KindComment, ID: "c1", BodyText: "Pineapple."}}
	r := &fakeRenderer{fail: map[string]error{"Q-1": errors.New("no chrome")}}
	m := &fakeMedia{}
	p := newTestProducer(fakeContent{thread: thread}, r, &fakeSynth{}, m, 5)

	rr, err := p.ProduceThread(context.Background(), "abc123")
	var se *SegmentError
	if !errors.As(err, &se) || se.Stage != StageRender || se.Index != 1 {
		t.Fatalf("err=%v, want render failure on Q-1", err)
	}
	if len(rr.Items) != 1 || rr.Items[0].Status != StateFailed {
		t.Fatalf("items=%+v", rr.Items)
	}
	if len(m.concats) != 0 {
		t.Fatalf("concats=%+v, want none", m.concats)
	}
}

func TestProduceThread_FetchFailureSurfaces(t *testing.T) {
	t.Parallel()

	expired := errors.New("credential expired")
	p := newTestProducer(fakeContent{err: expired}, &fakeRenderer{}, &fakeSynth{}, &fakeMedia{}, 0)
	_, err := p.ProduceThread(context.Background(), "abc123")
	if !errors.Is(err, expired) {
		t.Fatalf("err=%v, want fetch error", err)
	}
}

func TestProduceItem_ReportsSegmentingState(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	m := &fakeMedia{}
	p := NewProducer(ProducerConfig{
		Pipeline:  &SegmentPipeline{Renderer: &fakeRenderer{}, Synthesizer: &fakeSynth{}, Media: m},
		Assembler: &Assembler{Media: m, Observer: obs},
		Observer:  obs,
	}, nil)

	if _, err := p.ProduceItem(context.Background(), "Q", SourceItem{Kind: KindQuestion, BodyText: "   "}); !errors.Is(err, ErrSegmentation) {
		t.Fatalf("err=%v, want ErrSegmentation", err)
	}
	if _, err := p.ProduceItem(context.Background(), "0", SourceItem{Kind: KindComment, BodyText: "ok then."}); err != nil {
		t.Fatalf("ProduceItem: %v", err)
	}
	if got := obs.states["Q"]; len(got) != 2 || got[0] != StateSegmenting || got[1] != StateFailed {
		t.Fatalf("Q states=%v", got)
	}
	want := []ItemState{StateSegmenting, StateFannedOut, StateAssembling, StateDone}
	got := obs.states["0"]
	if len(got) != len(want) {
		t.Fatalf("0 states=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("0 states=%v, want %v", got, want)
		}
	}
}
