package reel

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrSegmentation means a body yielded no units at all.
	ErrSegmentation = errors.New("text cannot be segmented")

	// ErrEmptyNarration is returned by synthesizers when the text has no letter or number.
	// It is expected: the segment becomes a silent clip instead of failing the item.
	ErrEmptyNarration = errors.New("narration has no letter or number")
)

var narratableRe = regexp.MustCompile(`[\p{L}\p{N}]`)

// HasNarration reports whether text contains anything a voice could read.
func HasNarration(text string) bool {
	return narratableRe.MatchString(text)
}

// Stage names the collaborator call a segment failed in.
type Stage string

const (
	StageRender      Stage = "render"
	StageSynthesize  Stage = "synthesize"
	StageClip        Stage = "clip"
	StageConcatenate Stage = "concatenate"
)

// SegmentError is a fatal collaborator failure. Index is -1 for the concatenate stage.
type SegmentError struct {
	Item  string
	Index int
	Stage Stage
	Err   error
}

func (e *SegmentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s %s: %v", e.Item, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", ClipName(e.Item, e.Index), e.Stage, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }
