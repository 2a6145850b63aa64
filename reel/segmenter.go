package reel

import (
	"fmt"
	"regexp"
	"strings"
)

// A boundary is a run of clause punctuation followed by a run of whitespace.
var boundaryRe = regexp.MustCompile(`[,.?!]+\s+`)

// Layout decides how reveal markup is grouped.
type Layout int

const (
	// LayoutFlat concatenates every unit into one block (questions).
	LayoutFlat Layout = iota
	// LayoutParagraphs wraps each source line in its own <p> (comments).
	LayoutParagraphs
)

// Unit is one clause-level slice of source text.
type Unit struct {
	Index     int    `json:"index"`
	Paragraph int    `json:"paragraph"`
	RawText   string `json:"raw_text"`
}

// Script is the immutable, flattened unit sequence of one item.
type Script struct {
	Layout     Layout
	Paragraphs int
	Units      []Unit
}

// SegmentText partitions text at clause boundaries. Each unit ends with its boundary
// (punctuation plus trailing whitespace); the tail after the last boundary is always the
// final unit, even when empty. Concatenating the result reproduces text exactly.
func SegmentText(text string) []string {
	locs := boundaryRe.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	last := 0
	for _, loc := range locs {
		out = append(out, text[last:loc[1]])
		last = loc[1]
	}
	return append(out, text[last:])
}

// SplitParagraphs splits a body into its non-blank lines.
func SplitParagraphs(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// BuildScript trims body, segments it per layout, and assigns global indices in
// paragraph-then-clause order. Empty units reveal nothing and are not indexed.
func BuildScript(body string, layout Layout) (Script, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Script{}, fmt.Errorf("BuildScript: %w: body is empty", ErrSegmentation)
	}

	paragraphs := []string{body}
	if layout == LayoutParagraphs {
		paragraphs = SplitParagraphs(body)
	}

	s := Script{Layout: layout, Paragraphs: len(paragraphs)}
	for pi, p := range paragraphs {
		for _, raw := range SegmentText(p) {
			if raw == "" {
				continue
			}
			s.Units = append(s.Units, Unit{Index: len(s.Units), Paragraph: pi, RawText: raw})
		}
	}
	if len(s.Units) == 0 {
		return Script{}, fmt.Errorf("BuildScript: %w: no units", ErrSegmentation)
	}
	return s, nil
}
