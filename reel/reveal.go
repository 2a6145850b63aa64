package reel

import (
	"fmt"
	"html"
	"strings"
)

// InvisibleClass is the CSS class renderer templates must hide with visibility:hidden,
// so hidden units keep their place in the layout.
const InvisibleClass = "invis"

// RevealFrame is the markup and narration for one reveal step.
type RevealFrame struct {
	CurrentIndex  int    `json:"current_index"`
	Markup        string `json:"markup"`
	NarrationText string `json:"narration_text"`
}

func hideSpan(s string) string {
	return `<span class="` + InvisibleClass + `">` + s + `</span>`
}

// Mask builds the frame for current: units at or before current are visible, later units
// are present but hidden, and only unit[current] is narrated.
func Mask(script Script, current int, filter *ContentFilter) (RevealFrame, error) {
	if current < 0 || current >= len(script.Units) {
		return RevealFrame{}, fmt.Errorf("Mask: index %d out of range [0,%d)", current, len(script.Units))
	}

	var b strings.Builder
	open := -1
	for _, u := range script.Units {
		if script.Layout == LayoutParagraphs && u.Paragraph != open {
			if open >= 0 {
				b.WriteString("</p>")
			}
			b.WriteString("<p>")
			open = u.Paragraph
		}
		text := html.EscapeString(filter.Filter(u.RawText))
		if u.Index > current {
			text = hideSpan(text)
		}
		b.WriteString(text)
	}
	if open >= 0 {
		b.WriteString("</p>")
	}

	return RevealFrame{
		CurrentIndex:  current,
		Markup:        b.String(),
		NarrationText: filter.Filter(script.Units[current].RawText),
	}, nil
}
