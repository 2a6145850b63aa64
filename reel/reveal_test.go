package reel

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestMask_QuestionFlatMarkup(t *testing.T) {
	t.Parallel()

	s, err := BuildScript("What is the best pizza topping? Be honest.", LayoutFlat)
	if err != nil {
		t.Fatalf("BuildScript: %v", err)
	}

	f0, err := Mask(s, 0, nil)
	if err != nil {
		t.Fatalf("Mask(0): %v", err)
	}
	want := `What is the best pizza topping? <span class="invis">Be honest.</span>`
	if f0.Markup != want {
		t.Fatalf("Markup=%q, want %q", f0.Markup, want)
	}
	if f0.NarrationText != "What is the best pizza topping? " {
		t.Fatalf("NarrationText=%q", f0.NarrationText)
	}

	f1, err := Mask(s, 1, nil)
	if err != nil {
		t.Fatalf("Mask(1): %v", err)
	}
	if f1.Markup != "What is the best pizza topping? Be honest." {
		t.Fatalf("Markup=%q", f1.Markup)
	}
	if f1.NarrationText != "Be honest." {
		t.Fatalf("NarrationText=%q, want only the newly revealed unit", f1.NarrationText)
	}
}

func TestMask_CommentParagraphMarkup(t *testing.T) {
	t.Parallel()

	s, err := BuildScript("First line. Second part\nNew para!", LayoutParagraphs)
	if err != nil {
		t.Fatalf("BuildScript: %v", err)
	}
	f, err := Mask(s, 1, nil)
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	want := `<p>First line. Second part</p><p><span class="invis">New para!</span></p>`
	if f.Markup != want {
		t.Fatalf("Markup=%q, want %q", f.Markup, want)
	}
}

func TestMask_Monotonic(t *testing.T) {
	t.Parallel()

	s, err := BuildScript("One, two. Three? Four!\nFive, six.\nSeven", LayoutParagraphs)
	if err != nil {
		t.Fatalf("BuildScript: %v", err)
	}
	n := len(s.Units)
	for cur := 0; cur < n; cur++ {
		f, err := Mask(s, cur, nil)
		if err != nil {
			t.Fatalf("Mask(%d): %v", cur, err)
		}
		if f.CurrentIndex != cur {
			t.Fatalf("CurrentIndex=%d, want %d", f.CurrentIndex, cur)
		}
		if f.NarrationText != s.Units[cur].RawText {
			t.Fatalf("cur=%d NarrationText=%q, want %q", cur, f.NarrationText, s.Units[cur].RawText)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.Markup))
		if err != nil {
			t.Fatalf("parse markup: %v", err)
		}
		hidden := doc.Find("span." + InvisibleClass)
		if hidden.Length() != n-1-cur {
			t.Fatalf("cur=%d hidden=%d, want %d", cur, hidden.Length(), n-1-cur)
		}
		if doc.Find("p").Length() != s.Paragraphs {
			t.Fatalf("cur=%d paragraphs=%d, want %d", cur, doc.Find("p").Length(), s.Paragraphs)
		}

		// All text is present regardless of visibility.
		var all strings.Builder
		for _, u := range s.Units {
			all.WriteString(u.RawText)
		}
		if got := doc.Text(); got != all.String() {
			t.Fatalf("cur=%d text=%q, want %q", cur, got, all.String())
		}

		var hiddenText strings.Builder
		for _, u := range s.Units[cur+1:] {
			hiddenText.WriteString(u.RawText)
		}
		if got := hidden.Text(); got != hiddenText.String() {
			t.Fatalf("cur=%d hidden text=%q, want %q", cur, got, hiddenText.String())
		}
	}
}

func TestMask_FiltersAndEscapes(t *testing.T) {
	t.Parallel()

	s, err := BuildScript("Tom & Jerry, what the FUCK. <b>bold</b>", LayoutFlat)
	if err != nil {
		t.Fatalf("BuildScript: %v", err)
	}
	f, err := Mask(s, 1, DefaultContentFilter())
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	want := `Tom &amp; Jerry, what the f*ck. <span class="invis">&lt;b&gt;bold&lt;/b&gt;</span>`
	if f.Markup != want {
		t.Fatalf("Markup=%q, want %q", f.Markup, want)
	}
	if f.NarrationText != "what the f*ck. " {
		t.Fatalf("NarrationText=%q", f.NarrationText)
	}
}

func TestMask_OutOfRange(t *testing.T) {
	t.Parallel()

	s, err := BuildScript("hello world", LayoutFlat)
	if err != nil {
		t.Fatalf("BuildScript: %v", err)
	}
	if _, err := Mask(s, 1, nil); err == nil {
		t.Fatalf("expected error for index past the end")
	}
	if _, err := Mask(s, -1, nil); err == nil {
		t.Fatalf("expected error for negative index")
	}
}
