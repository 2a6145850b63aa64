// Package render draws reveal frames: it fills an HTML card with goquery and has a
// screenshot service turn it into a PNG.
package render

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
)

//go:embed templates/*.html
var templateFS embed.FS

func templateFor(kind reel.ItemKind) (string, error) {
	name := "templates/comment.html"
	if kind == reel.KindQuestion {
		name = "templates/question.html"
	}
	b, err := templateFS.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FillTemplate returns the full HTML page for one frame. BodyHTML is inserted as markup;
// every other field is set as text.
func FillTemplate(req reel.RenderRequest) (string, error) {
	tmpl, err := templateFor(req.Kind)
	if err != nil {
		return "", fmt.Errorf("FillTemplate: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tmpl))
	if err != nil {
		return "", fmt.Errorf("FillTemplate: parse: %w", err)
	}

	doc.Find(".username").SetText(req.Username)
	doc.Find(".score").SetText(req.Score)
	doc.Find(".time").SetText(req.Time)
	doc.Find(".body").SetHtml(req.BodyHTML)

	if req.Edited == "" {
		doc.Find(".edited").Remove()
	} else {
		doc.Find(".edited-time").SetText(req.Edited)
	}
	if req.Comments == "" {
		doc.Find(".comments").Remove()
	} else {
		doc.Find(".comments").SetText(req.Comments)
	}
	if req.Upvoted {
		doc.Find(".vote").AddClass("upvoted")
	}

	setAward(doc, ".silver", req.Silvers)
	setAward(doc, ".gold", req.Golds)
	setAward(doc, ".platinum", req.Platinums)

	if !req.ShowFooter {
		doc.Find(".footer").Remove()
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("FillTemplate: render: %w", err)
	}
	return out, nil
}

func setAward(doc *goquery.Document, class string, n int) {
	sel := doc.Find(".awards " + class)
	if n <= 0 {
		sel.Remove()
		return
	}
	sel.Find(".count").SetText(strconv.Itoa(n))
}
