package reel

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// UpvoteRate is the share of items shown as already upvoted by the viewer.
const UpvoteRate = 0.1

// RenderRequest is everything the renderer needs for one frame. It is built once per index.
type RenderRequest struct {
	Kind       ItemKind `json:"kind"`
	Username   string   `json:"username"`
	Score      string   `json:"score"`
	Time       string   `json:"time"`
	Edited     string   `json:"edited,omitempty"`
	Comments   string   `json:"comments,omitempty"`
	Upvoted    bool     `json:"upvoted"`
	Silvers    int      `json:"silvers"`
	Golds      int      `json:"golds"`
	Platinums  int      `json:"platinums"`
	ShowFooter bool     `json:"show_footer"`
	BodyHTML   string   `json:"body_html"`
}

// ItemHeader holds the per-item render fields; they do not change between frames.
type ItemHeader struct {
	Kind     ItemKind
	Username string
	Score    string
	Time     string
	Edited   string
	Comments string
	Upvoted  bool
	Gildings Gildings
}

// NewItemHeader formats item metadata relative to now.
func NewItemHeader(item SourceItem, now time.Time, upvoted bool) ItemHeader {
	h := ItemHeader{
		Kind:     item.Kind,
		Username: item.Author,
		Score:    FormatScore(item.Score),
		Time:     RelativeTime(item.CreatedAt, now),
		Upvoted:  upvoted,
		Gildings: item.Gildings,
	}
	if item.EditedAt != nil {
		h.Edited = RelativeTime(*item.EditedAt, now)
	}
	if item.CommentCount != nil {
		h.Comments = FormatScore(*item.CommentCount)
	}
	return h
}

// Request composes the immutable request for one frame.
func (h ItemHeader) Request(frame RevealFrame, last bool) RenderRequest {
	return RenderRequest{
		Kind:       h.Kind,
		Username:   h.Username,
		Score:      h.Score,
		Time:       h.Time,
		Edited:     h.Edited,
		Comments:   h.Comments,
		Upvoted:    h.Upvoted,
		Silvers:    h.Gildings.Tier1,
		Golds:      h.Gildings.Tier2,
		Platinums:  h.Gildings.Tier3,
		ShowFooter: last,
		BodyHTML:   frame.Markup,
	}
}

// FormatScore renders n as-is below 1000, otherwise in thousands with one decimal
// rounded half up: 12345 -> "12.3k", 1000 -> "1k".
func FormatScore(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	v := math.Floor(float64(n)/100+0.5) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + "k"
}

// RelativeTime renders t relative to now, e.g. "3 hours ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
