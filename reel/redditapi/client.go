// Package redditapi fetches AskReddit threads with an application-only OAuth credential.
package redditapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/httpx"
)

const (
	DefaultBaseURL   = "https://oauth.reddit.com"
	DefaultSubreddit = "AskReddit"
)

// Client reads the comments listing of one thread.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	Subreddit string
}

// FetchThread loads the question and its top-level comments. The credential is passed in
// explicitly; a 401 or 403 maps to ErrCredentialExpired.
func (c *Client) FetchThread(ctx context.Context, cred Credential, threadID string) (reel.Thread, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return reel.Thread{}, errors.New("FetchThread: thread id is empty")
	}
	if cred.AccessToken == "" {
		return reel.Thread{}, ErrCredentialExpired
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	sub := c.Subreddit
	if sub == "" {
		sub = DefaultSubreddit
	}
	u := fmt.Sprintf("%s/r/%s/comments/%s?raw_json=1", base, url.PathEscape(sub), url.PathEscape(threadID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return reel.Thread{}, fmt.Errorf("FetchThread: %w", err)
	}
	tokenType := cred.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+cred.AccessToken)

	hc := c.HTTP
	if hc == nil {
		hc = httpx.NewClient("", 0)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return reel.Thread{}, fmt.Errorf("FetchThread %s: %w", threadID, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return reel.Thread{}, fmt.Errorf("FetchThread %s: HTTP %d: %w", threadID, resp.StatusCode, ErrCredentialExpired)
	}
	if err := httpx.CheckResponse(resp); err != nil {
		return reel.Thread{}, fmt.Errorf("FetchThread %s: %w", threadID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reel.Thread{}, fmt.Errorf("FetchThread %s: read: %w", threadID, err)
	}
	thread, err := ParseThread(body)
	if err != nil {
		return reel.Thread{}, fmt.Errorf("FetchThread %s: %w", threadID, err)
	}
	if thread.ID == "" {
		thread.ID = threadID
	}
	return thread, nil
}

// ParseThread decodes a comments listing: element 0 holds the submission, element 1 the
// comment tree. Only top-level comments (kind t1) are kept; "more" stubs are dropped.
func ParseThread(body []byte) (reel.Thread, error) {
	if !gjson.ValidBytes(body) {
		return reel.Thread{}, errors.New("ParseThread: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	q := root.Get("0.data.children.0.data")
	if !q.Exists() {
		return reel.Thread{}, errors.New("ParseThread: listing has no submission")
	}

	comments := int(q.Get("num_comments").Int())
	thread := reel.Thread{
		ID: q.Get("id").String(),
		Question: reel.SourceItem{
			Kind:         reel.KindQuestion,
			ID:           q.Get("id").String(),
			Author:       q.Get("author").String(),
			Score:        int(q.Get("score").Int()),
			CreatedAt:    unixSeconds(q.Get("created_utc")),
			EditedAt:     editedAt(q.Get("edited")),
			CommentCount: &comments,
			Gildings:     gildings(q.Get("gildings")),
			BodyText:     q.Get("title").String(),
		},
	}

	root.Get("1.data.children").ForEach(func(_, child gjson.Result) bool {
		if child.Get("kind").String() != "t1" {
			return true
		}
		d := child.Get("data")
		thread.Comments = append(thread.Comments, reel.SourceItem{
			Kind:      reel.KindComment,
			ID:        d.Get("id").String(),
			Author:    d.Get("author").String(),
			Score:     int(d.Get("score").Int()),
			CreatedAt: unixSeconds(d.Get("created_utc")),
			EditedAt:  editedAt(d.Get("edited")),
			Gildings:  gildings(d.Get("gildings")),
			BodyText:  d.Get("body").String(),
		})
		return true
	})
	return thread, nil
}

func unixSeconds(r gjson.Result) time.Time {
	if !r.Exists() || r.Float() == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(r.Float())
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// reddit sends "edited": false for unedited items and a timestamp otherwise.
func editedAt(r gjson.Result) *time.Time {
	if r.Type != gjson.Number {
		return nil
	}
	t := unixSeconds(r)
	if t.IsZero() {
		return nil
	}
	return &t
}

func gildings(r gjson.Result) reel.Gildings {
	return reel.Gildings{
		Tier1: int(r.Get("gid_1").Int()),
		Tier2: int(r.Get("gid_2").Int()),
		Tier3: int(r.Get("gid_3").Int()),
	}
}
