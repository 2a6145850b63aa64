package reel

import "time"

// ItemKind distinguishes the two shapes of source text a thread yields.
type ItemKind string

const (
	KindQuestion ItemKind = "question"
	KindComment  ItemKind = "comment"
)

// Gildings holds award counts by tier (tier1 = silver, tier2 = gold, tier3 = platinum).
type Gildings struct {
	Tier1 int `json:"tier1"`
	Tier2 int `json:"tier2"`
	Tier3 int `json:"tier3"`
}

// SourceItem is one fetched question or comment. It is read-only input to the pipeline.
type SourceItem struct {
	Kind      ItemKind   `json:"kind"`
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	Score     int        `json:"score"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`

	// CommentCount is only known for questions.
	CommentCount *int `json:"comment_count,omitempty"`

	Gildings Gildings `json:"gildings"`

	// BodyText is the title for a question and the markdown body for a comment.
	BodyText string `json:"body_text"`
}

// Thread is a question plus its top-level comments in listing order.
type Thread struct {
	ID       string       `json:"id"`
	Question SourceItem   `json:"question"`
	Comments []SourceItem `json:"comments"`
}
