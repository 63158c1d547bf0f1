package sentiment

import (
	"errors"
	"time"
)

// Label is a three-way sentiment classification
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Recognized reports whether the label is one of the three known values.
// Anything else is excluded from aggregation rather than counted as neutral.
func (l Label) Recognized() bool {
	return l == LabelPositive || l == LabelNegative || l == LabelNeutral
}

// ErrEmptyText is returned when classification is requested for blank input.
var ErrEmptyText = errors.New("no text provided for analysis")

// Result is a normalized classification outcome. Score and Confidence carry
// the same raw magnitude when produced by the local model; sources that
// supply them independently keep both fields.
type Result struct {
	Label      Label   `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Sentiment is the classification record attached to a post.
// At most one exists per post.
type Sentiment struct {
	ID         string    `json:"id"`
	Score      float64   `json:"score"`
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	PostID     string    `json:"post_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats holds whole-corpus sentiment counts for a policy
type Stats struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

// TrendPoint is one date bucket of sentiment counts
type TrendPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Total    int    `json:"total"`
}

// Granularity selects the trend bucket key format
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityAll   Granularity = "all"
)
