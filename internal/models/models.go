package models

import "time"

// Sentiment is the three-way classifier label
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// Valid reports whether s is one of the known labels
func (s Sentiment) Valid() bool {
	return s == SentimentNegative || s == SentimentNeutral || s == SentimentPositive
}

// Urgency is the coarse priority derived from classifier confidence
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

func (u Urgency) Valid() bool {
	return u == UrgencyHigh || u == UrgencyMedium || u == UrgencyLow
}

// Status tracks handling of an alert
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusResolved
}

// Alert is a persisted record of a flagged customer message requiring attention.
// ResolvedAt is non-nil exactly when Status is resolved.
type Alert struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Customer            string     `gorm:"type:varchar(255);not null" json:"customer"`
	Platform            string     `gorm:"type:varchar(100);not null;index" json:"platform"`
	Sentiment           Sentiment  `gorm:"type:varchar(20);not null;index" json:"sentiment"`
	Urgency             Urgency    `gorm:"type:varchar(20);not null;index" json:"urgency"`
	Score               float64    `gorm:"not null" json:"score"`
	Message             string     `gorm:"type:text;not null" json:"message"`
	Status              Status     `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Reach               int        `gorm:"not null" json:"reach"`
	Engagement          int        `gorm:"not null" json:"engagement"`
	RecommendedResponse string     `gorm:"type:text" json:"recommended_response"`
	ResponseText        *string    `gorm:"type:text" json:"response_text"`
	SourceRef           *string    `gorm:"type:varchar(255);uniqueIndex" json:"source_ref,omitempty"`
	CreatedAt           time.Time  `gorm:"index" json:"timestamp"`
	UpdatedAt           time.Time  `json:"updated_at"`
	ResolvedAt          *time.Time `json:"resolved_at"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Platform is the per-channel rollup of alert mentions and average score
type Platform struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Mentions     int       `gorm:"not null" json:"mentions"`
	SentimentAvg float64   `gorm:"not null" json:"sentiment_avg"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Platform) TableName() string {
	return "platforms"
}

// AnalyticsTrend holds parallel sequences of day and average score for that day
type AnalyticsTrend struct {
	Dates      []string  `json:"dates"`
	Sentiments []float64 `json:"sentiments"`
}

// AlertCreate is the input for creating an alert
type AlertCreate struct {
	Customer            string    `json:"customer"`
	Platform            string    `json:"platform"`
	Sentiment           Sentiment `json:"sentiment"`
	Urgency             Urgency   `json:"urgency"`
	Score               *float64  `json:"score"`
	Message             string    `json:"message"`
	Reach               int       `json:"reach"`
	Engagement          int       `json:"engagement"`
	RecommendedResponse string    `json:"recommended_response"`
	SourceRef           string    `json:"-"`
}

// ScoreValue returns the score, or 0 when none was given
func (in AlertCreate) ScoreValue() float64 {
	if in.Score == nil {
		return 0
	}
	return *in.Score
}

// AlertUpdate is a partial update; nil fields are left untouched
type AlertUpdate struct {
	Status       *Status `json:"status"`
	ResponseText *string `json:"response_text"`
}

// AlertFilter narrows ListAlerts
type AlertFilter struct {
	Sentiment string
	Search    string
	Skip      int
	Limit     int
}

// Post is a social-media item returned by a source
type Post struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`   // "twitter", "reddit"
	Platform    string    `json:"platform"` // display name stored on alerts
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	URL         string    `json:"url"`
	Impressions int       `json:"impressions"` // 0 when the source does not report it
	Likes       int       `json:"likes"`
	Reshares    int       `json:"reshares"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ref returns the dedup key for the post
func (p Post) Ref() string {
	return p.Source + "_" + p.ID
}

// Event types pushed to live viewers and notifiers
const (
	EventNewAlert      = "newAlert"
	EventAlertResolved = "alertResolved"
)

// AlertEvent is the fan-out payload
type AlertEvent struct {
	Type string `json:"type"`
	Data Alert  `json:"data"`
}
