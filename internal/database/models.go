package database

import "time"

// ExecutionStatus is the lifecycle state of an automation execution.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// Valid reports whether s is a known status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PostStore selects which post table a row lives in.
type PostStore string

const (
	PublishedPosts PostStore = "published_posts"
	AutomatedPosts PostStore = "automated_posts"
)

// Site is a user-owned WordPress site. PasswordEncrypted is never decoded here.
type Site struct {
	ID                string
	UserID            string
	Name              string
	URL               string
	Username          string
	PasswordEncrypted string
	CTAText           *string
	CTALink           *string
	CreatedAt         time.Time
}

// UserSettings holds per-user defaults.
type UserSettings struct {
	UserID         string
	DefaultCTAText *string
	DefaultCTALink *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AutomationSetting is a recurring content policy for one site.
type AutomationSetting struct {
	ID               string
	UserID           string
	SiteID           string
	BusinessCategory string
	DaysPerWeek      int
	Frequency        string
	SelectedDays     []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Execution is one attempted run of an automation.
type Execution struct {
	ID           string
	AutomationID string
	UserID       string
	SiteID       string
	Status       ExecutionStatus
	PostID       *string
	ErrorMessage *string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// Post is a row of published_posts or automated_posts.
type Post struct {
	ID               string
	UserID           string
	SiteID           string
	Topic            string
	Title            string
	Content          string
	Excerpt          string
	Keywords         []string
	ImageURL         *string
	WordPressPostID  int64
	WordPressPostURL string
	Status           string
	TrendSource      *string
	CreatedAt        time.Time
}

// ExecutionFilter narrows ListExecutions. Zero values mean "any".
type ExecutionFilter struct {
	UserID       string
	AutomationID string
	SiteID       string
	Status       ExecutionStatus
	Limit        int
}

// Stats contains aggregate database statistics.
type Stats struct {
	Sites               int
	Automations         int
	ExecutionsCompleted int
	ExecutionsFailed    int
	ExecutionsRunning   int
	PublishedPosts      int
	AutomatedPosts      int
}
