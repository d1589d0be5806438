package automation

import "github.com/Guidantas28/blog-generator/internal/dedup"

// Detail statuses reported per automation.
const (
	DetailSuccess = "success"
	DetailError   = "error"
)

// Messages of the aggregate result.
const (
	MessageNoAutomations = "no automations configured"
	MessageDone          = "processing complete"
)

// RunResult is the outcome of one runner pass.
type RunResult struct {
	Message   string   `json:"message"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Details   []Detail `json:"details"`
}

// Detail reports one attempted automation. Diagnostics stay in process.
type Detail struct {
	AutomationID string      `json:"automationId"`
	SiteID       string      `json:"siteId"`
	Status       string      `json:"status"`
	Message      string      `json:"message"`
	Diagnostics  Diagnostics `json:"-"`
}

// EventKind classifies a diagnostic event.
type EventKind string

const (
	// EventAllTrendsDuplicate: every researched trend matched history, so the
	// unfiltered list was used.
	EventAllTrendsDuplicate EventKind = "all_trends_duplicate"
	// EventForcedDuplicate: selection ended on a trend flagged duplicate.
	EventForcedDuplicate EventKind = "forced_duplicate"
	// EventTitleDuplicate: the generated title resembles an existing post.
	EventTitleDuplicate EventKind = "title_duplicate"
	// EventWarning: a non-fatal step degraded.
	EventWarning EventKind = "warning"
)

// Event is a structured note about a pipeline run that did not change its outcome.
type Event struct {
	Kind         EventKind
	Step         string
	Message      string
	SimilarPosts []dedup.HistoricalPost
}

// Diagnostics carries what happened inside one pipeline run.
type Diagnostics struct {
	ExecutionID     string
	PostID          string
	WordPressPostID int64
	Topic           string
	Selection       dedup.Selection
	Events          []Event
}

// Has reports whether an event of the given kind was recorded.
func (d Diagnostics) Has(kind EventKind) bool {
	for _, e := range d.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Warnings returns the warning events.
func (d Diagnostics) Warnings() []Event {
	var out []Event
	for _, e := range d.Events {
		if e.Kind == EventWarning {
			out = append(out, e)
		}
	}
	return out
}

func (d *Diagnostics) add(e Event) {
	d.Events = append(d.Events, e)
}

// Outcome is the result of a best-effort step: a value, or a warning
// explaining why the zero value is used instead.
type Outcome[T any] struct {
	Value   T
	Warning error
}

// OK reports whether the step produced its value.
func (o Outcome[T]) OK() bool { return o.Warning == nil }

func success[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func degraded[T any](err error) Outcome[T] { return Outcome[T]{Warning: err} }
