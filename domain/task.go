package domain

// Board columns. Display order on the client is fixed; the server only
// validates nothing and stores whatever column a move names.
const (
	ColumnToDo       = "To Do"
	ColumnInProgress = "In Progress"
	ColumnDone       = "Done"
)

// Priority levels understood by the client projections.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Attachment is an inline-encoded file appended to a task. Data carries
// the payload as a data URL, exactly as uploaded.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Data string `json:"data,omitempty"`
}

// Task represents a single board item. UserID is set by the relay from
// the creating connection's bound identity and never changes afterwards.
type Task struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Priority     string       `json:"priority,omitempty"`
	Category     string       `json:"category,omitempty"`
	Column       string       `json:"column"`
	Attachments  []Attachment `json:"attachments"`
	Archived     bool         `json:"archived,omitempty"`
	IsFavorite   bool         `json:"isFavorite,omitempty"`
	DueDate      string       `json:"dueDate,omitempty"`
	TimeEstimate string       `json:"timeEstimate,omitempty"`
	Tags         string       `json:"tags,omitempty"`
	CreatedAt    string       `json:"createdAt,omitempty"`
}

// Clone returns a copy with its own attachments slice so callers can
// hand tasks across goroutines without sharing backing arrays.
func (t Task) Clone() Task {
	if t.Attachments != nil {
		t.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	return t
}
