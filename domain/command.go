package domain

// CommandType enumerates the closed set of relay commands.
type CommandType int

const (
	RegisterUser CommandType = iota + 1
	CreateTask
	UpdateTask
	MoveTask
	DeleteTask
)

func (t CommandType) String() string {
	switch t {
	case RegisterUser:
		return "register:user"
	case CreateTask:
		return "task:create"
	case UpdateTask:
		return "task:update"
	case MoveTask:
		return "task:move"
	case DeleteTask:
		return "task:delete"
	default:
		return "unknown"
	}
}

// Command is one decoded client request. Exactly the fields relevant to
// its Type are populated.
type Command struct {
	Type   CommandType
	UserID string // RegisterUser
	Draft  Draft  // CreateTask
	ID     string // UpdateTask, MoveTask, DeleteTask
	Patch  Patch  // UpdateTask
	Column string // MoveTask
}

// Draft carries the client-settable fields of a new task. The relay
// supplies id, owner and defaults; everything here is stored verbatim.
type Draft struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Priority     string       `json:"priority"`
	Category     string       `json:"category"`
	Column       string       `json:"column"`
	Attachments  []Attachment `json:"attachments"`
	Archived     bool         `json:"archived"`
	IsFavorite   bool         `json:"isFavorite"`
	DueDate      string       `json:"dueDate"`
	TimeEstimate string       `json:"timeEstimate"`
	Tags         string       `json:"tags"`
	CreatedAt    string       `json:"createdAt"`
}

// Patch carries a partial update. Pointer fields distinguish "not sent"
// from a zero value so the merge keeps unspecified fields intact.
// ID and owner are not patchable.
type Patch struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Priority     *string       `json:"priority,omitempty"`
	Category     *string       `json:"category,omitempty"`
	Column       *string       `json:"column,omitempty"`
	Attachments  *[]Attachment `json:"attachments,omitempty"`
	Archived     *bool         `json:"archived,omitempty"`
	IsFavorite   *bool         `json:"isFavorite,omitempty"`
	DueDate      *string       `json:"dueDate,omitempty"`
	TimeEstimate *string       `json:"timeEstimate,omitempty"`
	Tags         *string       `json:"tags,omitempty"`
	CreatedAt    *string       `json:"createdAt,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Category == nil && p.Column == nil && p.Attachments == nil &&
		p.Archived == nil && p.IsFavorite == nil && p.DueDate == nil &&
		p.TimeEstimate == nil && p.Tags == nil && p.CreatedAt == nil
}

// Apply shallow-merges the patch over the task: supplied fields win,
// unspecified fields persist.
func (t *Task) Apply(p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Column != nil {
		t.Column = *p.Column
	}
	if p.Attachments != nil {
		t.Attachments = *p.Attachments
	}
	if p.Archived != nil {
		t.Archived = *p.Archived
	}
	if p.IsFavorite != nil {
		t.IsFavorite = *p.IsFavorite
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.TimeEstimate != nil {
		t.TimeEstimate = *p.TimeEstimate
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.CreatedAt != nil {
		t.CreatedAt = *p.CreatedAt
	}
}
