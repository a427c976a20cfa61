package client

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"board-relay/domain"
)

// Filter narrows a task list for display. Zero values and "All" are
// wildcards. Archived tasks are hidden unless ShowArchived is set, in
// which case only archived tasks show.
type Filter struct {
	Query        string
	Priority     string
	Category     string
	ShowArchived bool
}

// Apply returns the tasks matching the filter, in their original order.
func (f Filter) Apply(tasks []domain.Task) []domain.Task {
	query := strings.ToLower(f.Query)
	out := []domain.Task{}
	for _, t := range tasks {
		if t.Archived != f.ShowArchived {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		if f.Priority != "" && f.Priority != "All" && t.Priority != f.Priority {
			continue
		}
		if f.Category != "" && f.Category != "All" && t.Category != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortBy names a display ordering.
type SortBy string

const (
	SortByCreated  SortBy = "created"  // newest first
	SortByPriority SortBy = "priority" // High, Medium, Low
	SortByDueDate  SortBy = "dueDate"  // soonest first, undated last
)

var priorityRank = map[string]int{
	domain.PriorityHigh:   1,
	domain.PriorityMedium: 2,
	domain.PriorityLow:    3,
}

// Sort returns a sorted copy of the tasks.
func Sort(tasks []domain.Task, by SortBy) []domain.Task {
	out := append([]domain.Task{}, tasks...)
	switch by {
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return rankOf(out[i].Priority) < rankOf(out[j].Priority)
		})
	case SortByDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			di, iOK := parseWhen(out[i].DueDate)
			dj, jOK := parseWhen(out[j].DueDate)
			if !iOK {
				return false
			}
			if !jOK {
				return true
			}
			return di.Before(dj)
		})
	case SortByCreated:
		sort.SliceStable(out, func(i, j int) bool {
			ci, _ := parseWhen(out[i].CreatedAt)
			cj, _ := parseWhen(out[j].CreatedAt)
			return ci.After(cj)
		})
	}
	return out
}

func rankOf(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank) + 1
}

func parseWhen(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Progress summarizes board completion over unarchived tasks.
type Progress struct {
	Total      int
	Done       int
	Percentage int
	Archived   int
}

// BoardProgress computes the header stats.
func BoardProgress(tasks []domain.Task) Progress {
	var p Progress
	for _, t := range tasks {
		if t.Archived {
			p.Archived++
			continue
		}
		p.Total++
		if t.Column == domain.ColumnDone {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(float64(p.Done)/float64(p.Total)*100 + 0.5)
	}
	return p
}

// Stats is the detailed statistics panel over unarchived tasks.
type Stats struct {
	Total      int
	Favorites  int
	TotalHours int
	Overdue    int
	ByPriority struct {
		High   int
		Medium int
		Low    int
	}
}

// Summarize computes the stats panel. A task is overdue when its due
// date parses, lies before now, and the task is not done.
func Summarize(tasks []domain.Task, now time.Time) Stats {
	var s Stats
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		s.Total++
		if t.IsFavorite {
			s.Favorites++
		}
		if h, err := strconv.Atoi(strings.TrimSpace(t.TimeEstimate)); err == nil {
			s.TotalHours += h
		}
		if due, ok := parseWhen(t.DueDate); ok && t.Column != domain.ColumnDone && due.Before(now) {
			s.Overdue++
		}
		switch t.Priority {
		case domain.PriorityHigh:
			s.ByPriority.High++
		case domain.PriorityMedium:
			s.ByPriority.Medium++
		case domain.PriorityLow:
			s.ByPriority.Low++
		}
	}
	return s
}

// Categories returns the distinct categories in first-seen order.
func Categories(tasks []domain.Task) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range tasks {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}

var csvHeader = []string{"Title", "Description", "Status", "Priority", "Category", "Due Date", "Created Date"}

// ExportCSV renders the given tasks as a CSV document.
func ExportCSV(tasks []domain.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		row := []string{t.Title, t.Description, t.Column, t.Priority, t.Category, orNA(t.DueDate), orNA(t.CreatedAt)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
