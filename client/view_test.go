package client

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"board-relay/domain"
)

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: "1", Title: "Fix login crash", Description: "panic on empty email", Priority: domain.PriorityHigh, Category: "Bug", Column: domain.ColumnToDo, DueDate: "2026-01-01", TimeEstimate: "3", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: "2", Title: "Dark mode", Priority: domain.PriorityLow, Category: "Feature", Column: domain.ColumnInProgress, IsFavorite: true, CreatedAt: "2026-08-02T10:00:00Z"},
		{ID: "3", Title: "Ship release", Priority: domain.PriorityMedium, Category: "Feature", Column: domain.ColumnDone, DueDate: "2026-01-01", TimeEstimate: "2", CreatedAt: "2026-08-03T10:00:00Z"},
		{ID: "4", Title: "Old notes", Priority: domain.PriorityLow, Category: "Enhancement", Column: domain.ColumnDone, Archived: true},
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestFilterHidesArchivedByDefault(t *testing.T) {
	got := Filter{}.Apply(sampleTasks())
	if !reflect.DeepEqual(ids(got), []string{"1", "2", "3"}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
}

func TestFilterShowArchivedShowsOnlyArchived(t *testing.T) {
	got := Filter{ShowArchived: true}.Apply(sampleTasks())
	if !reflect.DeepEqual(ids(got), []string{"4"}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
}

func TestFilterSearchMatchesTitleAndDescription(t *testing.T) {
	got := Filter{Query: "EMAIL"}.Apply(sampleTasks())
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
}

func TestFilterPriorityAndCategory(t *testing.T) {
	got := Filter{Priority: domain.PriorityLow, Category: "Feature"}.Apply(sampleTasks())
	if !reflect.DeepEqual(ids(got), []string{"2"}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}
	if got := (Filter{Priority: "All", Category: "All"}).Apply(sampleTasks()); len(got) != 3 {
		t.Fatalf("wildcards filtered: %v", ids(got))
	}
}

func TestSortByPriority(t *testing.T) {
	got := Sort(Filter{}.Apply(sampleTasks()), SortByPriority)
	if !reflect.DeepEqual(ids(got), []string{"1", "3", "2"}) {
		t.Fatalf("unexpected order %v", ids(got))
	}
}

func TestSortByDueDatePutsUndatedLast(t *testing.T) {
	got := Sort(Filter{}.Apply(sampleTasks()), SortByDueDate)
	if last := got[len(got)-1].ID; last != "2" {
		t.Fatalf("undated task not last: %v", ids(got))
	}
}

func TestSortByCreatedNewestFirst(t *testing.T) {
	got := Sort(Filter{}.Apply(sampleTasks()), SortByCreated)
	if !reflect.DeepEqual(ids(got), []string{"3", "2", "1"}) {
		t.Fatalf("unexpected order %v", ids(got))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	Sort(tasks, SortByPriority)
	if tasks[0].ID != "1" {
		t.Fatal("input reordered")
	}
}

func TestBoardProgress(t *testing.T) {
	p := BoardProgress(sampleTasks())
	if p.Total != 3 || p.Done != 1 || p.Archived != 1 {
		t.Fatalf("unexpected progress %#v", p)
	}
	if p.Percentage != 33 {
		t.Fatalf("unexpected percentage %d", p.Percentage)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s := Summarize(sampleTasks(), now)
	if s.Total != 3 || s.Favorites != 1 {
		t.Fatalf("unexpected stats %#v", s)
	}
	if s.TotalHours != 5 {
		t.Fatalf("unexpected hours %d", s.TotalHours)
	}
	// task 1 is overdue; task 3 has the same due date but is done
	if s.Overdue != 1 {
		t.Fatalf("unexpected overdue %d", s.Overdue)
	}
	if s.ByPriority.High != 1 || s.ByPriority.Medium != 1 || s.ByPriority.Low != 1 {
		t.Fatalf("unexpected priority counts %#v", s.ByPriority)
	}
}

func TestCategoriesDistinctInOrder(t *testing.T) {
	got := Categories(sampleTasks())
	if !reflect.DeepEqual(got, []string{"Bug", "Feature", "Enhancement"}) {
		t.Fatalf("unexpected categories %v", got)
	}
}

func TestExportCSV(t *testing.T) {
	data, err := ExportCSV(Filter{}.Apply(sampleTasks()))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Title,Description,Status") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], "N/A") {
		t.Fatalf("missing due date not rendered as N/A: %q", lines[2])
	}
}
