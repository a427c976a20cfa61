package domain

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestApplyMergesSuppliedFields(t *testing.T) {
	task := Task{
		ID:          "t1",
		UserID:      "u1",
		Title:       "Buy milk",
		Description: "2 liters",
		Priority:    PriorityMedium,
		Column:      ColumnToDo,
	}
	task.Apply(Patch{
		Title:  strPtr("Buy oat milk"),
		Column: strPtr(ColumnInProgress),
	})
	if task.Title != "Buy oat milk" {
		t.Fatalf("title not merged: %q", task.Title)
	}
	if task.Column != ColumnInProgress {
		t.Fatalf("column not merged: %q", task.Column)
	}
	if task.Description != "2 liters" || task.Priority != PriorityMedium {
		t.Fatalf("unspecified fields changed: %#v", task)
	}
	if task.ID != "t1" || task.UserID != "u1" {
		t.Fatalf("identity fields changed: %#v", task)
	}
}

func TestApplyEmptyStringWins(t *testing.T) {
	task := Task{Description: "something"}
	task.Apply(Patch{Description: strPtr("")})
	if task.Description != "" {
		t.Fatalf("explicit empty string should win, got %q", task.Description)
	}
}

func TestApplyArchiveToggleIsReversible(t *testing.T) {
	orig := Task{ID: "t1", UserID: "u1", Title: "Keep", Column: ColumnDone}
	task := orig
	task.Apply(Patch{Archived: boolPtr(true)})
	if !task.Archived {
		t.Fatal("task not archived")
	}
	task.Apply(Patch{Archived: boolPtr(false)})
	if !reflect.DeepEqual(task, orig) {
		t.Fatalf("toggle changed other fields: %#v", task)
	}
}

func TestApplyReplacesAttachments(t *testing.T) {
	task := Task{Attachments: []Attachment{{ID: "a1", Name: "one.png"}}}
	next := []Attachment{
		{ID: "a1", Name: "one.png"},
		{ID: "a2", Name: "two.pdf", Type: "application/pdf"},
	}
	task.Apply(Patch{Attachments: &next})
	if len(task.Attachments) != 2 || task.Attachments[1].ID != "a2" {
		t.Fatalf("attachments not replaced: %#v", task.Attachments)
	}
}

func TestPatchIsZero(t *testing.T) {
	if !(Patch{}).IsZero() {
		t.Fatal("empty patch should be zero")
	}
	if (Patch{Tags: strPtr("a,b")}).IsZero() {
		t.Fatal("patch with tags should not be zero")
	}
}

func TestCloneDetachesAttachments(t *testing.T) {
	task := Task{Attachments: []Attachment{{ID: "a1"}}}
	cp := task.Clone()
	cp.Attachments[0].ID = "changed"
	if task.Attachments[0].ID != "a1" {
		t.Fatal("clone shares attachment backing array")
	}
}
