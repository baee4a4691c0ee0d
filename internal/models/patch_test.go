package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTodoPatch_AbsentFields(t *testing.T) {
	var patch TodoPatch
	if err := json.Unmarshal([]byte(`{}`), &patch); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if patch.Title != nil || patch.Description != nil || patch.Completed != nil ||
		patch.Priority != nil || patch.Category != nil || patch.Tags != nil {
		t.Errorf("Expected all pointers nil for empty payload, got %+v", patch)
	}
	if patch.DueDate.Set {
		t.Error("Expected DueDate.Set false when key absent")
	}
}

func TestTodoPatch_ExplicitValues(t *testing.T) {
	payload := `{"title":"renamed","completed":false,"priority":"low","dueDate":"2026-09-15","tags":[]}`

	var patch TodoPatch
	if err := json.Unmarshal([]byte(payload), &patch); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if patch.Title == nil || *patch.Title != "renamed" {
		t.Errorf("Expected title 'renamed', got %v", patch.Title)
	}
	if patch.Completed == nil || *patch.Completed != false {
		t.Error("Expected explicit completed=false to be present")
	}
	if patch.Priority == nil || *patch.Priority != PriorityLow {
		t.Errorf("Expected priority low, got %v", patch.Priority)
	}
	if !patch.DueDate.Set || !patch.DueDate.Valid {
		t.Error("Expected DueDate set and valid")
	}
	want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if !patch.DueDate.Time.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, patch.DueDate.Time)
	}
	if patch.Tags == nil || len(*patch.Tags) != 0 {
		t.Errorf("Expected explicit empty tags, got %v", patch.Tags)
	}
	if patch.Description != nil {
		t.Error("Expected absent description to stay nil")
	}
}

func TestTodoPatch_NullDueDate(t *testing.T) {
	var patch TodoPatch
	if err := json.Unmarshal([]byte(`{"dueDate":null}`), &patch); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !patch.DueDate.Set {
		t.Error("Expected DueDate.Set true for explicit null")
	}
	if patch.DueDate.Valid {
		t.Error("Expected DueDate.Valid false for explicit null")
	}
}

func TestTodoPatch_InvalidDueDate(t *testing.T) {
	var patch TodoPatch
	if err := json.Unmarshal([]byte(`{"dueDate":"soon"}`), &patch); err == nil {
		t.Error("Expected error for unparseable due date")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", "2026-09-15T10:30:00Z", time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC), false},
		{"calendar date", "2026-09-15", time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "next tuesday", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPriority_Valid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.Valid() {
			t.Errorf("Expected %q to be valid", p)
		}
	}
	for _, p := range []Priority{"", "urgent", "LOW", "critical"} {
		if p.Valid() {
			t.Errorf("Expected %q to be invalid", p)
		}
	}
}

func TestTodo_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		todo Todo
		want bool
	}{
		{"no due date", Todo{}, false},
		{"past due pending", Todo{DueDate: &past}, true},
		{"past due completed", Todo{DueDate: &past, Completed: true}, false},
		{"future due", Todo{DueDate: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.todo.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}
