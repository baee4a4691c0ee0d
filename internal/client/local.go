package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"todo-manager/internal/models"

	"github.com/gofrs/uuid"
)

// LocalStore is the offline fallback: one JSON file per owner holding a
// disconnected copy of their todos. Identifiers and timestamps are
// fabricated locally and nothing ever syncs back to the server; callers
// must surface that this degraded mode is in effect.
type LocalStore struct {
	dir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		baseDir = filepath.Join(configDir, "todo-manager", "offline")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create offline dir: %w", err)
	}
	return &LocalStore{dir: baseDir}, nil
}

func (s *LocalStore) fileFor(owner string) string {
	safe := strings.NewReplacer("@", "_at_", "/", "_", string(os.PathSeparator), "_").Replace(owner)
	return filepath.Join(s.dir, safe+".json")
}

func (s *LocalStore) load(owner string) ([]Todo, error) {
	data, err := os.ReadFile(s.fileFor(owner))
	if errors.Is(err, os.ErrNotExist) {
		return []Todo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read offline todos: %w", err)
	}
	var todos []Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, fmt.Errorf("failed to decode offline todos: %w", err)
	}
	return todos, nil
}

func (s *LocalStore) save(owner string, todos []Todo) error {
	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode offline todos: %w", err)
	}
	if err := os.WriteFile(s.fileFor(owner), data, 0o600); err != nil {
		return fmt.Errorf("failed to write offline todos: %w", err)
	}
	return nil
}

func (s *LocalStore) List(owner string) ([]Todo, error) {
	todos, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

func (s *LocalStore) Create(owner string, input CreateTodoInput) (*Todo, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, models.ErrTitleRequired
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to fabricate id: %w", err)
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = string(models.PriorityMedium)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	todo := Todo{
		ID:          id.String(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Completed:   false,
		Priority:    priority,
		DueDate:     input.DueDate,
		OwnerEmail:  owner,
		Category:    category,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	todos, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	todos = append(todos, todo)
	if err := s.save(owner, todos); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *LocalStore) Update(owner, id string, patch TodoPatch) (*Todo, error) {
	return s.mutate(owner, id, func(t *Todo) {
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDateSet {
			t.DueDate = patch.DueDate
		}
		if patch.Category != nil {
			t.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Tags != nil {
			t.Tags = *patch.Tags
		}
	})
}

func (s *LocalStore) Toggle(owner, id string) (*Todo, error) {
	return s.mutate(owner, id, func(t *Todo) {
		t.Completed = !t.Completed
	})
}

func (s *LocalStore) mutate(owner, id string, apply func(*Todo)) (*Todo, error) {
	todos, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		if todos[i].ID == id {
			apply(&todos[i])
			todos[i].UpdatedAt = time.Now()
			if err := s.save(owner, todos); err != nil {
				return nil, err
			}
			copied := todos[i]
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *LocalStore) Delete(owner, id string) error {
	todos, err := s.load(owner)
	if err != nil {
		return err
	}
	for i := range todos {
		if todos[i].ID == id {
			todos = append(todos[:i], todos[i+1:]...)
			return s.save(owner, todos)
		}
	}
	return models.ErrNotFound
}

func (s *LocalStore) Stats(owner string, now time.Time) (*models.Stats, error) {
	todos, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{}
	for _, t := range todos {
		stats.Total++
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		if t.Priority == string(models.PriorityHigh) {
			stats.HighPriority++
		}
		if t.DueDate != nil && !t.Completed && now.After(*t.DueDate) {
			stats.Overdue++
		}
	}
	return stats, nil
}
