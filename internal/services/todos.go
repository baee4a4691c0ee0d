package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-manager/internal/models"
	"todo-manager/internal/store"
)

// CreateTodoRequest carries the caller-supplied fields for a new todo.
// Everything except the title is optional and defaulted.
type CreateTodoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// TodoService owns validation, defaulting and ownership scoping for every
// todo operation. The owner argument is always the verified identity from
// the session token; it is the sole authorization rule in the system.
type TodoService interface {
	ListTodos(ctx context.Context, owner string) ([]models.Todo, error)
	CreateTodo(ctx context.Context, owner string, req CreateTodoRequest) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id, owner string, patch models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id, owner string) error
	ToggleTodo(ctx context.Context, id, owner string) (*models.Todo, error)
	GetStats(ctx context.Context, owner string) (*models.Stats, error)
}

type TodoServiceImpl struct {
	store store.TodoStore
}

func NewTodoService(s store.TodoStore) *TodoServiceImpl {
	return &TodoServiceImpl{store: s}
}

func (s *TodoServiceImpl) ListTodos(ctx context.Context, owner string) ([]models.Todo, error) {
	return s.store.List(ctx, owner)
}

func (s *TodoServiceImpl) CreateTodo(ctx context.Context, owner string, req CreateTodoRequest) (*models.Todo, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(req.Description)
	if err != nil {
		return nil, err
	}
	priority := models.PriorityMedium
	if req.Priority != "" {
		priority, err = validatePriority(req.Priority)
		if err != nil {
			return nil, err
		}
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		t, err := models.ParseDate(req.DueDate)
		if err != nil {
			return nil, models.NewValidationError("invalid due date")
		}
		dueDate = &t
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}

	now := time.Now()
	todo := &models.Todo{
		Title:       title,
		Description: description,
		Completed:   false,
		Priority:    priority,
		DueDate:     dueDate,
		OwnerEmail:  owner,
		Category:    category,
		Tags:        normalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// UpdateTodo applies a partial update: only fields whose key was present
// in the payload change, and an explicit value (including false and the
// empty string) is always applied. UpdatedAt is stamped on every call.
func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, id, owner string, patch models.TodoPatch) (*models.Todo, error) {
	todo, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		todo.Title = title
	}
	if patch.Description != nil {
		description, err := validateDescription(*patch.Description)
		if err != nil {
			return nil, err
		}
		todo.Description = description
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		priority, err := validatePriority(string(*patch.Priority))
		if err != nil {
			return nil, err
		}
		todo.Priority = priority
	}
	if patch.DueDate.Set {
		if patch.DueDate.Valid {
			t := patch.DueDate.Time
			todo.DueDate = &t
		} else {
			todo.DueDate = nil
		}
	}
	if patch.Category != nil {
		todo.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Tags != nil {
		todo.Tags = normalizeTags(*patch.Tags)
	}

	todo.UpdatedAt = time.Now()
	if err := s.store.Replace(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, id, owner string) error {
	return s.store.Delete(ctx, id, owner)
}

func (s *TodoServiceImpl) ToggleTodo(ctx context.Context, id, owner string) (*models.Todo, error) {
	todo, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()
	if err := s.store.Replace(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoServiceImpl) GetStats(ctx context.Context, owner string) (*models.Stats, error) {
	return s.store.Stats(ctx, owner, time.Now())
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.ErrTitleRequired
	}
	if len(title) > models.MaxTitleLength {
		return "", models.NewValidationError(fmt.Sprintf("title must be at most %d characters", models.MaxTitleLength))
	}
	return title, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if len(description) > models.MaxDescriptionLength {
		return "", models.NewValidationError(fmt.Sprintf("description must be at most %d characters", models.MaxDescriptionLength))
	}
	return description, nil
}

func validatePriority(p string) (models.Priority, error) {
	priority := models.Priority(p)
	if !priority.Valid() {
		return "", models.NewValidationError("priority must be one of low, medium, high")
	}
	return priority, nil
}

func normalizeTags(tags []string) []string {
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
