package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"todo-manager/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process TodoStore with the same semantics as the
// mongo-backed one. It backs the unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	todos map[string]models.Todo
	seq   map[string]int64
	next  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos: make(map[string]models.Todo),
		seq:   make(map[string]int64),
	}
}

func (s *MemoryStore) List(_ context.Context, owner string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := []models.Todo{}
	for _, t := range s.todos {
		if t.OwnerEmail == owner {
			todos = append(todos, t)
		}
	}
	// Newest first; insertion order breaks creation-time ties.
	sort.Slice(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return s.seq[a.ID.Hex()] > s.seq[b.ID.Hex()]
	})
	return todos, nil
}

func (s *MemoryStore) Get(_ context.Context, id, owner string) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok || t.OwnerEmail != owner {
		return nil, models.ErrNotFound
	}
	copied := t
	return &copied, nil
}

func (s *MemoryStore) Insert(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	s.next++
	s.seq[todo.ID.Hex()] = s.next
	s.todos[todo.ID.Hex()] = *todo
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[todo.ID.Hex()]
	if !ok || existing.OwnerEmail != todo.OwnerEmail {
		return models.ErrNotFound
	}
	s.todos[todo.ID.Hex()] = *todo
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.OwnerEmail != owner {
		return models.ErrNotFound
	}
	delete(s.todos, id)
	delete(s.seq, id)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, owner string, now time.Time) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Stats{}
	for _, t := range s.todos {
		if t.OwnerEmail != owner {
			continue
		}
		stats.Total++
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		if t.Priority == models.PriorityHigh {
			stats.HighPriority++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}
