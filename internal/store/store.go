package store

import (
	"context"
	"time"

	"todo-manager/internal/models"
)

// TodoStore is the persistence contract for the todos collection. Every
// method that names an owner filters by it; identifiers from another
// owner behave exactly like missing ones.
type TodoStore interface {
	// List returns the owner's todos sorted by creation time, newest first.
	List(ctx context.Context, owner string) ([]models.Todo, error)
	// Get returns the todo matching id and owner, or models.ErrNotFound.
	Get(ctx context.Context, id, owner string) (*models.Todo, error)
	// Insert persists a new todo, assigning its identifier.
	Insert(ctx context.Context, todo *models.Todo) error
	// Replace overwrites the stored document matching the todo's id and
	// owner, or returns models.ErrNotFound.
	Replace(ctx context.Context, todo *models.Todo) error
	// Delete removes the todo matching id and owner, or returns
	// models.ErrNotFound.
	Delete(ctx context.Context, id, owner string) error
	// Stats aggregates counts over the owner's todos; overdue is judged
	// against now. Owners with no todos get an all-zero record.
	Stats(ctx context.Context, owner string, now time.Time) (*models.Stats, error)
}
