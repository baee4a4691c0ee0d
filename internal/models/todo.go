package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500
)

// Todo is the sole persisted entity. Every query against the collection
// filters by OwnerEmail; a todo is never visible to another identity.
type Todo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Completed   bool               `bson:"completed" json:"completed"`
	Priority    Priority           `bson:"priority" json:"priority"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	OwnerEmail  string             `bson:"userEmail" json:"userEmail"`
	Category    string             `bson:"category" json:"category"`
	Tags        []string           `bson:"tags" json:"tags"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *Todo) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return now.After(*t.DueDate)
}

// Stats aggregates counts over a single owner's todos.
type Stats struct {
	Total        int64 `bson:"total" json:"total"`
	Completed    int64 `bson:"completed" json:"completed"`
	Pending      int64 `bson:"pending" json:"pending"`
	HighPriority int64 `bson:"highPriority" json:"highPriority"`
	Overdue      int64 `bson:"overdue" json:"overdue"`
}

// User is the identity asserted by a session token. There is no user
// collection; the only account is the configured admin.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
