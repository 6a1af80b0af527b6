package todos

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Todo represents a todo item
// @Description Todo item with all its properties
type Todo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id" example:"507f1f77bcf86cd799439011"`
	UserID      primitive.ObjectID `bson:"userId" json:"ownerId" example:"507f1f77bcf86cd799439011"`
	Title       string             `bson:"title" json:"title" example:"Buy groceries"`
	TitleKey    string             `bson:"titleKey" json:"-"`
	Description string             `bson:"description" json:"description" example:"Get milk, bread, and eggs"`
	Completed   bool               `bson:"completed" json:"completed" example:"false"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty" example:"2030-12-31T23:59:59Z"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt" example:"2023-01-01T00:00:00Z"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt" example:"2023-01-01T00:00:00Z"`
}

// TodoRequest is the body for both create and full update
// @Description Data required to create or replace a todo
type TodoRequest struct {
	Title       string     `json:"title" example:"Buy groceries"`
	Description string     `json:"description" example:"Get milk, bread, and eggs"`
	DueDate     *time.Time `json:"dueDate" example:"2030-12-31T23:59:59Z"`
}

// Filter selects one owner's todos. Empty TitleContains and nil Completed
// do not filter.
type Filter struct {
	UserID        primitive.ObjectID
	TitleContains string
	Completed     *bool
}

// Fields are the mutable parts of a todo written by Update.
type Fields struct {
	Title       string
	TitleKey    string
	Description string
	DueDate     *time.Time
	UpdatedAt   time.Time
}
