package shares

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Share records that a todo's owner made it visible to a group.
type Share struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"groupId" json:"groupId"`
	TodoID    primitive.ObjectID `bson:"todoId" json:"todoId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type ShareTodoRequest struct {
	TodoID string `json:"todoId" binding:"required" example:"507f1f77bcf86cd799439011"`
}
