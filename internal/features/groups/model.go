package groups

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named set of members reachable through its join code.
// @Description Group with its shareable join code
type Group struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id" example:"507f1f77bcf86cd799439011"`
	Name      string             `bson:"name" json:"name" example:"Team"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId" example:"507f1f77bcf86cd799439011"`
	JoinCode  string             `bson:"joinCode" json:"joinCode" example:"3f9a1c0be2"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Membership links a user to a group. The owner has one like everyone else.
type Membership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"groupId" json:"groupId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type CreateGroupRequest struct {
	Name string `json:"name" example:"Team"`
}

type JoinGroupRequest struct {
	JoinCode string `json:"joinCode" binding:"required" example:"3f9a1c0be2"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required" example:"507f1f77bcf86cd799439011"`
}
