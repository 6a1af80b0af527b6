package shares

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("shares")

	_, _ = collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "todoId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "todoId", Value: 1}}},
	})

	return &Repository{collection: collection}
}

// FindOrCreate upserts on the (groupId, todoId) index and re-reads if a
// concurrent upsert won the insert.
func (r *Repository) FindOrCreate(ctx context.Context, groupID, todoID primitive.ObjectID, at time.Time) (*Share, error) {
	filter := bson.M{"groupId": groupID, "todoId": todoID}
	update := bson.M{"$setOnInsert": bson.M{
		"groupId":   groupID,
		"todoId":    todoID,
		"createdAt": at,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var share Share
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&share)
	if err == nil {
		return &share, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, err
	}

	if err := r.collection.FindOne(ctx, filter).Decode(&share); err != nil {
		return nil, err
	}
	return &share, nil
}

// Delete is by filter. Removing a share that does not exist is not an error.
func (r *Repository) Delete(ctx context.Context, groupID, todoID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"groupId": groupID, "todoId": todoID})
	return err
}

func (r *Repository) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Share, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"groupId": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	shares := []Share{}
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *Repository) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"groupId": groupID})
	return err
}

func (r *Repository) DeleteByTodo(ctx context.Context, todoID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"todoId": todoID})
	return err
}
