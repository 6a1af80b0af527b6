package todos

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("todos")

	// Create indexes
	_, _ = collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "completed", Value: 1}}},
		{
			Keys:    bson.D{{Key: "titleKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &Repository{collection: collection}
}

func (r *Repository) Create(ctx context.Context, todo *Todo) error {
	result, err := r.collection.InsertOne(ctx, todo)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("todo title %q: %w", todo.Title, apperrors.ErrDuplicate)
		}
		return err
	}

	todo.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID looks a todo up regardless of owner. Missing todos are nil, nil.
func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Todo, error) {
	var todo Todo
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&todo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &todo, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Todo, error) {
	if len(ids) == 0 {
		return []Todo{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List matches TitleContains with the server's simple case-insensitive
// regex, so "ß" does not match "ss".
func (r *Repository) List(ctx context.Context, f Filter) ([]Todo, error) {
	filter := bson.M{"userId": f.UserID}
	if f.TitleContains != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.TitleContains), Options: "i"}
	}
	if f.Completed != nil {
		filter["completed"] = *f.Completed
	}
	return r.find(ctx, filter)
}

func (r *Repository) TitleTaken(ctx context.Context, key string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"titleKey": key}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Update(ctx context.Context, id, ownerID primitive.ObjectID, fields Fields) (*Todo, error) {
	update := bson.M{
		"$set": bson.M{
			"title":       fields.Title,
			"titleKey":    fields.TitleKey,
			"description": fields.Description,
			"updatedAt":   fields.UpdatedAt,
		},
	}
	if fields.DueDate != nil {
		update["$set"].(bson.M)["dueDate"] = fields.DueDate
	} else {
		update["$unset"] = bson.M{"dueDate": ""}
	}

	var todo Todo
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": ownerID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&todo)
	if err != nil {
		return nil, translateWriteErr(err, id)
	}
	return &todo, nil
}

// ToggleCompleted flips the flag server side so concurrent toggles never lose a write.
func (r *Repository) ToggleCompleted(ctx context.Context, id, ownerID primitive.ObjectID, at time.Time) (*Todo, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "completed", Value: bson.D{{Key: "$not", Value: bson.A{"$completed"}}}},
			{Key: "updatedAt", Value: at},
		}}},
	}

	var todo Todo
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": ownerID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&todo)
	if err != nil {
		return nil, translateWriteErr(err, id)
	}
	return &todo, nil
}

func (r *Repository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":    id,
		"userId": ownerID,
	})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("todo %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

// Lock bumps the todo's lockVersion. Inside a transaction this makes a
// concurrent delete of the same todo a write conflict.
func (r *Repository) Lock(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"lockVersion": 1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("todo %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (r *Repository) find(ctx context.Context, filter bson.M) ([]Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var todos []Todo
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, err
	}

	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

func translateWriteErr(err error, id primitive.ObjectID) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("todo %s: %w", id.Hex(), apperrors.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("todo %s title: %w", id.Hex(), apperrors.ErrDuplicate)
	default:
		return err
	}
}
