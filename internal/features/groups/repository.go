package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// Repository stores groups and their memberships.
type Repository struct {
	groups      *mongo.Collection
	memberships *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	groups := db.Collection("groups")
	memberships := db.Collection("memberships")

	_, _ = groups.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "joinCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	})

	_, _ = memberships.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})

	return &Repository{groups: groups, memberships: memberships}
}

func (r *Repository) CreateGroup(ctx context.Context, group *Group) error {
	result, err := r.groups.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("join code %s: %w", group.JoinCode, apperrors.ErrDuplicate)
		}
		return err
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	return r.findGroup(ctx, bson.M{"_id": id})
}

func (r *Repository) GetByJoinCode(ctx context.Context, code string) (*Group, error) {
	return r.findGroup(ctx, bson.M{"joinCode": code})
}

func (r *Repository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.groups.CountDocuments(ctx, bson.M{"joinCode": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error) {
	if len(ids) == 0 {
		return []Group{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.groups.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.groups.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("group %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

// AddMember is find-or-create on the (groupId, userId) unique index. Two
// racing upserts can both miss and one then fails with a duplicate key, in
// which case the winner's document is read back.
// Lock bumps the group's lockVersion so a transaction that deletes the
// group conflicts with the caller's.
func (r *Repository) Lock(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.groups.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"lockVersion": 1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("group %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (r *Repository) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, at time.Time) (*Membership, error) {
	filter := bson.M{"groupId": groupID, "userId": userID}
	update := bson.M{"$setOnInsert": bson.M{
		"groupId":   groupID,
		"userId":    userID,
		"createdAt": at,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var m Membership
	err := r.memberships.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, err
	}

	if err := r.memberships.FindOne(ctx, filter).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) IsMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	count, err := r.memberships.CountDocuments(ctx,
		bson.M{"groupId": groupID, "userId": userID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]Membership, error) {
	return r.findMemberships(ctx, bson.M{"groupId": groupID})
}

func (r *Repository) ListMemberships(ctx context.Context, userID primitive.ObjectID) ([]Membership, error) {
	return r.findMemberships(ctx, bson.M{"userId": userID})
}

func (r *Repository) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	result, err := r.memberships.DeleteOne(ctx, bson.M{"groupId": groupID, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("membership %s/%s: %w", groupID.Hex(), userID.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteMembers(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := r.memberships.DeleteMany(ctx, bson.M{"groupId": groupID})
	return err
}

func (r *Repository) findGroup(ctx context.Context, filter bson.M) (*Group, error) {
	var group Group
	err := r.groups.FindOne(ctx, filter).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *Repository) findMemberships(ctx context.Context, filter bson.M) ([]Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.memberships.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	memberships := []Membership{}
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}
