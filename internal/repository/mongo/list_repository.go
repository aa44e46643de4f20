package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"list-manager/internal/domain"
	"list-manager/internal/repository"
)

type listDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Name   string             `bson:"name"`
	UserID string             `bson:"userId"`
}

type listSummary struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	UserID    string `bson:"userId"`
	ItemCount int    `bson:"itemCount"`
}

type ListRepository struct {
	conns *Manager
}

func NewListRepository(conns *Manager) repository.ListRepository {
	return &ListRepository{conns: conns}
}

func (r *ListRepository) Insert(ctx context.Context, name string, owner domain.UserID) (domain.ListID, error) {
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return "", err
	}

	res, err := conn.lists().InsertOne(ctx, listDocument{Name: name, UserID: owner.String()})
	if err != nil {
		return "", fmt.Errorf("insert list: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert list: unexpected id type %T", res.InsertedID)
	}
	return domain.ListID(oid.Hex()), nil
}

func (r *ListRepository) FindByOwner(ctx context.Context, owner domain.UserID) ([]domain.List, error) {
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: owner.String()}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: itemsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "listId"},
			{Key: "as", Value: "items"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
			{Key: "name", Value: 1},
			{Key: "userId", Value: 1},
			{Key: "itemCount", Value: bson.D{{Key: "$size", Value: "$items"}}},
		}}},
	}
	cur, err := conn.lists().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate lists: %w", err)
	}
	defer cur.Close(ctx)

	lists := make([]domain.List, 0)
	for cur.Next(ctx) {
		var doc listSummary
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		lists = append(lists, domain.List{
			ID:        domain.ListID(doc.ID),
			Name:      doc.Name,
			Owner:     domain.UserID(doc.UserID),
			ItemCount: doc.ItemCount,
		})
	}
	return lists, cur.Err()
}

func (r *ListRepository) FindByID(ctx context.Context, id domain.ListID, owner domain.UserID) (*domain.List, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, domain.ErrListNotFound
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var doc listDocument
	err = conn.lists().FindOne(ctx, bson.M{"_id": oid, "userId": owner.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find list: %w", err)
	}
	return &domain.List{
		ID:    domain.ListID(doc.ID.Hex()),
		Name:  doc.Name,
		Owner: domain.UserID(doc.UserID),
	}, nil
}

func (r *ListRepository) UpdateName(ctx context.Context, id domain.ListID, owner domain.UserID, name string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return 0, nil
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	res, err := conn.lists().UpdateOne(ctx,
		bson.M{"_id": oid, "userId": owner.String()},
		bson.M{"$set": bson.M{"name": name}},
	)
	if err != nil {
		return 0, fmt.Errorf("update list: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *ListRepository) DeleteCascade(ctx context.Context, id domain.ListID, owner domain.UserID) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return 0, nil
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	res, err := conn.lists().DeleteOne(ctx, bson.M{"_id": oid, "userId": owner.String()})
	if err != nil {
		return 0, fmt.Errorf("delete list: %w", err)
	}
	if res.DeletedCount != 1 {
		return res.DeletedCount, nil
	}

	if _, err := conn.items().DeleteMany(ctx, bson.M{"listId": oid}); err != nil {
		return res.DeletedCount, fmt.Errorf("delete list items: %w", err)
	}
	return res.DeletedCount, nil
}
