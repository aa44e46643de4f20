package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"list-manager/internal/domain"
	"list-manager/internal/repository"
)

type itemDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Detail    string             `bson:"detail"`
	DateAdded string             `bson:"dateAdded"`
	ListID    primitive.ObjectID `bson:"listId"`
	Completed bool               `bson:"completed"`
}

func (d itemDocument) toDomain() (*domain.Item, error) {
	added, err := domain.ParseDate(d.DateAdded)
	if err != nil {
		return nil, fmt.Errorf("parse item date: %w", err)
	}
	return &domain.Item{
		ID:        domain.ItemID(d.ID.Hex()),
		ListID:    domain.ListID(d.ListID.Hex()),
		Title:     d.Title,
		Detail:    d.Detail,
		DateAdded: added,
		Completed: d.Completed,
	}, nil
}

type ItemRepository struct {
	conns *Manager
	now   func() time.Time
}

func NewItemRepository(conns *Manager) repository.ItemRepository {
	return &ItemRepository{conns: conns, now: time.Now}
}

func (r *ItemRepository) Insert(ctx context.Context, listID domain.ListID, title, detail string) (domain.ItemID, error) {
	listOID, err := primitive.ObjectIDFromHex(listID.String())
	if err != nil {
		return "", domain.ErrListNotFound
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return "", err
	}

	res, err := conn.items().InsertOne(ctx, itemDocument{
		Title:     title,
		Detail:    detail,
		DateAdded: domain.FormatDate(r.now()),
		ListID:    listOID,
		Completed: false,
	})
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert item: unexpected id type %T", res.InsertedID)
	}
	return domain.ItemID(oid.Hex()), nil
}

func (r *ItemRepository) FindByList(ctx context.Context, listID domain.ListID) ([]domain.Item, error) {
	items := make([]domain.Item, 0)
	listOID, err := primitive.ObjectIDFromHex(listID.String())
	if err != nil {
		return items, nil
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "dateAdded", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := conn.items().Find(ctx, bson.M{"listId": listOID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		item, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, cur.Err()
}

func (r *ItemRepository) FindByID(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, domain.ErrItemNotFound
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var doc itemDocument
	err = conn.items().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return doc.toDomain()
}

func (r *ItemRepository) UpdateFields(ctx context.Context, id domain.ItemID, title, detail string) error {
	return r.updateOne(ctx, id, "update item", bson.M{"$set": bson.M{"title": title, "detail": detail}})
}

func (r *ItemRepository) ToggleCompletion(ctx context.Context, id domain.ItemID) error {
	// negated server side in one write
	toggle := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "completed", Value: bson.D{{Key: "$not", Value: "$completed"}}}}}},
	}
	return r.updateOne(ctx, id, "toggle item", toggle)
}

func (r *ItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return domain.ErrItemNotFound
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return err
	}

	res, err := conn.items().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) updateOne(ctx context.Context, id domain.ItemID, op string, update any) error {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return domain.ErrItemNotFound
	}
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return err
	}

	res, err := conn.items().UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
