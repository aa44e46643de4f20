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

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
	Email    string             `bson:"email,omitempty"`
}

type UserRepository struct {
	conns *Manager
}

func NewUserRepository(conns *Manager) repository.UserRepository {
	return &UserRepository{conns: conns}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return "", err
	}

	res, err := conn.users().InsertOne(ctx, userDocument{
		Username: user.Username,
		Password: user.PasswordHash,
		Email:    user.Email,
	})
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("insert user %q: %w", user.Username, domain.ErrUserExists)
	}
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}

	user.ID = domain.UserID(oid.Hex())
	return user.ID, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	conn, err := r.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	err = conn.users().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &domain.User{
		ID:           domain.UserID(doc.ID.Hex()),
		Username:     doc.Username,
		PasswordHash: doc.Password,
		Email:        doc.Email,
	}, nil
}
