package service

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"list-manager/internal/domain"
	"list-manager/internal/invalidate"
	"list-manager/internal/repository"
	"list-manager/internal/storage"
)

// ==================== MOCKS ====================

type MockListRepository struct {
	mock.Mock
}

var _ repository.ListRepository = (*MockListRepository)(nil)

func (m *MockListRepository) Insert(ctx context.Context, name string, owner domain.UserID) (domain.ListID, error) {
	args := m.Called(ctx, name, owner)
	return args.Get(0).(domain.ListID), args.Error(1)
}

func (m *MockListRepository) FindByOwner(ctx context.Context, owner domain.UserID) ([]domain.List, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.List), args.Error(1)
}

func (m *MockListRepository) FindByID(ctx context.Context, id domain.ListID, owner domain.UserID) (*domain.List, error) {
	args := m.Called(ctx, id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.List), args.Error(1)
}

func (m *MockListRepository) UpdateName(ctx context.Context, id domain.ListID, owner domain.UserID, name string) (int64, error) {
	args := m.Called(ctx, id, owner, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListRepository) DeleteCascade(ctx context.Context, id domain.ListID, owner domain.UserID) (int64, error) {
	args := m.Called(ctx, id, owner)
	return args.Get(0).(int64), args.Error(1)
}

type MockItemRepository struct {
	mock.Mock
}

var _ repository.ItemRepository = (*MockItemRepository)(nil)

func (m *MockItemRepository) Insert(ctx context.Context, listID domain.ListID, title, detail string) (domain.ItemID, error) {
	args := m.Called(ctx, listID, title, detail)
	return args.Get(0).(domain.ItemID), args.Error(1)
}

func (m *MockItemRepository) FindByList(ctx context.Context, listID domain.ListID) ([]domain.Item, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepository) UpdateFields(ctx context.Context, id domain.ItemID, title, detail string) error {
	return m.Called(ctx, id, title, detail).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockItemRepository) ToggleCompletion(ctx context.Context, id domain.ItemID) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.UserID), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

var _ invalidate.Invalidator = (*MockInvalidator)(nil)

func (m *MockInvalidator) Invalidate(ctx context.Context, paths ...string) error {
	return m.Called(ctx, paths).Error(0)
}

type MockStore struct {
	mock.Mock
}

var _ storage.Service = (*MockStore)(nil)

func (m *MockStore) PutSnapshot(ctx context.Context, snap *storage.Snapshot) (string, error) {
	args := m.Called(ctx, snap)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ListSnapshots(ctx context.Context, userID string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ObjectInfo), args.Error(1)
}

func (m *MockStore) DeleteSnapshots(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockStore) GetSnapshotURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	args := m.Called(ctx, key, expires)
	return args.String(0), args.Error(1)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
