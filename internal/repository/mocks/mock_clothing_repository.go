package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wardrobe/internal/model"
)

type MockClothingItemRepository struct {
	mock.Mock
}

func (m *MockClothingItemRepository) Create(ctx context.Context, item *model.ClothingItem) (*model.ClothingItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClothingItem), args.Error(1)
}

func (m *MockClothingItemRepository) FindByID(ctx context.Context, userID, id string) (*model.ClothingItem, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClothingItem), args.Error(1)
}

func (m *MockClothingItemRepository) ListByUser(ctx context.Context, userID string) ([]model.ClothingItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClothingItem), args.Error(1)
}

func (m *MockClothingItemRepository) Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.ClothingItem, error) {
	args := m.Called(ctx, userID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClothingItem), args.Error(1)
}

func (m *MockClothingItemRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
