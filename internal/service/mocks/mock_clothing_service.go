package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wardrobe/internal/cache"
	"wardrobe/internal/model"
	"wardrobe/internal/service"
	"wardrobe/internal/session"
)

type MockClothingService struct {
	mock.Mock
}

var _ service.ClothingService = (*MockClothingService)(nil)

func (m *MockClothingService) ListItems(ctx context.Context, s session.Session) cache.Result[[]model.ClothingItem] {
	args := m.Called(ctx, s)
	return args.Get(0).(cache.Result[[]model.ClothingItem])
}

func (m *MockClothingService) GetItem(ctx context.Context, s session.Session, id string) cache.Result[*model.ClothingItem] {
	args := m.Called(ctx, s, id)
	return args.Get(0).(cache.Result[*model.ClothingItem])
}

func (m *MockClothingService) AddItem(ctx context.Context, s session.Session, in model.NewItem) (*model.ClothingItem, error) {
	args := m.Called(ctx, s, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClothingItem), args.Error(1)
}

func (m *MockClothingService) UpdateItem(ctx context.Context, s session.Session, id string, patch model.ItemPatch) (*model.ClothingItem, error) {
	args := m.Called(ctx, s, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClothingItem), args.Error(1)
}

func (m *MockClothingService) DeleteItem(ctx context.Context, s session.Session, id, imageURL string) error {
	args := m.Called(ctx, s, id, imageURL)
	return args.Error(0)
}

func (m *MockClothingService) Stats(ctx context.Context, s session.Session) (*service.Stats, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}

func (m *MockClothingService) OutfitCandidates(ctx context.Context, s session.Session, slot model.OutfitSlot) ([]model.ClothingItem, error) {
	args := m.Called(ctx, s, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClothingItem), args.Error(1)
}
