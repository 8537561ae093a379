package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) Remove(ctx context.Context, imageRef string) (string, error) {
	args := m.Called(ctx, imageRef)
	return args.String(0), args.Error(1)
}
