package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wardrobe/internal/upload"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, userID, ref string) (*upload.Result, error) {
	args := m.Called(ctx, userID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Result), args.Error(1)
}
