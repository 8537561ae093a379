package repository

import (
	"context"

	"wardrobe/internal/model"
)

// ClothingItemRepository defines data access for clothing items using SQL queries only.
// Every method is scoped to the owning user: a row belonging to someone else
// behaves exactly like a missing row (sql.ErrNoRows).
type ClothingItemRepository interface {
	// Create inserts a new item. ID and CreatedAt are assigned by the database
	// and returned in the stored record.
	Create(ctx context.Context, item *model.ClothingItem) (*model.ClothingItem, error)

	// FindByID returns an item by its ID.
	FindByID(ctx context.Context, userID, id string) (*model.ClothingItem, error)

	// ListByUser returns the user's items, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.ClothingItem, error)

	// Update applies the non-nil fields of patch and returns the updated row.
	Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.ClothingItem, error)

	// Delete removes an item. It returns sql.ErrNoRows when nothing was deleted.
	Delete(ctx context.Context, userID, id string) error
}
