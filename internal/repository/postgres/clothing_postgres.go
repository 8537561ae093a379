package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"wardrobe/internal/model"
	"wardrobe/internal/repository"
)

const itemColumns = `id, user_id, image_url, name, category, color, occasion, brand, notes, created_at`

// ClothingItemPostgres is a PostgreSQL implementation of repository.ClothingItemRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ClothingItemPostgres struct {
	db *sql.DB
}

// NewClothingItemPostgres creates a new ClothingItemPostgres repository.
func NewClothingItemPostgres(db *sql.DB) *ClothingItemPostgres {
	return &ClothingItemPostgres{db: db}
}

var _ repository.ClothingItemRepository = (*ClothingItemPostgres)(nil)

// Create inserts a new item row and returns the stored record.
func (r *ClothingItemPostgres) Create(ctx context.Context, item *model.ClothingItem) (*model.ClothingItem, error) {
	occasion, err := encodeOccasion(item.Occasion)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO clothing_items (user_id, image_url, name, category, color, occasion, brand, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + itemColumns
	row := r.db.QueryRowContext(ctx, q,
		item.UserID,
		item.ImageURL,
		item.Name,
		string(item.Category),
		string(item.Color),
		occasion,
		nullIfEmpty(item.Brand),
		nullIfEmpty(item.Notes),
	)
	return scanItem(row)
}

// FindByID fetches a single item owned by userID.
func (r *ClothingItemPostgres) FindByID(ctx context.Context, userID, id string) (*model.ClothingItem, error) {
	q := `SELECT ` + itemColumns + `
		FROM clothing_items
		WHERE id = $1 AND user_id = $2`
	return scanItem(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListByUser returns the user's items ordered newest first.
func (r *ClothingItemPostgres) ListByUser(ctx context.Context, userID string) ([]model.ClothingItem, error) {
	q := `SELECT ` + itemColumns + `
		FROM clothing_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ClothingItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes only the columns present in patch. An empty patch reads the row back unchanged.
func (r *ClothingItemPostgres) Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.ClothingItem, error) {
	if patch.Empty() {
		return r.FindByID(ctx, userID, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Category != nil {
		set("category", string(*patch.Category))
	}
	if patch.Color != nil {
		set("color", string(*patch.Color))
	}
	if patch.Occasion != nil {
		occasion, err := encodeOccasion(*patch.Occasion)
		if err != nil {
			return nil, err
		}
		set("occasion", occasion)
	}
	if patch.Brand != nil {
		set("brand", nullIfEmpty(patch.Brand))
	}
	if patch.Notes != nil {
		set("notes", nullIfEmpty(patch.Notes))
	}

	args = append(args, id, userID)
	q := fmt.Sprintf(`UPDATE clothing_items SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), itemColumns)

	return scanItem(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes an item row. Unlike a plain DELETE it reports a missing row as sql.ErrNoRows.
func (r *ClothingItemPostgres) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM clothing_items WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.ClothingItem, error) {
	var (
		it       model.ClothingItem
		category string
		color    string
		occasion []byte
		brand    sql.NullString
		notes    sql.NullString
	)
	if err := row.Scan(
		&it.ID,
		&it.UserID,
		&it.ImageURL,
		&it.Name,
		&category,
		&color,
		&occasion,
		&brand,
		&notes,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	it.Category = model.Category(category)
	it.Color = model.Color(color)
	if len(occasion) > 0 {
		if err := json.Unmarshal(occasion, &it.Occasion); err != nil {
			return nil, fmt.Errorf("decode occasion: %w", err)
		}
	}
	if brand.Valid {
		it.Brand = &brand.String
	}
	if notes.Valid {
		it.Notes = &notes.String
	}
	return &it, nil
}

// encodeOccasion stores an empty tag set as NULL.
func encodeOccasion(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode occasion: %w", err)
	}
	return string(b), nil
}

func nullIfEmpty(s *string) any {
	if s == nil {
		return nil
	}
	if v := strings.TrimSpace(*s); v != "" {
		return v
	}
	return nil
}
