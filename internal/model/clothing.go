package model

import (
	"slices"
	"time"
)

// ClothingItem is a single cataloged wardrobe entry.
// ID, UserID and CreatedAt are assigned once and never change.
type ClothingItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ImageURL  string    `json:"image_url"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Color     Color     `json:"color"`
	Occasion  []string  `json:"occasion"`
	Brand     *string   `json:"brand"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewItem is the client-supplied part of an item plus the local image to upload.
type NewItem struct {
	ImageRef         string   `json:"image_path"`
	Name             string   `json:"name"`
	Category         Category `json:"category"`
	Color            Color    `json:"color"`
	Occasion         []string `json:"occasion,omitempty"`
	Brand            *string  `json:"brand,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	RemoveBackground bool     `json:"remove_background,omitempty"`
}

// ItemPatch is a partial update. Nil fields are left untouched.
// Occasion uses a pointer to a slice so that an explicit empty list clears it.
type ItemPatch struct {
	Name     *string   `json:"name,omitempty"`
	Category *Category `json:"category,omitempty"`
	Color    *Color    `json:"color,omitempty"`
	Occasion *[]string `json:"occasion,omitempty"`
	Brand    *string   `json:"brand,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Color == nil &&
		p.Occasion == nil && p.Brand == nil && p.Notes == nil
}

// Category is one of the fixed clothing categories.
type Category string

const (
	CategoryTops        Category = "Tops"
	CategoryBottoms     Category = "Bottoms"
	CategoryDresses     Category = "Dresses"
	CategoryOuterwear   Category = "Outerwear"
	CategoryShoes       Category = "Shoes"
	CategoryAccessories Category = "Accessories"
	CategoryActivewear  Category = "Activewear"
	CategorySleepwear   Category = "Sleepwear"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTops, CategoryBottoms, CategoryDresses, CategoryOuterwear, CategoryShoes,
	CategoryAccessories, CategoryActivewear, CategorySleepwear, CategoryOther,
}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Color is one of the fixed clothing colors.
type Color string

// Colors lists every color in display order.
var Colors = []Color{
	"Black", "White", "Gray", "Navy", "Blue", "Red", "Pink", "Green",
	"Yellow", "Orange", "Purple", "Brown", "Beige", "Multi",
}

func (c Color) Valid() bool { return slices.Contains(Colors, c) }

// Occasions lists the tags accepted in ClothingItem.Occasion.
var Occasions = []string{
	"Casual", "Work", "Formal", "Party", "Sport", "Date", "Travel", "Lounge",
}

// ValidOccasions reports whether every tag is a known occasion.
func ValidOccasions(tags []string) bool {
	for _, t := range tags {
		if !slices.Contains(Occasions, t) {
			return false
		}
	}
	return true
}

// OutfitSlot is a position on the outfit builder.
type OutfitSlot string

const (
	SlotTop    OutfitSlot = "top"
	SlotBottom OutfitSlot = "bottom"
	SlotShoes  OutfitSlot = "shoes"
)

var slotCategories = map[OutfitSlot][]Category{
	SlotTop:    {CategoryTops, CategoryOuterwear},
	SlotBottom: {CategoryBottoms, CategoryDresses},
	SlotShoes:  {CategoryShoes},
}

// Categories returns the item categories that fit the slot, nil for unknown slots.
func (s OutfitSlot) Categories() []Category {
	return slotCategories[s]
}
