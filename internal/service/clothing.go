package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wardrobe/internal/bgremoval"
	"wardrobe/internal/cache"
	"wardrobe/internal/errs"
	"wardrobe/internal/logging"
	"wardrobe/internal/model"
	"wardrobe/internal/repository"
	"wardrobe/internal/session"
	"wardrobe/internal/storage"
	"wardrobe/internal/upload"
)

var tracer = otel.Tracer("wardrobe/internal/service")

// Stats summarizes a wardrobe for the profile view.
type Stats struct {
	Items      int `json:"items"`
	Categories int `json:"categories"`
}

// ClothingService defines the wardrobe use cases. Reads go through the query cache;
// mutations always hit the remote store and invalidate what they touched.
type ClothingService interface {
	// ListItems returns the user's items newest first. Without a session it returns an
	// empty idle result and never calls the store.
	ListItems(ctx context.Context, s session.Session) cache.Result[[]model.ClothingItem]

	// GetItem returns one item. An empty id yields an idle result without a fetch.
	GetItem(ctx context.Context, s session.Session, id string) cache.Result[*model.ClothingItem]

	// AddItem uploads the image, inserts the row and invalidates the user's list.
	AddItem(ctx context.Context, s session.Session, in model.NewItem) (*model.ClothingItem, error)

	// UpdateItem applies a partial update and invalidates the list and the item.
	UpdateItem(ctx context.Context, s session.Session, id string, patch model.ItemPatch) (*model.ClothingItem, error)

	// DeleteItem removes the stored image best-effort, then the row.
	DeleteItem(ctx context.Context, s session.Session, id, imageURL string) error

	Stats(ctx context.Context, s session.Session) (*Stats, error)

	// OutfitCandidates lists the items that fit an outfit slot.
	OutfitCandidates(ctx context.Context, s session.Session, slot model.OutfitSlot) ([]model.ClothingItem, error)
}

type clothingService struct {
	repo     repository.ClothingItemRepository
	uploader upload.Uploader
	store    storage.Storage
	remover  bgremoval.Remover
	cache    *cache.Client
	log      *logging.Logger
}

// NewClothingService wires the service. remover may be nil, in which case
// background removal requests fall back to the original photo.
func NewClothingService(
	repo repository.ClothingItemRepository,
	uploader upload.Uploader,
	store storage.Storage,
	remover bgremoval.Remover,
	c *cache.Client,
	log *logging.Logger,
) ClothingService {
	return &clothingService{
		repo:     repo,
		uploader: uploader,
		store:    store,
		remover:  remover,
		cache:    c,
		log:      log.With("clothing_service"),
	}
}

func (s *clothingService) ListItems(ctx context.Context, sess session.Session) cache.Result[[]model.ClothingItem] {
	if !sess.SignedIn() {
		return cache.Result[[]model.ClothingItem]{Data: []model.ClothingItem{}, Status: cache.StatusIdle}
	}
	return cache.Fetch(ctx, s.cache, cache.ItemListKey(sess.UserID), func(ctx context.Context) (items []model.ClothingItem, err error) {
		ctx, span := tracer.Start(ctx, "ClothingService.ListItems")
		defer func() { endSpan(span, err) }()

		items, err = s.repo.ListByUser(ctx, sess.UserID)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		if items == nil {
			items = []model.ClothingItem{}
		}
		span.SetAttributes(attribute.Int("wardrobe.items", len(items)))
		return items, nil
	})
}

func (s *clothingService) GetItem(ctx context.Context, sess session.Session, id string) cache.Result[*model.ClothingItem] {
	if id == "" {
		return cache.Result[*model.ClothingItem]{Status: cache.StatusIdle}
	}
	if !sess.SignedIn() {
		return cache.Result[*model.ClothingItem]{Status: cache.StatusError, Err: errs.ErrUnauthenticated}
	}
	if _, err := uuid.Parse(id); err != nil {
		return cache.Result[*model.ClothingItem]{Status: cache.StatusError, Err: fmt.Errorf("%w: %s", errs.ErrNotFound, id)}
	}
	return cache.Fetch(ctx, s.cache, cache.ItemKey(sess.UserID, id), func(ctx context.Context) (item *model.ClothingItem, err error) {
		ctx, span := tracer.Start(ctx, "ClothingService.GetItem", trace.WithAttributes(attribute.String("wardrobe.item_id", id)))
		defer func() { endSpan(span, err) }()

		item, err = s.repo.FindByID(ctx, sess.UserID, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
			}
			return nil, fmt.Errorf("find item: %w", err)
		}
		return item, nil
	})
}

func (s *clothingService) AddItem(ctx context.Context, sess session.Session, in model.NewItem) (_ *model.ClothingItem, err error) {
	// Mutations finish even when the caller goes away.
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "ClothingService.AddItem")
	defer func() { endSpan(span, err) }()

	if err := session.Require(sess); err != nil {
		return nil, err
	}
	if err := validateNewItem(&in); err != nil {
		return nil, err
	}

	ref := in.ImageRef
	if in.RemoveBackground {
		if cutout, ok := s.removeBackground(ctx, ref); ok {
			ref = cutout
			defer func() {
				if rmErr := os.Remove(cutout); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					s.log.Warn("cutout_cleanup_failed", map[string]any{"path": cutout, "error": rmErr})
				}
			}()
		}
	}

	up, err := s.uploader.Upload(ctx, sess.UserID, ref)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, &model.ClothingItem{
		UserID:   sess.UserID,
		ImageURL: up.URL,
		Name:     in.Name,
		Category: in.Category,
		Color:    in.Color,
		Occasion: in.Occasion,
		Brand:    in.Brand,
		Notes:    in.Notes,
	})
	if err != nil {
		// Roll back the upload so the bucket does not collect unreferenced images.
		if delErr := s.store.Delete(ctx, up.Key); delErr != nil {
			s.log.Error("upload_rollback_failed", map[string]any{"key": up.Key, "error": delErr})
		}
		return nil, fmt.Errorf("%w: insert item: %w", errs.ErrRemoteWriteFailed, err)
	}

	s.cache.Invalidate(cache.ItemListKey(sess.UserID))
	s.log.Info("item_added", map[string]any{"user_id": sess.UserID, "item_id": stored.ID, "object_key": up.Key})
	return stored, nil
}

func (s *clothingService) removeBackground(ctx context.Context, ref string) (string, bool) {
	if s.remover == nil {
		s.log.Warn("background_removal_fallback", map[string]any{"reason": bgremoval.ReasonMissingCredential})
		return "", false
	}
	out, err := s.remover.Remove(ctx, ref)
	if err != nil {
		fields := map[string]any{"error": err}
		var bgErr *bgremoval.Error
		if errors.As(err, &bgErr) {
			fields["reason"] = bgErr.Reason
		}
		s.log.Warn("background_removal_fallback", fields)
		return "", false
	}
	return out, true
}

func (s *clothingService) UpdateItem(ctx context.Context, sess session.Session, id string, patch model.ItemPatch) (_ *model.ClothingItem, err error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "ClothingService.UpdateItem", trace.WithAttributes(attribute.String("wardrobe.item_id", id)))
	defer func() { endSpan(span, err) }()

	if err := session.Require(sess); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %w: %s", errs.ErrRemoteWriteFailed, errs.ErrNotFound, id)
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, sess.UserID, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %w: %s", errs.ErrRemoteWriteFailed, errs.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: update item: %w", errs.ErrRemoteWriteFailed, err)
	}

	s.cache.Invalidate(cache.ItemListKey(sess.UserID))
	s.cache.Invalidate(cache.ItemKey(sess.UserID, id))
	return updated, nil
}

func (s *clothingService) DeleteItem(ctx context.Context, sess session.Session, id, imageURL string) (err error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "ClothingService.DeleteItem", trace.WithAttributes(attribute.String("wardrobe.item_id", id)))
	defer func() { endSpan(span, err) }()

	if err := session.Require(sess); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w: %s", errs.ErrRemoteWriteFailed, errs.ErrNotFound, id)
	}

	s.removeImage(ctx, sess.UserID, imageURL)

	if err := s.repo.Delete(ctx, sess.UserID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %w: %s", errs.ErrRemoteWriteFailed, errs.ErrNotFound, id)
		}
		return fmt.Errorf("%w: delete item: %w", errs.ErrRemoteWriteFailed, err)
	}

	s.cache.Invalidate(cache.ItemListKey(sess.UserID))
	s.cache.Invalidate(cache.ItemKey(sess.UserID, id))
	s.log.Info("item_deleted", map[string]any{"user_id": sess.UserID, "item_id": id})
	return nil
}

// removeImage never fails the delete: a leftover object is logged and kept.
func (s *clothingService) removeImage(ctx context.Context, userID, imageURL string) {
	if imageURL == "" {
		return
	}
	key, ok := storage.KeyFromURL(imageURL, s.store.Bucket())
	if !ok || !strings.HasPrefix(key, userID+"/") {
		s.log.Warn("image_remove_skipped", map[string]any{"image_url": imageURL, "reason": "not an object owned by the user"})
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("image_remove_failed", map[string]any{"key": key, "error": err})
	}
}

func (s *clothingService) Stats(ctx context.Context, sess session.Session) (*Stats, error) {
	res := s.ListItems(ctx, sess)
	if res.Err != nil {
		return nil, res.Err
	}
	seen := make(map[model.Category]struct{})
	for _, it := range res.Data {
		seen[it.Category] = struct{}{}
	}
	return &Stats{Items: len(res.Data), Categories: len(seen)}, nil
}

func (s *clothingService) OutfitCandidates(ctx context.Context, sess session.Session, slot model.OutfitSlot) ([]model.ClothingItem, error) {
	cats := slot.Categories()
	if cats == nil {
		return nil, fmt.Errorf("%w: unknown outfit slot %q", errs.ErrInvalidInput, slot)
	}
	res := s.ListItems(ctx, sess)
	if res.Err != nil {
		return nil, res.Err
	}
	out := []model.ClothingItem{}
	for _, it := range res.Data {
		for _, c := range cats {
			if it.Category == c {
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func validateNewItem(in *model.NewItem) error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case strings.TrimSpace(in.ImageRef) == "":
		return fmt.Errorf("%w: image_path is required", errs.ErrInvalidInput)
	case in.Name == "":
		return fmt.Errorf("%w: name is required", errs.ErrInvalidInput)
	case !in.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", errs.ErrInvalidInput, in.Category)
	case !in.Color.Valid():
		return fmt.Errorf("%w: unknown color %q", errs.ErrInvalidInput, in.Color)
	case !model.ValidOccasions(in.Occasion):
		return fmt.Errorf("%w: unknown occasion in %v", errs.ErrInvalidInput, in.Occasion)
	}
	return nil
}

func validatePatch(p *model.ItemPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", errs.ErrInvalidInput)
		}
		p.Name = &name
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", errs.ErrInvalidInput, *p.Category)
	}
	if p.Color != nil && !p.Color.Valid() {
		return fmt.Errorf("%w: unknown color %q", errs.ErrInvalidInput, *p.Color)
	}
	if p.Occasion != nil && !model.ValidOccasions(*p.Occasion) {
		return fmt.Errorf("%w: unknown occasion in %v", errs.ErrInvalidInput, *p.Occasion)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
