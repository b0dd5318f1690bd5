package services

import (
	"context"
	"errors"
	"time"

	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/imagetext/apiserver/types"
)

// ImageRepository defines persistence operations for images.
type ImageRepository interface {
	Create(ctx context.Context, image types.Image) (types.Image, error)
	ListByUser(ctx context.Context, userID int) ([]types.Image, error)
	ListMetaByUser(ctx context.Context, userID int) ([]types.Image, error)
	GetOwned(ctx context.Context, id, userID int) (types.Image, error)
	DeleteOwned(ctx context.Context, id, userID int) (bool, error)
	DeleteManyOwned(ctx context.Context, ids []int, userID int) (int, error)
}

// ActivityPublisher receives gallery change events.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, event types.ActivityEvent) error
}

// ImageService encapsulates per-user gallery use-cases. Every lookup and
// mutation is scoped to the requesting user.
type ImageService struct {
	repo      ImageRepository
	publisher ActivityPublisher
}

// NewImageService constructs an ImageService. publisher may be nil.
func NewImageService(repo ImageRepository, publisher ActivityPublisher) *ImageService {
	return &ImageService{repo: repo, publisher: publisher}
}

// Save stores the image as given. Size and format checks belong to the caller.
func (s *ImageService) Save(ctx context.Context, userID int, blob []byte, text *string) (types.Image, error) {
	image, err := s.repo.Create(ctx, types.Image{UserID: userID, Blob: blob, Text: text})
	if err != nil {
		logger.Log.Errorw("failed to save image", "user_id", userID, "error", err)
		return types.Image{}, err
	}

	s.publish(ctx, types.ActivityEvent{
		Type:     types.ActivitySaved,
		UserID:   userID,
		ImageIDs: []int{image.ID},
		Count:    1,
	})
	return image, nil
}

// List returns the user's images newest first, blobs included.
func (s *ImageService) List(ctx context.Context, userID int) ([]types.Image, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListMeta is List without blobs.
func (s *ImageService) ListMeta(ctx context.Context, userID int) ([]types.Image, error) {
	return s.repo.ListMetaByUser(ctx, userID)
}

func (s *ImageService) Get(ctx context.Context, imageID, userID int) (types.Image, error) {
	image, err := s.repo.GetOwned(ctx, imageID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Image{}, ErrNotFound
		}
		return types.Image{}, err
	}
	return image, nil
}

// DeleteOne reports whether a row was removed. Missing and foreign images
// both report false.
func (s *ImageService) DeleteOne(ctx context.Context, imageID, userID int) (bool, error) {
	deleted, err := s.repo.DeleteOwned(ctx, imageID, userID)
	if err != nil {
		logger.Log.Errorw("failed to delete image", "user_id", userID, "image_id", imageID, "error", err)
		return false, err
	}

	if deleted {
		s.publish(ctx, types.ActivityEvent{
			Type:     types.ActivityDeleted,
			UserID:   userID,
			ImageIDs: []int{imageID},
			Count:    1,
		})
	}
	return deleted, nil
}

// DeleteMany removes the listed images the user owns and returns how many went away.
func (s *ImageService) DeleteMany(ctx context.Context, imageIDs []int, userID int) (int, error) {
	if len(imageIDs) == 0 {
		return 0, nil
	}

	removed, err := s.repo.DeleteManyOwned(ctx, imageIDs, userID)
	if err != nil {
		logger.Log.Errorw("failed to delete images", "user_id", userID, "count", len(imageIDs), "error", err)
		return 0, err
	}

	if removed > 0 {
		s.publish(ctx, types.ActivityEvent{
			Type:     types.ActivityBulkDeleted,
			UserID:   userID,
			ImageIDs: imageIDs,
			Count:    removed,
		})
	}
	return removed, nil
}

// publish never fails the caller; broker trouble is only logged.
func (s *ImageService) publish(ctx context.Context, event types.ActivityEvent) {
	if s.publisher == nil {
		return
	}
	event.At = time.Now().UTC()
	if err := s.publisher.PublishActivity(ctx, event); err != nil {
		logger.Log.Warnw("failed to publish activity", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}
