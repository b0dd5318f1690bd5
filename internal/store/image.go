package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/imagetext/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// ImageRepository handles persistence for images.
type ImageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image and stamps its upload time. The owner must exist.
func (r *ImageRepository) Create(ctx context.Context, image types.Image) (types.Image, error) {
	image.UploadedAt = time.Now().UTC()

	const query = `
		INSERT INTO images (user_id, blob, text, uploaded_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		r.db.Rebind(query),
		image.UserID,
		image.Blob,
		image.Text,
		image.UploadedAt,
	).Scan(&image.ID); err != nil {
		return types.Image{}, err
	}
	return image, nil
}

// ListByUser returns the user's images newest first, blobs included.
func (r *ImageRepository) ListByUser(ctx context.Context, userID int) ([]types.Image, error) {
	const query = `
		SELECT id, user_id, blob, text, uploaded_at
		FROM images
		WHERE user_id = ?
		ORDER BY uploaded_at DESC, id DESC`
	images := make([]types.Image, 0)
	if err := r.db.SelectContext(ctx, &images, r.db.Rebind(query), userID); err != nil {
		return nil, err
	}
	return images, nil
}

// ListMetaByUser is ListByUser without the blob column.
func (r *ImageRepository) ListMetaByUser(ctx context.Context, userID int) ([]types.Image, error) {
	const query = `
		SELECT id, user_id, text, uploaded_at
		FROM images
		WHERE user_id = ?
		ORDER BY uploaded_at DESC, id DESC`
	images := make([]types.Image, 0)
	if err := r.db.SelectContext(ctx, &images, r.db.Rebind(query), userID); err != nil {
		return nil, err
	}
	return images, nil
}

// GetOwned returns the image only when userID owns it.
func (r *ImageRepository) GetOwned(ctx context.Context, id, userID int) (types.Image, error) {
	const query = `
		SELECT id, user_id, blob, text, uploaded_at
		FROM images
		WHERE id = ? AND user_id = ?`
	var image types.Image
	if err := r.db.GetContext(ctx, &image, r.db.Rebind(query), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Image{}, ErrNotFound
		}
		return types.Image{}, err
	}
	return image, nil
}

// DeleteOwned removes the image if userID owns it and reports whether a row went away.
func (r *ImageRepository) DeleteOwned(ctx context.Context, id, userID int) (bool, error) {
	const query = `DELETE FROM images WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), id, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteManyOwned removes every listed image owned by userID and returns how many went away.
// An empty id list never reaches the database.
func (r *ImageRepository) DeleteManyOwned(ctx context.Context, ids []int, userID int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM images WHERE id IN (?) AND user_id = ?`, ids, userID)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
