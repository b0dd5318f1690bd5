package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatsRepository runs read-only aggregate queries over images.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(1) FROM images WHERE user_id = ?`
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), userID); err != nil {
		return 0, err
	}
	return total, nil
}

// LatestUpload returns the most recent upload time, or nil when the user has no images.
func (r *StatsRepository) LatestUpload(ctx context.Context, userID int) (*time.Time, error) {
	const query = `
		SELECT uploaded_at
		FROM images
		WHERE user_id = ?
		ORDER BY uploaded_at DESC, id DESC
		LIMIT 1`
	var latest time.Time
	if err := r.db.GetContext(ctx, &latest, r.db.Rebind(query), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	latest = latest.UTC()
	return &latest, nil
}

// UploadsSince returns upload times at or after since, oldest first.
func (r *StatsRepository) UploadsSince(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	const query = `
		SELECT uploaded_at
		FROM images
		WHERE user_id = ? AND uploaded_at >= ?
		ORDER BY uploaded_at`
	uploads := make([]time.Time, 0)
	if err := r.db.SelectContext(ctx, &uploads, r.db.Rebind(query), userID, since.UTC()); err != nil {
		return nil, err
	}
	return uploads, nil
}
