package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/imagetext/apiserver/types"
)

const activityWindowDays = 30

// StatsRepository defines the aggregate reads behind usage statistics.
type StatsRepository interface {
	CountByUser(ctx context.Context, userID int) (int, error)
	LatestUpload(ctx context.Context, userID int) (*time.Time, error)
	UploadsSince(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
}

// ExportArchiver stores export documents under a key.
type ExportArchiver interface {
	PutJSON(ctx context.Context, key string, value any) error
}

// StatsService derives read-only statistics from stored images.
type StatsService struct {
	stats    StatsRepository
	users    UserRepository
	images   ImageRepository
	archiver ExportArchiver
	now      func() time.Time
}

// NewStatsService constructs a StatsService. archiver may be nil, which disables archiving.
func NewStatsService(stats StatsRepository, users UserRepository, images ImageRepository, archiver ExportArchiver) *StatsService {
	return &StatsService{
		stats:    stats,
		users:    users,
		images:   images,
		archiver: archiver,
		now:      time.Now,
	}
}

// Summary returns the total, the latest upload and a sparse per-day histogram
// of uploads since UTC midnight thirty days ago.
func (s *StatsService) Summary(ctx context.Context, userID int) (types.Summary, error) {
	total, err := s.stats.CountByUser(ctx, userID)
	if err != nil {
		return types.Summary{}, err
	}

	latest, err := s.stats.LatestUpload(ctx, userID)
	if err != nil {
		return types.Summary{}, err
	}

	now := s.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -activityWindowDays)
	uploads, err := s.stats.UploadsSince(ctx, userID, cutoff)
	if err != nil {
		return types.Summary{}, err
	}

	return types.Summary{
		TotalImages:    total,
		LastActivity:   latest,
		Activity30Days: bucketByDay(uploads),
	}, nil
}

// bucketByDay counts ascending upload times per UTC day. Empty days are skipped.
func bucketByDay(uploads []time.Time) []types.DayCount {
	days := make([]types.DayCount, 0)
	for _, at := range uploads {
		date := at.UTC().Format(time.DateOnly)
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Count++
			continue
		}
		days = append(days, types.DayCount{Date: date, Count: 1})
	}
	return days
}

// Export assembles the profile, every image and derived totals into one snapshot.
func (s *StatsService) Export(ctx context.Context, userID int) (types.Export, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Export{}, ErrNotFound
		}
		return types.Export{}, err
	}

	images, err := s.images.ListMetaByUser(ctx, userID)
	if err != nil {
		return types.Export{}, err
	}

	export := types.Export{
		Profile: types.ExportProfile{
			ID:           user.ID,
			Email:        user.Email,
			RegisteredAt: user.RegisteredAt,
			ExportedAt:   s.now().UTC(),
		},
		Images: make([]types.ExportImage, 0, len(images)),
	}

	totalText := 0
	for _, image := range images {
		length := 0
		if image.Text != nil {
			length = utf8.RuneCountInString(*image.Text)
		}
		totalText += length
		export.Images = append(export.Images, types.ExportImage{
			ID:          image.ID,
			Text:        image.Text,
			ProcessedAt: image.UploadedAt,
			TextLength:  length,
		})
	}

	export.Statistics = types.ExportStatistics{
		TotalImages:        len(images),
		TotalTextProcessed: totalText,
	}
	if len(images) > 0 {
		// images are newest first
		first := images[len(images)-1].UploadedAt
		last := images[0].UploadedAt
		export.Statistics.FirstImage = &first
		export.Statistics.LastImage = &last
	}

	return export, nil
}

// CanArchive reports whether an archive backend is configured.
func (s *StatsService) CanArchive() bool {
	return s.archiver != nil
}

// Archive writes the export to exports/<user_id>/<timestamp>.json and returns the key.
func (s *StatsService) Archive(ctx context.Context, export types.Export) (string, error) {
	if s.archiver == nil {
		return "", errors.New("export archiving is not configured")
	}

	key := fmt.Sprintf("exports/%d/%s.json", export.Profile.ID, export.Profile.ExportedAt.UTC().Format("20060102T150405Z"))
	if err := s.archiver.PutJSON(ctx, key, export); err != nil {
		logger.Log.Errorw("failed to archive export", "user_id", export.Profile.ID, "key", key, "error", err)
		return "", err
	}

	logger.Log.Infow("export archived", "user_id", export.Profile.ID, "key", key)
	return key, nil
}

// LanguageBreakdown is a placeholder. It returns a fixed table that does not
// depend on userID or on anything stored.
// TODO: persist the target language of each translation and aggregate it here.
func (s *StatsService) LanguageBreakdown(ctx context.Context, userID int) []types.LanguageCount {
	return []types.LanguageCount{
		{Language: "Spanish", Count: 12},
		{Language: "English", Count: 8},
		{Language: "French", Count: 5},
		{Language: "Catalan", Count: 3},
	}
}
