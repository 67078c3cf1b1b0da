package progress

import (
	"context"

	"taskflow/internal/cache"
	"taskflow/internal/models"
)

// FullProgressAt is the completed count that maps to 100 percent.
const FullProgressAt = 30

var levelBands = []struct {
	below int
	level models.Level
}{
	{5, models.LevelBeginner},
	{10, models.LevelExplorer},
	{20, models.LevelMaster},
	{30, models.LevelExpert},
}

// LevelFor maps a completed count to its level label.
func LevelFor(total int) models.Level {
	for _, band := range levelBands {
		if total < band.below {
			return band.level
		}
	}
	return models.LevelLegend
}

// PercentageFor returns floor(total/30*100), clamped to [0, 100].
func PercentageFor(total int) int {
	if total <= 0 {
		return 0
	}
	pct := total * 100 / FullProgressAt
	if pct > 100 {
		return 100
	}
	return pct
}

// TotalCompleted counts every completion username recorded.
func (s *Service) TotalCompleted(ctx context.Context, username string) (int, error) {
	return cache.Fetch(s.cache, progressKey(username), s.ttl.Progress, func() (int, error) {
		all, err := s.AllCompletedTexts(ctx, username)
		if err != nil {
			return 0, err
		}
		return len(all), nil
	})
}

// ComputeProgress fills the count, level and percentage of a snapshot. Map
// fields are left zero; see Snapshot.
func (s *Service) ComputeProgress(ctx context.Context, username string) (models.UserProgressSnapshot, error) {
	total, err := s.TotalCompleted(ctx, username)
	if err != nil {
		return models.UserProgressSnapshot{}, err
	}
	return models.UserProgressSnapshot{
		Username:           username,
		TotalCompleted:     total,
		Level:              LevelFor(total),
		ProgressPercentage: PercentageFor(total),
	}, nil
}
