package engine

import (
	"context"
	"math"

	"github.com/listforge/listforge-be/internal/domain"
)

// StatsAggregator builds the dashboard snapshot from live counts.
type StatsAggregator struct {
	submissions SubmissionStore
	directories DirectoryReader
}

func NewStatsAggregator(submissions SubmissionStore, directories DirectoryReader) *StatsAggregator {
	return &StatsAggregator{
		submissions: submissions,
		directories: directories,
	}
}

// DashboardStats counts submissions per status and directories. The
// success rate counts both approved and live submitted listings, since a
// submitted listing is already on the directory pending moderation.
func (a *StatsAggregator) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	counts, err := a.submissions.CountSubmissionsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	totalDirs, activeDirs, err := a.directories.CountDirectories(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	stats := &domain.DashboardStats{
		TotalSubmissions:     total,
		PendingSubmissions:   counts[domain.StatusPending],
		SubmittedSubmissions: counts[domain.StatusSubmitted],
		ApprovedSubmissions:  counts[domain.StatusApproved],
		FailedSubmissions:    counts[domain.StatusFailed],
		TotalDirectories:     totalDirs,
		ActiveDirectories:    activeDirs,
	}

	if total > 0 {
		successful := counts[domain.StatusApproved] + counts[domain.StatusSubmitted]
		rate := float64(successful) / float64(total) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}

	return stats, nil
}
