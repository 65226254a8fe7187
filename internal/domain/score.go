package domain

import (
	"math"
	"sort"
	"time"
)

// scoreScale is the number of stored units per point. Scores are kept as
// integer thousandths so totals do not depend on summation order.
const scoreScale = 1000

// ScoreUnits converts a point delta to stored units.
func ScoreUnits(points float64) int64 {
	return int64(math.Round(points * scoreScale))
}

// ScoreFromUnits converts stored units back to points.
func ScoreFromUnits(units int64) float64 {
	return float64(units) / scoreScale
}

// NewLeaderboard ranks entries by score descending. Entries must be passed in
// first-scored order; equal scores keep that order.
func NewLeaderboard(conversation string, entries []ScoreEntry, now time.Time) Leaderboard {
	ranked := make([]ScoreEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return Leaderboard{
		Conversation: conversation,
		Entries:      ranked,
		UpdatedAt:    now,
	}
}
