package app

import (
	"sort"

	"studysync-service/internal/domain"
)

// ComputeLeaderboard ranks a room's participants by score, highest first.
// Equal scores keep join order.
func ComputeLeaderboard(room *domain.Room) []domain.LeaderboardEntry {
	participants := room.Participants()
	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			ID:    p.ConnID,
			Name:  p.DisplayName,
			Score: p.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
