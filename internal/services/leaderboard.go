package services

import (
	"sort"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"

	"gorm.io/gorm"
)

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   uint   `json:"player_id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	TotalScore int    `json:"total_score"`
}

// LeaderboardService derives ranked standings from the answer rows on
// every call. Nothing is cached, so push (reveal/end) and pull (on-demand
// refresh) can never disagree for the same underlying answers.
type LeaderboardService struct {
	db *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// Standings ranks players by total answer score, descending; ties break by
// earliest JoinedAt so the order is deterministic, never an artifact of
// aggregation order.
func (s *LeaderboardService) Standings(sessionID uint) ([]LeaderboardEntry, error) {
	var players []models.LivePlayer
	if err := s.db.Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&players).Error; err != nil {
		return nil, err
	}

	type total struct {
		PlayerID uint
		Sum      int
	}
	var totals []total
	if err := s.db.Model(&models.LiveAnswer{}).
		Select("player_id, COALESCE(SUM(score), 0) AS sum").
		Where("session_id = ?", sessionID).
		Group("player_id").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	sums := make(map[uint]int, len(totals))
	for _, t := range totals {
		sums[t.PlayerID] = t.Sum
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			Avatar:     p.Avatar,
			TotalScore: sums[p.ID],
		})
	}

	// players is already joined_at ASC, so a stable sort on score keeps
	// the tie-break deterministic.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
