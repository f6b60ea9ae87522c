package services

import (
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"

	"gorm.io/gorm"
)

type ExportCell struct {
	ItemID     uint   `json:"item_id"`
	AnswerText string `json:"answer_text"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
	Points     int    `json:"points"`
}

type ExportRow struct {
	Rank       int          `json:"rank"`
	PlayerID   uint         `json:"player_id"`
	Name       string       `json:"name"`
	TotalScore int          `json:"total_score"`
	Cells      []ExportCell `json:"cells"`
}

// ExportService produces the deterministic results table: one row per
// player in leaderboard order, one column set per quiz item.
type ExportService struct {
	db       *gorm.DB
	sessions *SessionService
	board    *LeaderboardService
}

func NewExportService(db *gorm.DB, sessions *SessionService, board *LeaderboardService) *ExportService {
	return &ExportService{db: db, sessions: sessions, board: board}
}

func (s *ExportService) Results(sessionID, hostID uint) ([]ExportRow, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ForbiddenError{Reason: "only the host may export results"}
	}

	items := s.sessions.orderedItems(session.QuizID)
	entries, err := s.board.Standings(sessionID)
	if err != nil {
		return nil, err
	}

	var answers []models.LiveAnswer
	if err := s.db.Where("session_id = ?", sessionID).Find(&answers).Error; err != nil {
		return nil, err
	}
	byKey := make(map[[2]uint]models.LiveAnswer, len(answers))
	for _, a := range answers {
		byKey[[2]uint{a.PlayerID, a.QuizItemID}] = a
	}

	optionText := make(map[uint]string)
	for _, item := range items {
		for _, o := range item.Options {
			optionText[o.ID] = o.Text
		}
	}

	rows := make([]ExportRow, 0, len(entries))
	for _, e := range entries {
		row := ExportRow{
			Rank:       e.Rank,
			PlayerID:   e.PlayerID,
			Name:       e.Name,
			TotalScore: e.TotalScore,
			Cells:      make([]ExportCell, 0, len(items)),
		}
		for _, item := range items {
			cell := ExportCell{ItemID: item.ID}
			if a, ok := byKey[[2]uint{e.PlayerID, item.ID}]; ok {
				cell.AnswerText = a.Payload
				if a.OptionID != nil {
					cell.AnswerText = optionText[*a.OptionID]
				}
				cell.IsCorrect = a.IsCorrect
				cell.Points = a.Score
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
