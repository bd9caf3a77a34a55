package models

import "time"

// GameResult is one finished game stored in the game_results table.
type GameResult struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	PlayerID   string    `db:"player_id" json:"player_id"`
	BoardSize  int       `db:"board_size" json:"board_size"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	HumanMark  string    `db:"human_mark" json:"human_mark"`
	Winner     string    `db:"winner" json:"winner"`
	IsDraw     bool      `db:"is_draw" json:"is_draw"`
	Moves      int       `db:"moves" json:"moves"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// Outcome describes the game from the human's point of view.
func (r GameResult) Outcome() string {
	switch {
	case r.IsDraw:
		return "draw"
	case r.Winner == r.HumanMark:
		return "won"
	default:
		return "lost"
	}
}

// HistoryQuery binds the query string of the history endpoint.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
