package models

// EngineMoveRequest asks the engine for its move on an arbitrary position.
// Cells are "X", "O" or "" (a "." or " " is also read as empty).
type EngineMoveRequest struct {
	Board    [][]string `json:"board" binding:"required,min=3,max=10"`
	Computer string     `json:"computer" binding:"required,oneof=X O"`
}

// ScoredMove is one root move with its minimax value. Row and Col are 1-based.
type ScoredMove struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Score float64 `json:"score"`
}

// EngineMoveResponse carries the chosen move and the search statistics.
type EngineMoveResponse struct {
	Row        int          `json:"row"`
	Col        int          `json:"col"`
	Score      float64      `json:"score"`
	Scores     []ScoredMove `json:"scores"`
	DepthLimit int          `json:"depth_limit"`
	MaxDepth   int          `json:"max_depth"`
	Nodes      int64        `json:"nodes"`
	Cutoffs    int64        `json:"cutoffs"`
}
