package controller

import (
	"log/slog"
	"net/http"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/api/repository"
	"ctchen222/BigTicTacToe/internal/api/response"

	"github.com/gin-gonic/gin"
)

// HistoryController serves finished games.
type HistoryController struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryController(historyRepo repository.HistoryRepository) *HistoryController {
	return &HistoryController{historyRepo: historyRepo}
}

// List returns the finished games of the player in the path.
func (hc *HistoryController) List(c *gin.Context) {
	playerID := c.Param("playerId")
	var query models.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	results, err := hc.historyRepo.ListByPlayer(c.Request.Context(), playerID, query.Limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to list history", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "could not load history")
		return
	}

	response.SuccessResponseList(c, results)
}
