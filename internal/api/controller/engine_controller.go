package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/api/response"
	"ctchen222/BigTicTacToe/internal/api/service"

	"github.com/gin-gonic/gin"
)

// EngineController exposes the search engine over HTTP.
type EngineController struct {
	engineService service.EngineService
}

func NewEngineController(engineService service.EngineService) *EngineController {
	return &EngineController{engineService: engineService}
}

// BestMove returns the computer's move for the posted position.
func (ec *EngineController) BestMove(c *gin.Context) {
	var req models.EngineMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := ec.engineService.BestMove(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInvalidPosition):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(c.Request.Context(), "engine search failed", "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "search failed")
		return
	}

	response.SuccessResponse(c, resp)
}
