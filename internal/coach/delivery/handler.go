package delivery

import (
	"errors"
	"net/http"

	authdelivery "mindbody-backend/internal/auth/delivery"
	coachdomain "mindbody-backend/internal/coach/domain"
	coachdto "mindbody-backend/internal/coach/dto"
	"mindbody-backend/internal/coach/usecase"

	"github.com/gin-gonic/gin"
)

type CoachHandler struct {
	coach usecase.CoachUsecase
}

func NewCoachHandler(coach usecase.CoachUsecase) *CoachHandler {
	return &CoachHandler{coach: coach}
}

// POST /api/coach/messages
func (h *CoachHandler) SendMessage(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	var req coachdto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.coach.Reply(c.Request.Context(), userID, req.Message)
	if errors.Is(err, coachdomain.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coachdto.MessageResponse{Reply: *reply})
}

// GET /api/coach/messages
func (h *CoachHandler) History(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, coachdto.HistoryResponse{
		Persona:  h.coach.Persona().Name,
		Messages: h.coach.History(userID),
	})
}

// DELETE /api/coach/messages
func (h *CoachHandler) ResetHistory(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	h.coach.ResetHistory(userID)
	c.Status(http.StatusNoContent)
}

// GET /api/coach/weekly
func (h *CoachHandler) Weekly(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	report, err := h.coach.WeeklyReport(c.Request.Context(), userID)
	var clarify *coachdomain.ColumnClarificationError
	switch {
	case errors.As(err, &clarify):
		c.JSON(http.StatusUnprocessableEntity, coachdto.WeeklyResponse{Message: clarify.Error()})
	case errors.Is(err, coachdomain.ErrNotEnoughData):
		c.JSON(http.StatusOK, coachdto.WeeklyResponse{Message: err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, coachdto.WeeklyResponse{Report: report})
	}
}
