package delivery

import (
	"errors"
	"net/http"
	"strconv"

	authdelivery "mindbody-backend/internal/auth/delivery"
	journaldomain "mindbody-backend/internal/journal/domain"
	journaldto "mindbody-backend/internal/journal/dto"
	"mindbody-backend/internal/journal/usecase"
	"mindbody-backend/pkg/recordstore"

	"github.com/gin-gonic/gin"
)

type JournalHandler struct {
	journal usecase.JournalUsecase
}

func NewJournalHandler(journal usecase.JournalUsecase) *JournalHandler {
	return &JournalHandler{journal: journal}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, journaldomain.ErrInvalidEntry),
		errors.Is(err, journaldomain.ErrUnknownSport),
		errors.Is(err, journaldomain.ErrInvalidEntryDate):
		return http.StatusBadRequest
	case errors.Is(err, journaldomain.ErrUnknownDataset),
		errors.Is(err, recordstore.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, journaldomain.ErrReadOnlyDataset):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/journal/workouts
func (h *JournalHandler) LogWorkout(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	var req journaldto.WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := req.WorkoutEntry
	entry.Date = req.Date

	rec, err := h.journal.LogWorkout(c.Request.Context(), userID, entry)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, journaldto.EntryResponse{Entry: rec})
}

// POST /api/journal/mood
func (h *JournalHandler) LogMood(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	var req journaldto.MoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := req.MoodEntry
	entry.Date = req.Date

	rec, err := h.journal.LogMood(c.Request.Context(), userID, entry)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, journaldto.EntryResponse{Entry: rec})
}

// GET /api/profile
func (h *JournalHandler) GetProfile(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	profile, found, err := h.journal.CurrentProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profile saved yet"})
		return
	}
	c.JSON(http.StatusOK, journaldto.ProfileResponse{Profile: profile})
}

// PUT /api/profile
func (h *JournalHandler) SaveProfile(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	var req journaldomain.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.journal.SaveProfile(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, journaldto.ProfileResponse{Profile: rec})
}

// GET /api/profile/history
func (h *JournalHandler) ProfileHistory(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	rows, err := h.journal.ProfileHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, journaldto.RowsResponse{Rows: rows})
}

// GET /api/datasets/:dataset
func (h *JournalHandler) GetDataset(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	name := c.Param("dataset")
	table, err := h.journal.Dataset(c.Request.Context(), userID, name)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, journaldto.DatasetResponse{Dataset: name, Columns: table.Columns, Rows: table.Rows})
}

// DELETE /api/datasets/:dataset/rows/:index
func (h *JournalHandler) DeleteRow(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}
	if err := h.journal.DeleteEntry(c.Request.Context(), userID, c.Param("dataset"), index); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "row deleted"})
}
