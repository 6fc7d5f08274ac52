package delivery

import (
	"errors"
	"io"
	"net/http"

	authdelivery "mindbody-backend/internal/auth/delivery"
	fitnessdomain "mindbody-backend/internal/fitness/domain"
	fitnessdto "mindbody-backend/internal/fitness/dto"
	"mindbody-backend/internal/fitness/usecase"

	"github.com/gin-gonic/gin"
)

// Upload limits. Apple Health exports carry every health sample, not only workouts.
const (
	maxUploadSize       = 20 << 20
	maxHealthExportSize = 256 << 20
)

type FitnessHandler struct {
	connections usecase.ConnectionUsecase
	syncs       usecase.SyncUsecase
	imports     usecase.ImportUsecase
}

func NewFitnessHandler(connections usecase.ConnectionUsecase, syncs usecase.SyncUsecase, imports usecase.ImportUsecase) *FitnessHandler {
	return &FitnessHandler{
		connections: connections,
		syncs:       syncs,
		imports:     imports,
	}
}

// errorStatus maps connection errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, fitnessdomain.ErrUnsupportedProvider):
		return http.StatusNotFound
	case errors.Is(err, fitnessdomain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, fitnessdomain.ErrWrongProviderKind),
		errors.Is(err, fitnessdomain.ErrInvalidState),
		errors.Is(err, fitnessdomain.ErrAuthorizationDenied):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// resultStatus maps a structured sync result to an HTTP status code.
func resultStatus(res fitnessdomain.SyncResult) int {
	switch {
	case res.OK():
		return http.StatusOK
	case res.Error == fitnessdomain.ErrUnsupportedProvider.Error():
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

// GET /api/connections
func (h *FitnessHandler) ListConnections(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	conns, err := h.connections.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitnessdto.ConnectionsResponse{Connections: conns})
}

// GET /api/connections/:provider
func (h *FitnessHandler) GetConnection(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	conn, err := h.connections.Status(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, conn)
}

// POST /api/connections/:provider/connect
func (h *FitnessHandler) Connect(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	req, err := h.connections.RequestConnect(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitnessdto.ConnectResponse{
		Provider:         req.Provider,
		State:            req.State,
		AuthorizationURL: req.AuthURL,
		ExpiresAt:        req.ExpiresAt,
	})
}

// GET /api/connections/:provider/callback
// The user is identified by the signed state, so this route is public.
func (h *FitnessHandler) Callback(c *gin.Context) {
	conn, err := h.connections.HandleCallback(c.Request.Context(), c.Param("provider"),
		c.Query("state"), c.Query("code"), c.Query("error"))
	if err != nil {
		c.JSON(errorStatus(err), fitnessdto.ConnectionResponse{Connection: conn, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitnessdto.ConnectionResponse{Connection: conn})
}

// POST /api/connections/:provider/credentials
func (h *FitnessHandler) SubmitCredentials(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	var req fitnessdto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.connections.SubmitCredentials(c.Request.Context(), userID, c.Param("provider"), req.Username, req.Password)
	if err != nil {
		status := errorStatus(err)
		if conn != nil {
			// the provider answered; its reason is the user's problem to fix
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, fitnessdto.ConnectionResponse{Connection: conn, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitnessdto.ConnectionResponse{Connection: conn})
}

// DELETE /api/connections/:provider
func (h *FitnessHandler) Disconnect(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	conn, err := h.connections.Disconnect(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, conn)
}

// POST /api/sync/:provider
func (h *FitnessHandler) SyncNow(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	res, err := h.connections.SyncNow(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(resultStatus(res), res)
}

// GET /api/sync/history
func (h *FitnessHandler) History(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	runs, err := h.syncs.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitnessdto.HistoryResponse{Runs: runs})
}

// POST /api/imports/:provider (gpx or apple_health)
func (h *FitnessHandler) ImportFile(c *gin.Context) {
	userID, ok := authdelivery.CurrentUserID(c)
	if !ok {
		return
	}
	provider := c.Param("provider")
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	limit := int64(maxUploadSize)
	if provider == fitnessdomain.ProviderAppleHealth {
		limit = maxHealthExportSize
	}
	if file.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.imports.ImportFile(c.Request.Context(), userID, provider, file.Filename, data)
	c.JSON(resultStatus(res), res)
}
