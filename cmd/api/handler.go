package api

import (
	authDelivery "mindbody-backend/internal/auth/delivery"
	authUsecase "mindbody-backend/internal/auth/usecase"
	coachDelivery "mindbody-backend/internal/coach/delivery"
	coachUsecase "mindbody-backend/internal/coach/usecase"
	fitnessDelivery "mindbody-backend/internal/fitness/delivery"
	fitnessUsecase "mindbody-backend/internal/fitness/usecase"
	journalDelivery "mindbody-backend/internal/journal/delivery"
	journalUsecase "mindbody-backend/internal/journal/usecase"
	"mindbody-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	authHandler    *authDelivery.AuthHandler
	fitnessHandler *fitnessDelivery.FitnessHandler
	journalHandler *journalDelivery.JournalHandler
	coachHandler   *coachDelivery.CoachHandler
	settings       *SettingsHandler
}

// Usecases groups everything the HTTP layer serves.
type Usecases struct {
	Auth        authUsecase.AuthUsecase
	Connections fitnessUsecase.ConnectionUsecase
	Syncs       fitnessUsecase.SyncUsecase
	Imports     fitnessUsecase.ImportUsecase
	Journal     journalUsecase.JournalUsecase
	Coach       coachUsecase.CoachUsecase
}

func NewHandler(uc Usecases, ollama *ai.OllamaService) *Handler {
	return &Handler{
		authUsecase:    uc.Auth,
		authHandler:    authDelivery.NewAuthHandler(uc.Auth),
		fitnessHandler: fitnessDelivery.NewFitnessHandler(uc.Connections, uc.Syncs, uc.Imports),
		journalHandler: journalDelivery.NewJournalHandler(uc.Journal),
		coachHandler:   coachDelivery.NewCoachHandler(uc.Coach),
		settings:       NewSettingsHandler(ollama),
	}
}

// corsMiddleware echoes the caller's origin so browser clients can send credentials.
func corsMiddleware(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	}

	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

// Engine builds the gin engine with middleware and routes.
func (h *Handler) Engine() *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware)
	SetupRoutes(r, h)
	return r
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	return h.Engine().Run(addr)
}
