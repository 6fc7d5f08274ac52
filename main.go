package main

import (
	"context"
	"log"

	api "mindbody-backend/cmd/api"
	authdomain "mindbody-backend/internal/auth/domain"
	authRepo "mindbody-backend/internal/auth/repository"
	authUsecase "mindbody-backend/internal/auth/usecase"
	coachUsecase "mindbody-backend/internal/coach/usecase"
	fitnessdomain "mindbody-backend/internal/fitness/domain"
	"mindbody-backend/internal/fitness/scheduler"
	fitnessUsecase "mindbody-backend/internal/fitness/usecase"
	journalUsecase "mindbody-backend/internal/journal/usecase"
	"mindbody-backend/pkg/ai"
	"mindbody-backend/pkg/config"
	"mindbody-backend/pkg/database"
	"mindbody-backend/pkg/myfitnesspal"
	"mindbody-backend/pkg/recordstore"
	"mindbody-backend/pkg/strava"
	"mindbody-backend/pkg/tokenstore"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Storage: per-user CSV datasets and the credential document live under DATA_DIR
	records := recordstore.New(cfg.DataDir)
	tokens := tokenstore.New(cfg.DataDir, map[string][]string{
		fitnessdomain.ProviderStrava:       {"access_token"},
		fitnessdomain.ProviderMyFitnessPal: {"username", "password"},
	})

	// Users go to Postgres when DATABASE_URL is set, otherwise to DATA_DIR/users.csv
	var userRepo authRepo.UserRepository
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		if err := db.AutoMigrate(&authdomain.User{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		userRepo = authRepo.NewUserRepository(db)
	} else {
		log.Printf("[WARN] DATABASE_URL not configured, storing users in %s", cfg.DataDir)
		userRepo = authRepo.NewCSVUserRepository(records)
	}

	// Provider clients
	stravaClient := strava.NewClient(strava.Config{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RedirectURI:  cfg.StravaRedirectURI,
		AuthURL:      cfg.StravaAuthURL,
		TokenURL:     cfg.StravaTokenURL,
		APIBase:      cfg.StravaAPIBase,
	})
	mfpClient := myfitnesspal.NewClient(cfg.MyFitnessPalBaseURL, cfg.HTTPTimeout)
	registry := fitnessUsecase.NewProviderRegistry(stravaClient, mfpClient)

	// Initialize use cases (dependency injection)
	syncUsecase := fitnessUsecase.NewSyncUsecase(registry, records, tokens, cfg.StravaPageSize)
	// Every saved credential triggers an immediate sync
	tokens.SetSyncCallback(func(ctx context.Context, user, provider string, blob tokenstore.Blob) error {
		result := syncUsecase.Sync(ctx, user, provider, blob)
		if !result.OK() {
			log.Printf("[Sync] Post-connect sync of %s for %s failed: %s", provider, user, result.Error)
		}
		return nil
	})
	connectionUsecase := fitnessUsecase.NewConnectionUsecase(registry, tokens, syncUsecase, cfg.JWTSecret, cfg.OAuthStateExpiry)
	importUsecase := fitnessUsecase.NewImportUsecase(registry, records)

	syncScheduler := scheduler.NewSyncScheduler(tokens, connectionUsecase, cfg.SyncInterval)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	journal, err := journalUsecase.NewJournalUsecase(records)
	if err != nil {
		log.Fatal("Failed to initialize journal:", err)
	}

	// AI service reads Ollama settings through getters so the settings API can change them at runtime
	api.InitRuntimeConfig(cfg.OllamaBaseURL, cfg.OllamaModel)
	generator, err := ai.NewTextGenerator(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiApiKey,
		OllamaBaseURL: api.GetRuntimeOllamaBaseURL,
		OllamaModel:   api.GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize AI service, coach will use built-in replies: %v", err)
	} else {
		log.Printf("AI service initialized with provider: %s", cfg.AIProvider)
	}

	persona, err := coachUsecase.LoadPersona(cfg.CoachProfilePath)
	if err != nil {
		log.Fatal("Failed to load coach persona:", err)
	}
	coach := coachUsecase.NewCoachUsecase(records, journal, generator, persona)

	// Initialize HTTP handler
	handler := api.NewHandler(api.Usecases{
		Auth:        authUsecase.NewAuthUsecase(userRepo, cfg),
		Connections: connectionUsecase,
		Syncs:       syncUsecase,
		Imports:     importUsecase,
		Journal:     journal,
		Coach:       coach,
	}, ai.NewOllamaServiceWithGetters(api.GetRuntimeOllamaBaseURL, api.GetRuntimeOllamaModel))

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
