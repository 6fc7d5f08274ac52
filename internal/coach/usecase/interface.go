package usecase

import (
	"context"

	coachdomain "mindbody-backend/internal/coach/domain"
)

// CoachUsecase routes chat messages to the coaching modules
type CoachUsecase interface {
	Reply(ctx context.Context, user, message string) (*coachdomain.Reply, error)
	WeeklyReport(ctx context.Context, user string) (*coachdomain.WeeklyReport, error)
	History(user string) []coachdomain.Message
	ResetHistory(user string)
	Persona() coachdomain.Persona
}
