package dto

import (
	coachdomain "mindbody-backend/internal/coach/domain"
)

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type MessageResponse struct {
	Reply coachdomain.Reply `json:"reply"`
}

type HistoryResponse struct {
	Persona  string                `json:"persona"`
	Messages []coachdomain.Message `json:"messages"`
}

type WeeklyResponse struct {
	Report *coachdomain.WeeklyReport `json:"report,omitempty"`
	// Message explains why there is no report yet.
	Message string `json:"message,omitempty"`
}
