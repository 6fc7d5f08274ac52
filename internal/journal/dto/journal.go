package dto

import (
	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/recordstore"
)

type WorkoutRequest struct {
	journaldomain.WorkoutEntry
	Date string `json:"date,omitempty"`
}

type MoodRequest struct {
	journaldomain.MoodEntry
	Date string `json:"date,omitempty"`
}

type EntryResponse struct {
	Entry recordstore.Record `json:"entry"`
}

type ProfileResponse struct {
	Profile recordstore.Record `json:"profile"`
}

type RowsResponse struct {
	Rows []recordstore.Record `json:"rows"`
}

type DatasetResponse struct {
	Dataset string               `json:"dataset"`
	Columns []string             `json:"columns"`
	Rows    []recordstore.Record `json:"rows"`
}
