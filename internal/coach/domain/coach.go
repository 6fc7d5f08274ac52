package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mindbody-backend/pkg/recordstore"
)

// Module names the part of the coach that produced a reply.
type Module string

const (
	ModuleTraining   Module = "training"
	ModuleReflection Module = "reflection"
	ModuleMind       Module = "mind"
	ModuleWeekly     Module = "weekly"
	ModuleFallback   Module = "fallback"
)

const (
	RoleUser  = "user"
	RoleCoach = "coach"
)

// MemorySize is how many messages of a conversation the coach keeps.
const MemorySize = 10

var (
	ErrNotEnoughData = errors.New("not enough data yet to analyse your week")
	ErrEmptyMessage  = errors.New("message is empty")
)

type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type Reply struct {
	Module Module             `json:"module"`
	Text   string             `json:"text"`
	Logged recordstore.Record `json:"logged,omitempty"`
}

// Persona is the coach character, loaded from the profile file.
type Persona struct {
	Name         string `yaml:"name" json:"name"`
	Personality  string `yaml:"personality" json:"personality"`
	Goals        string `yaml:"goals" json:"goals"`
	Instructions string `yaml:"instructions" json:"instructions"`
	// Fallback replaces the built-in answer to messages no module understands.
	Fallback     string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// WeeklySummary aggregates the last seven days of workouts and mood check-ins.
type WeeklySummary struct {
	From           time.Time `json:"from"`
	Workouts       int       `json:"workouts"`
	TotalDuration  float64   `json:"total_duration_min"`
	AverageStress  *float64  `json:"average_stress,omitempty"`
	DurationColumn string    `json:"duration_column,omitempty"`
	StressColumn   string    `json:"stress_column,omitempty"`
}

type WeeklyReport struct {
	Summary WeeklySummary `json:"summary"`
	Text    string        `json:"text"`
}

// ColumnClarificationError reports a dataset whose needed column could not be found.
// The coach asks the user which column to use instead of guessing.
type ColumnClarificationError struct {
	Dataset string
	Wanted  string
	Columns []string
}

func (e *ColumnClarificationError) Error() string {
	return fmt.Sprintf("I can't find the %s column in your %s. The available columns are: %s. Which one holds the %s?",
		e.Wanted, e.Dataset, strings.Join(e.Columns, ", "), e.Wanted)
}
