package domain

import (
	"errors"
	"strings"
)

// Datasets written by the journal
const (
	DatasetWorkouts = "workouts"
	DatasetMood     = "mood"
	DatasetProfile  = "profile"
)

// ProvenanceManual tags rows typed in by the user.
const ProvenanceManual = "manual"

const (
	EntryIDField = "entry_id"
	DateField    = "date"
)

var (
	ErrInvalidEntry     = errors.New("invalid entry")
	ErrUnknownSport     = errors.New("unknown sport")
	ErrUnknownDataset   = errors.New("unknown dataset")
	ErrReadOnlyDataset  = errors.New("dataset is read-only")
	ErrInvalidEntryDate = errors.New("invalid entry date")
)

// Sport is one of the activities the manual log accepts.
type Sport string

const (
	SportRunning    Sport = "running"
	SportCycling    Sport = "cycling"
	SportGym        Sport = "gym"
	SportSwimming   Sport = "swimming"
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportYoga       Sport = "yoga"
	SportPilates    Sport = "pilates"
)

var Sports = []Sport{
	SportRunning, SportCycling, SportGym, SportSwimming,
	SportFootball, SportBasketball, SportYoga, SportPilates,
}

// sportAliases maps the Italian names users type in chat.
var sportAliases = map[string]Sport{
	"corsa":         SportRunning,
	"corsa outdoor": SportRunning,
	"corsa indoor":  SportRunning,
	"run":           SportRunning,
	"ciclismo":      SportCycling,
	"bici":          SportCycling,
	"cyclette":      SportCycling,
	"palestra":      SportGym,
	"nuoto":         SportSwimming,
	"calcio":        SportFootball,
	"soccer":        SportFootball,
	"basket":        SportBasketball,
}

// ParseSport resolves a sport name or alias, case-insensitively.
func ParseSport(name string) (Sport, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Sports {
		if string(s) == key {
			return s, true
		}
	}
	s, ok := sportAliases[key]
	return s, ok
}

// SportAliases lists every accepted sport word, canonical names first.
func SportAliases() map[string]Sport {
	out := make(map[string]Sport, len(Sports)+len(sportAliases))
	for _, s := range Sports {
		out[string(s)] = s
	}
	for k, v := range sportAliases {
		out[k] = v
	}
	return out
}

// WorkoutEntry is a manually logged session. Which optional fields are allowed depends
// on the sport.
type WorkoutEntry struct {
	Sport        Sport    `json:"sport"`
	Date         string   `json:"-"`
	DurationMin  float64  `json:"duration_min"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	HeartRate    *int     `json:"heart_rate,omitempty"`
	SlopePct     *float64 `json:"slope_pct,omitempty"`
	MuscleGroup  string   `json:"muscle_group,omitempty"`
	Exercises    *int     `json:"exercises,omitempty"`
	Intensity    *int     `json:"intensity,omitempty"`
	Laps         *int     `json:"laps,omitempty"`
	Stroke       string   `json:"stroke,omitempty"`
	Role         string   `json:"role,omitempty"`
	StressBefore *int     `json:"stress_before,omitempty"`
	StressAfter  *int     `json:"stress_after,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

var WorkoutColumns = []string{
	EntryIDField, DateField, "sport", "duration_min", "distance_km", "heart_rate", "slope_pct",
	"muscle_group", "exercises", "intensity", "laps", "stroke", "role",
	"stress_before", "stress_after", "notes",
}

// MoodEntry is one mind-state check-in.
type MoodEntry struct {
	Date   string `json:"-"`
	Mood   string `json:"mood"`
	Stress int    `json:"stress"`
	Energy *int   `json:"energy,omitempty"`
	Note   string `json:"note,omitempty"`
}

var MoodColumns = []string{EntryIDField, DateField, "mood", "stress", "energy", "note"}

// Profile is the user's physical profile. Every save is kept; the last one wins.
type Profile struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	Injuries string  `json:"injuries,omitempty"`
	Goals    string  `json:"goals,omitempty"`
}

var ProfileColumns = []string{EntryIDField, DateField, "weight_kg", "height_cm", "age", "sex", "injuries", "goals"}
