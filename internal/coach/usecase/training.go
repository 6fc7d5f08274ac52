package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/recordstore"
)

var workoutCommands = []string{"/workout", "/allenamento"}

var (
	minutesPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:minuti|minutes|mins|min)\b`)
	kmPattern      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*km\b`)
	bpmPattern     = regexp.MustCompile(`(?i)(\d+)\s*bpm\b`)
	slopePattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	lapsPattern    = regexp.MustCompile(`(?i)(\d+)\s*(?:vasche|laps|giri)\b`)
)

// emotionalWords make a workout message worth a mood reply instead of a stats summary.
var emotionalWords = []string{
	"stanco", "stanca", "felice", "motivato", "motivata", "stressato", "stressata",
	"demotivato", "tired", "happy", "stressed", "exhausted",
}

const maxNoteLength = 2000

var errMissingDuration = errors.New("missing duration")

// workoutCommand reports whether text starts with a workout command and returns the rest.
func workoutCommand(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, cmd := range workoutCommands {
		if lower == cmd {
			return "", true
		}
		if strings.HasPrefix(lower, cmd+" ") {
			return strings.TrimSpace(trimmed[len(cmd):]), true
		}
	}
	return "", false
}

// sportAliasesByLength puts multi-word aliases ahead of their prefixes.
func sportAliasesByLength() []string {
	aliases := journaldomain.SportAliases()
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func findSport(text string) (journaldomain.Sport, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	padded := " " + strings.Join(words, " ") + " "
	aliases := journaldomain.SportAliases()
	for _, alias := range sportAliasesByLength() {
		if strings.Contains(padded, " "+alias+" ") {
			return aliases[alias], true
		}
	}
	return "", false
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	return v, err == nil
}

func firstNumber(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

// parseWorkout extracts a workout from a free-text chat message. Only fields the sport
// accepts are filled in.
func parseWorkout(text string) (journaldomain.WorkoutEntry, error) {
	sport, ok := findSport(text)
	if !ok {
		return journaldomain.WorkoutEntry{}, journaldomain.ErrUnknownSport
	}
	entry := journaldomain.WorkoutEntry{Sport: sport}

	minutes, ok := firstNumber(minutesPattern, text)
	if !ok || minutes <= 0 {
		return entry, errMissingDuration
	}
	entry.DurationMin = minutes

	km, hasKm := firstNumber(kmPattern, text)
	bpm, hasBpm := firstNumber(bpmPattern, text)
	slope, hasSlope := firstNumber(slopePattern, text)

	switch sport {
	case journaldomain.SportRunning, journaldomain.SportCycling:
		if hasKm {
			entry.DistanceKm = &km
		}
		if hasBpm {
			hr := int(bpm)
			entry.HeartRate = &hr
		}
		if hasSlope {
			entry.SlopePct = &slope
		}
	case journaldomain.SportSwimming:
		if hasBpm {
			hr := int(bpm)
			entry.HeartRate = &hr
		}
		if laps, ok := firstNumber(lapsPattern, text); ok && laps >= 1 {
			n := int(laps)
			entry.Laps = &n
		}
	case journaldomain.SportGym:
		entry.MuscleGroup = "general"
	}
	if len(text) <= maxNoteLength {
		entry.Notes = text
	}
	return entry, nil
}

func hasEmotion(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range emotionalWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// sportStats returns the average duration of a sport and how the latest session compares.
func sportStats(rows []recordstore.Record, sport journaldomain.Sport) (avg float64, count int, trend string) {
	var durations []float64
	for _, r := range rows {
		if r["sport"] != string(sport) {
			continue
		}
		if d, ok := parseNumber(r["duration_min"]); ok {
			durations = append(durations, d)
		}
	}
	if len(durations) == 0 {
		return 0, 0, ""
	}
	total := 0.0
	for _, d := range durations {
		total += d
	}
	avg = total / float64(len(durations))
	last := durations[len(durations)-1]
	switch {
	case len(durations) < 2:
		trend = "first session"
	case last > avg:
		trend = "above average"
	case last < avg:
		trend = "below average"
	default:
		trend = "in line with your average"
	}
	return avg, len(durations), trend
}

func workoutSummary(entry journaldomain.WorkoutEntry, avg float64, count int, trend string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Logged your %s session: %s minutes", entry.Sport, recordstore.FormatValue(entry.DurationMin))
	if entry.DistanceKm != nil {
		fmt.Fprintf(&b, ", %s km", recordstore.FormatValue(*entry.DistanceKm))
	}
	if entry.HeartRate != nil {
		fmt.Fprintf(&b, ", %d bpm", *entry.HeartRate)
	}
	b.WriteString(".")
	if count > 0 {
		fmt.Fprintf(&b, " Your average over %d %s sessions is %.0f minutes, this one is %s.", count, entry.Sport, avg, trend)
	}
	return b.String()
}
