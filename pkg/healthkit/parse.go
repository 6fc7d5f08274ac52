// Package healthkit reads the workouts of an Apple Health export.xml.
package healthkit

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"mindbody-backend/pkg/recordstore"
)

// SourceLabel is the provenance of every imported workout.
const SourceLabel = "apple_health"

// StartField identifies a workout within an export.
const StartField = "start_date"

// Columns is the column order of a workout record.
var Columns = []string{
	StartField, "end_date", "workout_type", "duration_min", "distance_km", "calories", "source_name",
}

var ErrNoWorkouts = errors.New("health export contains no workouts")

const (
	typePrefix     = "HKWorkoutActivityType"
	exportLayout   = "2006-01-02 15:04:05 -0700"
	distanceSuffix = "Distance"
	energyType     = "HKQuantityTypeIdentifierActiveEnergyBurned"
)

type Workout struct {
	Type        string
	Start       string
	End         string
	DurationMin float64
	DistanceKm  *float64
	Calories    *float64
	SourceName  string
}

type statistic struct {
	Type string `xml:"type,attr"`
	Sum  string `xml:"sum,attr"`
	Unit string `xml:"unit,attr"`
}

type workoutElement struct {
	ActivityType      string      `xml:"workoutActivityType,attr"`
	Duration          string      `xml:"duration,attr"`
	DurationUnit      string      `xml:"durationUnit,attr"`
	TotalDistance     string      `xml:"totalDistance,attr"`
	TotalDistanceUnit string      `xml:"totalDistanceUnit,attr"`
	TotalEnergy       string      `xml:"totalEnergyBurned,attr"`
	TotalEnergyUnit   string      `xml:"totalEnergyBurnedUnit,attr"`
	SourceName        string      `xml:"sourceName,attr"`
	StartDate         string      `xml:"startDate,attr"`
	EndDate           string      `xml:"endDate,attr"`
	Statistics        []statistic `xml:"WorkoutStatistics"`
}

// Parse walks the export and returns its workouts in document order. Health records
// other than workouts are skipped without being decoded. A workout with an unreadable
// number fails the whole parse.
func Parse(data []byte) ([]Workout, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var workouts []Workout
	depth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed health export: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth == 0 && el.Name.Local != "HealthData" {
				return nil, fmt.Errorf("malformed health export: root element is <%s>", el.Name.Local)
			}
			if depth == 1 && el.Name.Local == "Workout" {
				var raw workoutElement
				if err := dec.DecodeElement(&raw, &el); err != nil {
					return nil, fmt.Errorf("malformed health export: %w", err)
				}
				w, err := raw.workout()
				if err != nil {
					return nil, err
				}
				workouts = append(workouts, w)
				continue
			}
			if depth == 1 {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("malformed health export: %w", err)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	if len(workouts) == 0 {
		return nil, ErrNoWorkouts
	}
	return workouts, nil
}

func (e workoutElement) workout() (Workout, error) {
	w := Workout{
		Type:       activityName(e.ActivityType),
		Start:      normalizeDate(e.StartDate),
		End:        normalizeDate(e.EndDate),
		SourceName: strings.TrimSpace(e.SourceName),
	}

	if strings.TrimSpace(e.Duration) != "" {
		d, err := parseNumber("duration", e.Duration)
		if err != nil {
			return w, err
		}
		w.DurationMin = minutes(d, e.DurationUnit)
	}

	distance, distanceUnit := e.TotalDistance, e.TotalDistanceUnit
	energy, energyUnit := e.TotalEnergy, e.TotalEnergyUnit
	// newer exports move the totals into WorkoutStatistics children
	for _, s := range e.Statistics {
		switch {
		case distance == "" && strings.HasSuffix(s.Type, distanceSuffix):
			distance, distanceUnit = s.Sum, s.Unit
		case energy == "" && s.Type == energyType:
			energy, energyUnit = s.Sum, s.Unit
		}
	}

	if strings.TrimSpace(distance) != "" {
		v, err := parseNumber("distance", distance)
		if err != nil {
			return w, err
		}
		km := kilometres(v, distanceUnit)
		w.DistanceKm = &km
	}
	if strings.TrimSpace(energy) != "" {
		v, err := parseNumber("energy", energy)
		if err != nil {
			return w, err
		}
		kcal := kilocalories(v, energyUnit)
		w.Calories = &kcal
	}
	return w, nil
}

// Records flattens workouts into table rows.
func Records(workouts []Workout) []recordstore.Record {
	out := make([]recordstore.Record, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, recordstore.Record{
			StartField:     w.Start,
			"end_date":     w.End,
			"workout_type": w.Type,
			"duration_min": recordstore.FormatValue(round2(w.DurationMin)),
			"distance_km":  optional(w.DistanceKm),
			"calories":     optional(w.Calories),
			"source_name":  w.SourceName,
		})
	}
	return out
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return recordstore.FormatValue(round2(*v))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func parseNumber(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("malformed health export: invalid %s %q", field, raw)
	}
	return v, nil
}

func minutes(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "s", "sec":
		return v / 60
	case "hr", "h":
		return v * 60
	default:
		return v
	}
}

func kilometres(v float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "m":
		return v / 1000
	case "mi":
		return v * 1.609344
	case "yd":
		return v * 0.0009144
	default:
		return v
	}
}

func kilocalories(v float64, unit string) float64 {
	if strings.EqualFold(strings.TrimSpace(unit), "kJ") {
		return v / 4.184
	}
	return v
}

// activityName turns HKWorkoutActivityTypeTraditionalStrengthTraining into
// traditional_strength_training and HKWorkoutActivityTypeHIIT into hiit.
func activityName(raw string) string {
	name := strings.TrimPrefix(strings.TrimSpace(raw), typePrefix)
	if name == "" {
		return "unknown"
	}
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			if prevLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
			prevLower = false
		} else {
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeDate rewrites export timestamps as RFC 3339 and leaves anything else as is.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(exportLayout, raw); err == nil {
		return t.Format(time.RFC3339)
	}
	return raw
}
