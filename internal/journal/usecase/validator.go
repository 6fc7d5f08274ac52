package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	journaldomain "mindbody-backend/internal/journal/domain"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/journal.json
var schemaJSON []byte

const schemaURL = "https://mindbody.local/schema/journal.json"

// sportSchemas maps each sport to the definition holding its field set.
var sportSchemas = map[journaldomain.Sport]string{
	journaldomain.SportRunning:    "endurance",
	journaldomain.SportCycling:    "endurance",
	journaldomain.SportGym:        "gym",
	journaldomain.SportSwimming:   "swimming",
	journaldomain.SportFootball:   "team",
	journaldomain.SportBasketball: "team",
	journaldomain.SportYoga:       "mindBody",
	journaldomain.SportPilates:    "mindBody",
}

type validator struct {
	workouts map[journaldomain.Sport]*jsonschema.Schema
	mood     *jsonschema.Schema
	profile  *jsonschema.Schema
}

func newValidator() (*validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse journal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add journal schema: %w", err)
	}
	compile := func(def string) (*jsonschema.Schema, error) {
		sch, err := c.Compile(schemaURL + "#/$defs/" + def)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", def, err)
		}
		return sch, nil
	}

	v := &validator{workouts: make(map[journaldomain.Sport]*jsonschema.Schema, len(sportSchemas))}
	for sport, def := range sportSchemas {
		if v.workouts[sport], err = compile(def); err != nil {
			return nil, err
		}
	}
	if v.mood, err = compile("mood"); err != nil {
		return nil, err
	}
	if v.profile, err = compile("profile"); err != nil {
		return nil, err
	}
	return v, nil
}

// check validates value against sch and returns its JSON form as a flat map.
func check(sch *jsonschema.Schema, value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", journaldomain.ErrInvalidEntry, err)
	}
	fields, ok := inst.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", journaldomain.ErrInvalidEntry)
	}
	return fields, nil
}

func (v *validator) workout(entry journaldomain.WorkoutEntry) (map[string]any, error) {
	sch, ok := v.workouts[entry.Sport]
	if !ok {
		return nil, fmt.Errorf("%w: %q", journaldomain.ErrUnknownSport, entry.Sport)
	}
	return check(sch, entry)
}

func (v *validator) moodEntry(entry journaldomain.MoodEntry) (map[string]any, error) {
	return check(v.mood, entry)
}

func (v *validator) profileEntry(p journaldomain.Profile) (map[string]any, error) {
	return check(v.profile, p)
}
