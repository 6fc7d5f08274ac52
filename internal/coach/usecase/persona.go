package usecase

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	coachdomain "mindbody-backend/internal/coach/domain"

	"gopkg.in/yaml.v3"
)

var defaultPersona = coachdomain.Persona{
	Name:         "Coach",
	Personality:  "empathetic and motivating",
	Goals:        "help the user balance training, rest and wellbeing",
	Instructions: "answer warmly and concretely",
}

// LoadPersona reads the coach profile. A missing file falls back to a neutral persona.
func LoadPersona(path string) (coachdomain.Persona, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[Coach] Persona file %s not found, using default persona", path)
		return defaultPersona, nil
	}
	if err != nil {
		return coachdomain.Persona{}, err
	}

	var p coachdomain.Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return coachdomain.Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = defaultPersona.Name
	}
	log.Printf("[Coach] Persona loaded: %s", p.Name)
	return p, nil
}

func basePrompt(p coachdomain.Persona) string {
	var b strings.Builder
	b.WriteString("You are a coach with the following traits:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Personality: %s\n", strings.TrimSpace(p.Personality))
	fmt.Fprintf(&b, "Goals: %s\n", strings.TrimSpace(p.Goals))
	fmt.Fprintf(&b, "Instructions: %s\n", strings.TrimSpace(p.Instructions))
	b.WriteString("Always answer with empathy and motivation.\n")
	return b.String()
}
