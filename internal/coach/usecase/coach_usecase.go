package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	coachdomain "mindbody-backend/internal/coach/domain"
	"mindbody-backend/internal/coach/repository"
	journaldomain "mindbody-backend/internal/journal/domain"
	"mindbody-backend/pkg/ai"
	"mindbody-backend/pkg/fuzzy"
	"mindbody-backend/pkg/observability"
	"mindbody-backend/pkg/recordstore"
)

const (
	contextMessages = 8
	contextWorkouts = 5
	fallbackReply   = "I didn't quite get that. Can you tell me more, or how you are feeling?"
	unavailableText = "I can't reach my thoughts right now, but I'm here. Tell me more and we'll work through it together."
)

var (
	reflectionKeywords = []string{
		"corsa", "palestra", "allenamento", "allenato", "fatica", "giornata", "gara",
		"workout", "stanco", "demotivato", "solo", "svuotato", "stressato", "ansioso",
		"rassegnato", "felice", "training", "race", "tired", "lonely", "drained",
	}
	mindKeywords = []string{
		"stress", "ansia", "rilassat", "motivato", "triste", "agitato", "scarico",
		"isolato", "invidioso", "geloso", "anxious", "relaxed", "motivated", "sad", "angry",
	}
	weeklyKeywords = []string{"settimana", "report", "analisi", "riepilogo", "weekly", "week", "summary"}
)

var moduleInstructions = map[coachdomain.Module]string{
	coachdomain.ModuleReflection: "The user is reflecting on a training session or their day. Help them make sense of how it went, body and mind together.",
	coachdomain.ModuleMind:       "The user is describing their emotional state. Acknowledge it, then suggest one small concrete step.",
	coachdomain.ModuleWeekly:     "Comment on this weekly summary in a few sentences and suggest a focus for next week.",
}

var generateOptions = ai.GenerateOptions{Temperature: 0.7, MaxTokens: 512}

// coachUsecase implements CoachUsecase
type coachUsecase struct {
	records   repository.RecordReader
	workouts  repository.WorkoutLogger
	generator ai.TextGenerator
	persona   coachdomain.Persona
	memory    *conversationMemory
	now       func() time.Time
}

// NewCoachUsecase creates a new instance of coachUsecase. A nil generator leaves the
// coach answering with its built-in replies only.
func NewCoachUsecase(records repository.RecordReader, workouts repository.WorkoutLogger, generator ai.TextGenerator, persona coachdomain.Persona) CoachUsecase {
	return newCoachUsecase(records, workouts, generator, persona, time.Now)
}

func newCoachUsecase(records repository.RecordReader, workouts repository.WorkoutLogger, generator ai.TextGenerator, persona coachdomain.Persona, now func() time.Time) *coachUsecase {
	return &coachUsecase{
		records:   records,
		workouts:  workouts,
		generator: generator,
		persona:   persona,
		memory:    newConversationMemory(coachdomain.MemorySize),
		now:       now,
	}
}

func (u *coachUsecase) fallbackText() string {
	if text := strings.TrimSpace(u.persona.Fallback); text != "" {
		return text
	}
	return fallbackReply
}

func (u *coachUsecase) Persona() coachdomain.Persona {
	return u.persona
}

func (u *coachUsecase) History(user string) []coachdomain.Message {
	return u.memory.recent(user)
}

func (u *coachUsecase) ResetHistory(user string) {
	u.memory.clear(user)
}

// route picks the module for a message. Keyword groups are tried in a fixed order.
func route(message string) coachdomain.Module {
	if _, ok := workoutCommand(message); ok {
		return coachdomain.ModuleTraining
	}
	if _, ok := fuzzy.MatchAny(message, reflectionKeywords); ok {
		return coachdomain.ModuleReflection
	}
	if _, ok := fuzzy.MatchAny(message, mindKeywords); ok {
		return coachdomain.ModuleMind
	}
	if _, ok := fuzzy.MatchAny(message, weeklyKeywords); ok {
		return coachdomain.ModuleWeekly
	}
	return coachdomain.ModuleFallback
}

func (u *coachUsecase) Reply(ctx context.Context, user, message string) (*coachdomain.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, coachdomain.ErrEmptyMessage
	}
	history := u.memory.recent(user)
	u.memory.add(user, coachdomain.RoleUser, message, u.now())

	module := route(message)
	reply := &coachdomain.Reply{Module: module}
	var err error
	switch module {
	case coachdomain.ModuleTraining:
		err = u.logWorkout(ctx, user, message, reply)
	case coachdomain.ModuleReflection, coachdomain.ModuleMind:
		reply.Text = u.converse(ctx, user, module, message, history)
	case coachdomain.ModuleWeekly:
		reply.Text, err = u.weeklyReply(ctx, user)
	default:
		reply.Text = u.fallbackText()
	}
	if err != nil {
		return nil, err
	}

	u.memory.add(user, coachdomain.RoleCoach, reply.Text, u.now())
	observability.RecordCoachReply(string(module))
	log.Printf("[Coach] %s reply for %s", module, user)
	return reply, nil
}

func (u *coachUsecase) logWorkout(ctx context.Context, user, message string, reply *coachdomain.Reply) error {
	body, _ := workoutCommand(message)
	entry, err := parseWorkout(body)
	switch {
	case errors.Is(err, journaldomain.ErrUnknownSport):
		reply.Text = "Which sport was it? I know: " + sportList() + ". For example: /workout running 40 min 8 km."
		return nil
	case errors.Is(err, errMissingDuration):
		reply.Text = fmt.Sprintf("How long was your %s session? Tell me the minutes, for example: /workout %s 45 min.", entry.Sport, entry.Sport)
		return nil
	case err != nil:
		return err
	}

	rec, err := u.workouts.LogWorkout(ctx, user, entry)
	if errors.Is(err, journaldomain.ErrInvalidEntry) {
		reply.Text = "I couldn't log that workout: " + err.Error()
		return nil
	}
	if err != nil {
		return err
	}
	reply.Logged = rec

	if hasEmotion(body) {
		reply.Text = "Workout logged. Thanks for telling me how you feel, it matters as much as the numbers. Want to talk about it?"
		return nil
	}
	recent, err := u.records.ReadTable(ctx, user, journaldomain.DatasetWorkouts)
	if err != nil {
		return err
	}
	avg, count, trend := sportStats(recent.Rows, entry.Sport)
	reply.Text = workoutSummary(entry, avg, count, trend)
	return nil
}

func sportList() string {
	names := make([]string, len(journaldomain.Sports))
	for i, s := range journaldomain.Sports {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func (u *coachUsecase) weeklyReply(ctx context.Context, user string) (string, error) {
	report, err := u.WeeklyReport(ctx, user)
	var clarify *coachdomain.ColumnClarificationError
	switch {
	case errors.As(err, &clarify):
		return clarify.Error(), nil
	case errors.Is(err, coachdomain.ErrNotEnoughData):
		return "I don't have enough data yet to analyse your week. Log a workout or a mood check-in and ask me again.", nil
	case err != nil:
		return "", err
	}
	return report.Text, nil
}

// WeeklyReport summarises the last seven days and, when a model is available, adds the
// coach's comment.
func (u *coachUsecase) WeeklyReport(ctx context.Context, user string) (*coachdomain.WeeklyReport, error) {
	summary, err := u.summarizeWeek(ctx, user)
	if err != nil {
		return nil, err
	}
	text := weeklyText(summary)
	if comment := u.generate(ctx, user, coachdomain.ModuleWeekly, text, nil, text); comment != "" {
		text += "\n\n" + comment
	}
	return &coachdomain.WeeklyReport{Summary: summary, Text: text}, nil
}

// converse asks the model for a reply and falls back to a fixed answer when it fails.
func (u *coachUsecase) converse(ctx context.Context, user string, module coachdomain.Module, message string, history []coachdomain.Message) string {
	if text := u.generate(ctx, user, module, message, history, ""); text != "" {
		return text
	}
	return unavailableText
}

func (u *coachUsecase) generate(ctx context.Context, user string, module coachdomain.Module, message string, history []coachdomain.Message, extra string) string {
	if u.generator == nil {
		return ""
	}
	prompt, err := u.buildPrompt(ctx, user, module, message, history, extra)
	if err != nil {
		log.Printf("[Coach] Failed to build context for %s: %v", user, err)
		return ""
	}
	text, err := u.generator.Generate(ctx, prompt, generateOptions)
	if err != nil {
		log.Printf("[Coach] Model unavailable for %s reply: %v", module, err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (u *coachUsecase) buildPrompt(ctx context.Context, user string, module coachdomain.Module, message string, history []coachdomain.Message, extra string) (string, error) {
	var b strings.Builder
	b.WriteString(basePrompt(u.persona))

	profile, ok, err := u.records.Latest(ctx, user, journaldomain.DatasetProfile)
	if err != nil {
		return "", err
	}
	if ok {
		b.WriteString("\nUser profile:\n")
		writeFields(&b, profile, journaldomain.ProfileColumns)
	}

	workouts, err := u.records.ReadTable(ctx, user, journaldomain.DatasetWorkouts)
	if err != nil {
		return "", err
	}
	if rows := lastRows(workouts.Rows, contextWorkouts); len(rows) > 0 {
		b.WriteString("\nRecent workouts:\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "- %s %s: %s min\n", r[journaldomain.DateField], r["sport"], r["duration_min"])
		}
	}

	if msgs := lastMessages(history, contextMessages); len(msgs) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", moduleInstructions[module])
	if extra != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", extra)
	} else {
		fmt.Fprintf(&b, "\nuser: %s\n", message)
	}
	b.WriteString("coach:")
	return b.String(), nil
}

func writeFields(b *strings.Builder, rec recordstore.Record, columns []string) {
	for _, c := range columns {
		if c == journaldomain.EntryIDField || rec[c] == "" {
			continue
		}
		fmt.Fprintf(b, "- %s: %s\n", c, rec[c])
	}
}

func lastRows(rows []recordstore.Record, n int) []recordstore.Record {
	if len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}

func lastMessages(msgs []coachdomain.Message, n int) []coachdomain.Message {
	if len(msgs) > n {
		return msgs[len(msgs)-n:]
	}
	return msgs
}
