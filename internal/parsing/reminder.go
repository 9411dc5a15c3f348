package parsing

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
)

var (
	// ReminderTypes is the closed set of reminder types.
	ReminderTypes = []string{"task", "event", "payment", "appointment", "medication", "general"}
	// Priorities is the closed set of reminder priorities.
	Priorities = []string{"low", "medium", "high", "urgent"}
)

const (
	DefaultReminderType = "task"
	DefaultPriority     = "medium"
)

//go:embed schemas/reminder.json
var reminderSchema []byte

// Reminder is the reminder extraction domain.
var Reminder = &Domain{
	Kind: domain.KindReminder,
	Fields: []Field{
		{Name: "title", Kind: FieldText, Required: true, MaxLen: 255},
		{Name: "due_datetime", Kind: FieldDateTime, Required: true},
		{Name: "priority", Kind: FieldEnum, Required: true, Enum: Priorities,
			Default: func(domain.UserContext) string { return DefaultPriority }},
		{Name: "type", Kind: FieldEnum, Required: true, Enum: ReminderTypes,
			Default: func(domain.UserContext) string { return DefaultReminderType }},
		{Name: "description", Kind: FieldText},
	},
	Prompt:   reminderPrompt,
	Assemble: assembleReminder,
	Document: reminderDocument,
	schema:   mustSchema(reminderSchema),
}

func assembleReminder(v Values, _ domain.UserContext) domain.Parsed {
	return domain.Parsed{
		Kind: domain.KindReminder,
		Reminder: &domain.ParsedReminder{
			Title:       v.String("title"),
			Description: v.String("description"),
			DueAt:       v.Time("due_datetime"),
			Priority:    v.String("priority"),
			Type:        v.String("type"),
		},
	}
}

func reminderDocument(p domain.Parsed) any {
	r := p.Reminder
	return map[string]any{
		"title":       r.Title,
		"description": r.Description,
		"due_at":      r.DueAt.Format(time.RFC3339),
		"priority":    r.Priority,
		"type":        r.Type,
		"confidence":  p.Confidence,
	}
}

// at returns the given clock time on the day offset from now.
func at(now time.Time, days, hour, minute int) string {
	y, m, d := now.AddDate(0, 0, days).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location()).Format("2006-01-02T15:04:05")
}

func reminderPrompt(text string, uc domain.UserContext) []llm.Message {
	now := uc.LocalNow()
	var sb strings.Builder
	sb.WriteString("You extract a single reminder from a user's message.\n")
	fmt.Fprintf(&sb, "Current time: %s, %s (%s).\n",
		now.Weekday(), now.Format("2006-01-02T15:04:05"), uc.TimezoneName())
	sb.WriteString("due_datetime is local wall-clock time formatted YYYY-MM-DDTHH:MM:SS with no offset, resolved against the current time.\n")
	fmt.Fprintf(&sb, "type must be one of: %s.\n", strings.Join(ReminderTypes, ", "))
	fmt.Fprintf(&sb, "priority must be one of: %s.\n", strings.Join(Priorities, ", "))
	sb.WriteString("Use null for anything the message does not state. Never invent a time.\n")
	writeRecent(&sb, uc, domain.KindReminder)
	sb.WriteString("\nRelative time examples:\n")
	fmt.Fprintf(&sb, "\"tomorrow at 3pm\" -> %s\n", at(now, 1, 15, 0))
	fmt.Fprintf(&sb, "\"in 2 hours\" -> %s\n", now.Add(2*time.Hour).Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, "\"tonight at 8\" -> %s\n", at(now, 0, 20, 0))
	fmt.Fprintf(&sb, "\"next week\" -> %s\n", at(now, 7, 9, 0))
	sb.WriteString("\nExample output:\n")
	fmt.Fprintf(&sb, `"Remind me to pay rent tomorrow at 9am" -> {"title":"Pay rent","description":null,"due_datetime":"%s","priority":"high","type":"payment","confidence":0.9,"language":"en"}`+"\n", at(now, 1, 9, 0))
	sb.WriteString("\nRespond with exactly one JSON object with keys title, description, due_datetime, priority, type, confidence, language.")
	return []llm.Message{llm.System(sb.String()), llm.User(text)}
}
