package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/parsing"
)

// templates holds the deterministic replies keyed by language and outcome.
// Placeholders in braces are filled by render.
var templates = map[domain.Language]map[domain.OutcomeKind]string{
	domain.LangEnglish: {
		domain.OutcomeExpenseSaved:  "Saved {amount} for {description} ({category}).",
		domain.OutcomeReminderSaved: "Reminder set: {title} on {due}.",
		domain.OutcomeSummary:       "In the last {days} days you spent {totals}. Pending reminders: {pending}.",
		domain.OutcomeClarify:       "I need a bit more detail: {fields}. For example: \"{example}\"",
		domain.OutcomeGreeting:      "Hi! I can track your expenses and set reminders. Try \"Coffee $4.50\".",
		domain.OutcomeHelp:          "I can record expenses (\"Coffee $4.50\"), set reminders (\"Remind me to call mom tomorrow at 3pm\") and summarize your spending (\"How much did I spend this month?\").",
		domain.OutcomeUnregistered:  "Welcome! Please register your account before using the assistant, then send your message again.",
		domain.OutcomeSystemError:   "Sorry, something went wrong on our side. Please try again in a moment.",
	},
	domain.LangSpanish: {
		domain.OutcomeExpenseSaved:  "Registré {amount} por {description} ({category}).",
		domain.OutcomeReminderSaved: "Recordatorio creado: {title} el {due}.",
		domain.OutcomeSummary:       "En los últimos {days} días gastaste {totals}. Recordatorios pendientes: {pending}.",
		domain.OutcomeClarify:       "Necesito un poco más de información: {fields}. Por ejemplo: \"{example}\"",
		domain.OutcomeGreeting:      "¡Hola! Puedo registrar tus gastos y crear recordatorios. Prueba \"Café 4,50 USD\".",
		domain.OutcomeHelp:          "Puedo registrar gastos (\"Café 4,50 USD\"), crear recordatorios (\"Recuérdame llamar a mamá mañana a las 3pm\") y resumir tus gastos (\"¿Cuánto gasté este mes?\").",
		domain.OutcomeUnregistered:  "¡Bienvenido! Registra tu cuenta antes de usar el asistente y luego envía tu mensaje de nuevo.",
		domain.OutcomeSystemError:   "Lo siento, algo salió mal de nuestro lado. Inténtalo de nuevo en un momento.",
	},
	domain.LangPortuguese: {
		domain.OutcomeExpenseSaved:  "Registrei {amount} em {description} ({category}).",
		domain.OutcomeReminderSaved: "Lembrete criado: {title} em {due}.",
		domain.OutcomeSummary:       "Nos últimos {days} dias você gastou {totals}. Lembretes pendentes: {pending}.",
		domain.OutcomeClarify:       "Preciso de mais alguns detalhes: {fields}. Por exemplo: \"{example}\"",
		domain.OutcomeGreeting:      "Olá! Posso registrar seus gastos e criar lembretes. Tente \"Café R$ 4,50\".",
		domain.OutcomeHelp:          "Posso registrar gastos (\"Café R$ 4,50\"), criar lembretes (\"Lembre-me de ligar para a mãe amanhã às 15h\") e resumir seus gastos (\"Quanto gastei este mês?\").",
		domain.OutcomeUnregistered:  "Bem-vindo! Cadastre sua conta antes de usar o assistente e depois envie sua mensagem novamente.",
		domain.OutcomeSystemError:   "Desculpe, algo deu errado do nosso lado. Tente novamente em instantes.",
	},
}

// fieldNames localizes field names used in clarification replies.
var fieldNames = map[domain.Language]map[string]string{
	domain.LangEnglish: {
		"amount": "the amount", "currency": "the currency", "description": "what it was for",
		"category": "the category", "title": "what to remind you about", "due_datetime": "when",
		"priority": "the priority", "type": "the reminder type",
	},
	domain.LangSpanish: {
		"amount": "el monto", "currency": "la moneda", "description": "en qué fue",
		"category": "la categoría", "title": "qué recordarte", "due_datetime": "cuándo",
		"priority": "la prioridad", "type": "el tipo de recordatorio",
	},
	domain.LangPortuguese: {
		"amount": "o valor", "currency": "a moeda", "description": "com o que foi",
		"category": "a categoria", "title": "do que lembrar você", "due_datetime": "quando",
		"priority": "a prioridade", "type": "o tipo de lembrete",
	},
}

var (
	conjunction = map[domain.Language]string{domain.LangEnglish: " and ", domain.LangSpanish: " y ", domain.LangPortuguese: " e "}
	nothing     = map[domain.Language]string{domain.LangEnglish: "nothing yet", domain.LangSpanish: "nada todavía", domain.LangPortuguese: "nada ainda"}
	inExpenses  = map[domain.Language]string{domain.LangEnglish: "%s in %d expenses", domain.LangSpanish: "%s en %d gastos", domain.LangPortuguese: "%s em %d gastos"}
)

// supported returns lang when templates exist for it, else English.
func supported(lang domain.Language) domain.Language {
	if _, ok := templates[lang]; ok {
		return lang
	}
	return domain.LangEnglish
}

// Fallback renders the deterministic reply for out in lang.
func Fallback(out domain.Outcome, lang domain.Language, loc *time.Location) string {
	lang = supported(lang)
	tpl, ok := templates[lang][out.Kind]
	if !ok {
		tpl = templates[lang][domain.OutcomeSystemError]
	}
	return render(tpl, placeholders(out, lang, loc))
}

func render(tpl string, vals map[string]string) string {
	pairs := make([]string, 0, len(vals)*2)
	for k, v := range vals {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// placeholders computes the values substituted into templates for out.
func placeholders(out domain.Outcome, lang domain.Language, loc *time.Location) map[string]string {
	vals := map[string]string{}
	switch out.Kind {
	case domain.OutcomeExpenseSaved:
		if e := out.Expense; e != nil {
			vals["amount"] = FormatMoney(e.Amount, e.Currency, lang)
			vals["description"] = e.Description
			vals["category"] = e.Category
		}
	case domain.OutcomeReminderSaved:
		if r := out.Reminder; r != nil {
			vals["title"] = r.Title
			vals["due"] = FormatDateTime(r.DueAt, loc, lang)
		}
	case domain.OutcomeSummary:
		if s := out.Summary; s != nil {
			vals["days"] = fmt.Sprint(s.WindowDays)
			vals["pending"] = fmt.Sprint(s.PendingReminders)
			vals["totals"] = totals(s, lang)
		}
	case domain.OutcomeClarify:
		if p := out.Clarify; p != nil {
			vals["fields"] = fieldList(p.NeedsClarification, lang)
			d := parsing.Expense
			if p.Kind == domain.KindReminder {
				d = parsing.Reminder
			}
			vals["example"] = d.Example(lang)
		}
	}
	return vals
}

func totals(s *domain.Summary, lang domain.Language) string {
	if len(s.Totals) == 0 {
		return nothing[lang]
	}
	parts := make([]string, 0, len(s.Totals))
	for _, t := range s.Totals {
		parts = append(parts, fmt.Sprintf(inExpenses[lang], FormatMoney(t.Amount, t.Currency, lang), t.Count))
	}
	return joinList(parts, lang)
}

func fieldList(names []string, lang domain.Language) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if l, ok := fieldNames[lang][n]; ok {
			parts = append(parts, l)
		} else {
			parts = append(parts, n)
		}
	}
	return joinList(parts, lang)
}

// joinList joins with commas and the language's conjunction before the last item.
func joinList(parts []string, lang domain.Language) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + conjunction[lang] + parts[len(parts)-1]
}
