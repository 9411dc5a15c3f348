package parsing

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/tbourn/go-assistant-backend/internal/domain"
	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// Domain parameterizes the single extraction pipeline for one kind of
// record: which fields exist, how the model is asked, how validated values
// become a typed object, and the final shape guard that object must pass.
type Domain struct {
	Kind   domain.Kind
	Fields []Field
	// Prompt renders the extraction request for text.
	Prompt func(text string, uc domain.UserContext) []llm.Message
	// Assemble builds the typed result from validated values.
	Assemble func(v Values, uc domain.UserContext) domain.Parsed
	// Document renders an assembled result for the schema guard.
	Document func(p domain.Parsed) any

	schema *jsonschema.Schema
}

// Required lists the required field names in declaration order.
func (d *Domain) Required() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Example is a sample phrase per language used in clarification replies.
func (d *Domain) Example(lang domain.Language) string {
	ex := examplesByKind[d.Kind]
	if s, ok := ex[lang]; ok {
		return s
	}
	return ex[domain.LangEnglish]
}

var examplesByKind = map[domain.Kind]map[domain.Language]string{
	domain.KindExpense: {
		domain.LangEnglish:    "Coffee $4.50",
		domain.LangSpanish:    "Café 4,50 USD",
		domain.LangPortuguese: "Café R$ 4,50",
	},
	domain.KindReminder: {
		domain.LangEnglish:    "Remind me to call mom tomorrow at 3pm",
		domain.LangSpanish:    "Recuérdame llamar a mamá mañana a las 3pm",
		domain.LangPortuguese: "Lembre-me de ligar para a mãe amanhã às 15h",
	},
}

// checkShape validates an assembled result against the domain's schema.
func (d *Domain) checkShape(p domain.Parsed) error {
	if d.schema == nil || d.Document == nil {
		return nil
	}
	b, err := json.Marshal(d.Document(p))
	if err != nil {
		return err
	}
	res := d.schema.ValidateJSON(b)
	if res.IsValid() {
		return nil
	}
	return fmt.Errorf("%s schema validation failed: %v", d.Kind, res.Errors)
}

func mustSchema(data []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	s, err := compiler.Compile(data)
	if err != nil {
		panic(fmt.Sprintf("parsing: compile schema: %v", err))
	}
	return s
}
