package analyzer

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptCatalogue struct {
	System  string            `yaml:"system"`
	Prompts map[string]string `yaml:"prompts"`
}

// Prompts renders the named prompt templates of the catalogue.
type Prompts struct {
	system    string
	templates *template.Template
}

var promptFuncs = template.FuncMap{
	"join":  strings.Join,
	"inc":   func(i int) int { return i + 1 },
	"money": formatMoney,
	"party": describeParty,
	"track": describeTrack,
}

// LoadPrompts parses a YAML prompt catalogue. A nil source loads the built-in one.
func LoadPrompts(source []byte) (*Prompts, error) {
	if source == nil {
		source = promptsYAML
	}
	var cat promptCatalogue
	if err := yaml.Unmarshal(source, &cat); err != nil {
		return nil, fmt.Errorf("parse prompt catalogue: %w", err)
	}
	if strings.TrimSpace(cat.System) == "" {
		return nil, fmt.Errorf("prompt catalogue has no system prompt")
	}

	root := template.New("prompts").Funcs(promptFuncs).Option("missingkey=error")
	for name, body := range cat.Prompts {
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", name, err)
		}
	}
	return &Prompts{system: strings.TrimSpace(cat.System), templates: root}, nil
}

func (p *Prompts) System() string {
	return p.system
}

func (p *Prompts) Has(name string) bool {
	return p.templates.Lookup(name) != nil
}

func (p *Prompts) Render(name string, data any) (string, error) {
	if !p.Has(name) {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func formatMoney(d decimal.Decimal, currency string) string {
	places := int32(2)
	if strings.EqualFold(currency, "COP") {
		places = 0
	}
	return d.StringFixed(places) + " " + strings.ToUpper(currency)
}

func describeParty(p models.Party) string {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = "[NOMBRE]"
	}
	parts := []string{name}
	if p.IDNumber != "" {
		parts = append(parts, "con documento de identidad "+p.IDNumber)
	}
	if p.Address != "" {
		parts = append(parts, "con domicilio en "+p.Address)
	}
	if p.Email != "" {
		parts = append(parts, "correo electrónico "+p.Email)
	}
	return strings.Join(parts, ", ")
}

func describeTrack(t models.ProcedureTrack) string {
	switch t {
	case models.TrackMonitorio:
		return "proceso monitorio"
	case models.TrackVerbal:
		return "juicio verbal"
	case models.TrackVerbalSumario:
		return "proceso verbal sumario"
	case models.TrackOrdinario:
		return "juicio ordinario"
	case models.TrackTutela:
		return "acción de tutela"
	default:
		return string(t)
	}
}

// describeDocument is the one-line description of an analyzed document used in drafting prompts.
func describeDocument(doc models.Document) string {
	f := doc.Facts
	if f == nil {
		return doc.Filename + " (sin analizar)"
	}
	var b strings.Builder
	b.WriteString(f.Kind.Label())
	if f.Number != "" {
		b.WriteString(" nº " + f.Number)
	}
	if f.IssueDate != "" {
		b.WriteString(" de " + f.IssueDate)
	}
	if f.Amount.Valid {
		b.WriteString(" por " + formatMoney(f.Amount.Decimal, f.Currency))
	}
	if f.Issuer != "" {
		b.WriteString(", emitido por " + f.Issuer)
	}
	if f.Summary != "" {
		b.WriteString(". " + f.Summary)
	}
	return strings.TrimSpace(b.String())
}
