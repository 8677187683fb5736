// Package legal holds the jurisdiction rules that turn extracted facts into a
// claim, a procedural track and a filing template.
package legal

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

type TemplateKind string

const (
	KindClaim  TemplateKind = "claim"
	KindTutela TemplateKind = "tutela"
)

// Template is a purchasable filing type.
type Template struct {
	Key          string              `yaml:"key" json:"key"`
	Jurisdiction models.Jurisdiction `yaml:"jurisdiction" json:"jurisdiction"`
	Kind         TemplateKind        `yaml:"kind" json:"kind"`
	Title        string              `yaml:"title" json:"title"`
	Description  string              `yaml:"description" json:"description"`
	PriceCents   int64               `yaml:"price_cents" json:"price_cents"`
	Currency     string              `yaml:"currency" json:"currency"`
}

//go:embed templates.yaml
var templatesYAML []byte

var (
	catalogueOnce sync.Once
	catalogue     map[string]Template
	catalogueErr  error
)

func loadCatalogue() {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(templatesYAML, &doc); err != nil {
		catalogueErr = fmt.Errorf("parse templates.yaml: %w", err)
		return
	}
	catalogue = make(map[string]Template, len(doc.Templates))
	for _, t := range doc.Templates {
		if !t.Jurisdiction.Valid() {
			catalogueErr = fmt.Errorf("template %s: unknown jurisdiction %q", t.Key, t.Jurisdiction)
			return
		}
		if t.PriceCents <= 0 {
			catalogueErr = fmt.Errorf("template %s: price must be positive", t.Key)
			return
		}
		catalogue[t.Key] = t
	}
}

// Templates returns the catalogue sorted by key.
func Templates() ([]Template, error) {
	catalogueOnce.Do(loadCatalogue)
	if catalogueErr != nil {
		return nil, catalogueErr
	}
	out := make([]Template, 0, len(catalogue))
	for _, t := range catalogue {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// LookupTemplate finds a template by key.
func LookupTemplate(key string) (Template, bool) {
	catalogueOnce.Do(loadCatalogue)
	if catalogueErr != nil {
		return Template{}, false
	}
	t, ok := catalogue[key]
	return t, ok
}
