package legal

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

// ImmediacyWindow is the period within which the Constitutional Court
// usually considers a tutela timely.
const ImmediacyWindow = 180 * 24 * time.Hour

// FundamentalRights lists rights protectable by tutela, keyed by their
// accent-free lowercase name.
var FundamentalRights = map[string]string{
	"vida":                                   "Derecho a la vida",
	"salud":                                  "Derecho a la salud",
	"dignidad humana":                        "Derecho a la dignidad humana",
	"igualdad":                               "Derecho a la igualdad",
	"debido proceso":                         "Derecho al debido proceso",
	"peticion":                               "Derecho de petición",
	"trabajo":                                "Derecho al trabajo",
	"minimo vital":                           "Derecho al mínimo vital",
	"seguridad social":                       "Derecho a la seguridad social",
	"educacion":                              "Derecho a la educación",
	"intimidad":                              "Derecho a la intimidad",
	"habeas data":                            "Derecho al habeas data",
	"libre desarrollo de la personalidad":    "Derecho al libre desarrollo de la personalidad",
	"vivienda digna":                         "Derecho a la vivienda digna",
	"acceso a la administracion de justicia": "Derecho de acceso a la administración de justicia",
}

var tutelaWeights = map[string]int{
	"derecho_fundamental": 30,
	"inmediatez":          20,
	"subsidiariedad":      20,
	"legitimacion":        10,
	"accionado":           10,
	"pretension":          10,
}

// NormalizeRight lowercases and strips accents and a leading "derecho a/al/de".
func NormalizeRight(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(strings.Join(strings.Fields(out), " "))
	for _, prefix := range []string{"derecho a la ", "derecho al ", "derecho de ", "derecho a "} {
		if strings.HasPrefix(out, prefix) {
			return strings.TrimPrefix(out, prefix)
		}
	}
	return out
}

// RecognizedRights returns the canonical names of the rights in names that
// the catalogue protects.
func RecognizedRights(names []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range names {
		key := NormalizeRight(n)
		if label, ok := FundamentalRights[key]; ok && !seen[key] {
			seen[key] = true
			out = append(out, label)
		}
	}
	return out
}

// CheckTutela runs the admissibility checks a judge applies before looking at
// the merits, and returns them with a 0-100 score.
func CheckTutela(c *models.Case, now time.Time) (int, []models.TutelaCheck) {
	var checks []models.TutelaCheck

	rights := RecognizedRights(c.RightsViolated)
	if len(rights) > 0 {
		checks = append(checks, models.TutelaCheck{Name: "derecho_fundamental", Passed: true, Detail: strings.Join(rights, "; ")})
	} else {
		checks = append(checks, models.TutelaCheck{Name: "derecho_fundamental", Detail: "no se identificó un derecho fundamental protegible"})
	}

	switch {
	case c.FactsDate == nil:
		checks = append(checks, models.TutelaCheck{Name: "inmediatez", Detail: "no se indicó la fecha de los hechos"})
	case now.Sub(*c.FactsDate) > ImmediacyWindow:
		days := int(now.Sub(*c.FactsDate).Hours() / 24)
		checks = append(checks, models.TutelaCheck{Name: "inmediatez", Detail: fmt.Sprintf("han transcurrido %d días desde los hechos; debe justificarse la demora", days)})
	default:
		checks = append(checks, models.TutelaCheck{Name: "inmediatez", Passed: true, Detail: "los hechos son recientes"})
	}

	if c.PriorRequest {
		checks = append(checks, models.TutelaCheck{Name: "subsidiariedad", Passed: true, Detail: "se agotó una solicitud previa ante el accionado"})
	} else {
		checks = append(checks, models.TutelaCheck{Name: "subsidiariedad", Detail: "no consta solicitud previa ni otro mecanismo agotado"})
	}

	if strings.TrimSpace(c.Claimant.Name) != "" && strings.TrimSpace(c.Claimant.IDNumber) != "" {
		checks = append(checks, models.TutelaCheck{Name: "legitimacion", Passed: true, Detail: "accionante identificado"})
	} else {
		checks = append(checks, models.TutelaCheck{Name: "legitimacion", Detail: "falta nombre o documento de identidad del accionante"})
	}

	if strings.TrimSpace(c.Respondent.Name) != "" {
		checks = append(checks, models.TutelaCheck{Name: "accionado", Passed: true, Detail: c.Respondent.Name})
	} else {
		checks = append(checks, models.TutelaCheck{Name: "accionado", Detail: "no se identificó la entidad o persona accionada"})
	}

	if strings.TrimSpace(c.Petition) != "" {
		checks = append(checks, models.TutelaCheck{Name: "pretension", Passed: true, Detail: "pretensión formulada"})
	} else {
		checks = append(checks, models.TutelaCheck{Name: "pretension", Detail: "no se formuló qué se pide al juez"})
	}

	score := 0
	for _, ch := range checks {
		if ch.Passed {
			score += tutelaWeights[ch.Name]
		}
	}
	return score, checks
}
