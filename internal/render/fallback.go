package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

// FallbackInput carries what Fallback needs to assemble a filing without the LLM.
type FallbackInput struct {
	Template  legal.Template
	Case      *models.Case
	Claim     *models.ClaimSummary
	Procedure *models.Procedure
	Documents []models.Document
	Signer    string
	Now       time.Time
}

// Fallback builds a plain but complete filing from the case data alone. The
// output depends only on its input.
func Fallback(in FallbackInput) *models.FilingDraft {
	if in.Template.Kind == legal.KindTutela {
		return tutelaDraft(in)
	}
	return claimDraft(in)
}

func claimDraft(in FallbackInput) *models.FilingDraft {
	c, claim, proc := in.Case, in.Claim, in.Procedure
	colombia := in.Template.Jurisdiction == models.JurisdictionColombia
	title := claimTitle(proc.Track, colombia)
	total := FormatAmount(claim.Total, claim.Currency)

	draft := &models.FilingDraft{
		Court: courtLine(proc.Court, c.City),
		Title: title,
		Intro: fmt.Sprintf("%s, ante el Juzgado comparezco y, como mejor proceda en Derecho, DIGO: "+
			"Que formulo %s contra %s, en reclamación de %s, con base en los siguientes",
			describeParty(c.Claimant), strings.ToLower(title), describeParty(c.Respondent), total),
	}

	var facts []string
	facts = append(facts, splitParagraphs(c.Facts)...)
	for _, line := range claim.Invoices {
		facts = append(facts, fmt.Sprintf("%s nº %s%s por importe de %s, que no ha sido satisfecha.",
			line.Kind.Label(), orPlaceholder(line.Number, "[NÚMERO]"), dateSuffix(line.Date),
			FormatAmount(line.Amount, claim.Currency)))
	}
	if len(claim.Payments) > 0 {
		paid := decimal.Zero
		for _, p := range claim.Payments {
			paid = paid.Add(p.Amount)
		}
		facts = append(facts, fmt.Sprintf("Del importe facturado se han abonado o rectificado %s, que se descuentan de lo reclamado.",
			FormatAmount(paid, claim.Currency)))
	}
	if claim.PriorDemand {
		facts = append(facts, "El deudor fue requerido de pago sin que haya atendido el requerimiento.")
	}
	facts = append(facts, fmt.Sprintf("La cantidad adeudada asciende a %s.", total))
	draft.Sections = append(draft.Sections, models.Section{Heading: "Hechos", Paragraphs: numbered(facts)})

	law := []string{fmt.Sprintf("Procedimiento: %s. %s.", trackName(proc.Track), proc.Basis)}
	if proc.Cuantia != "" {
		law = append(law, fmt.Sprintf("Cuantía: %s cuantía, por importe de %s.", proc.Cuantia, total))
	}
	switch {
	case proc.RequiresLawyer && proc.RequiresProcurador:
		law = append(law, "Por razón de la cuantía, esta parte actúa asistida de abogado y representada por procurador.")
	case proc.RequiresLawyer:
		law = append(law, "Esta parte actúa por conducto de apoderado judicial.")
	default:
		law = append(law, "Por razón de la cuantía no es preceptiva la intervención de abogado.")
	}
	if claim.Interest.IsPositive() {
		law = append(law, fmt.Sprintf("Se reclaman intereses legales por importe de %s, calculados desde el vencimiento de cada factura.",
			FormatAmount(claim.Interest, claim.Currency)))
	}
	if colombia && proc.Track == models.TrackMonitorio {
		law = append(law, "Bajo la gravedad de juramento manifiesto que el pago de la suma reclamada no depende "+
			"del cumplimiento de una contraprestación a cargo del acreedor.")
	}
	law = append(law, "Costas: deben imponerse a la parte demandada.")
	draft.Sections = append(draft.Sections, models.Section{Heading: "Fundamentos de derecho", Paragraphs: law})

	if docs := documentList(in.Documents); len(docs) > 0 {
		heading := "Documentos"
		if colombia {
			heading = "Pruebas"
		}
		draft.Sections = append(draft.Sections, models.Section{Heading: heading, Paragraphs: docs})
	}

	if colombia {
		draft.Closing = fmt.Sprintf("PRETENSIONES: Solicito al señor Juez que condene a %s a pagar a %s la suma de %s, "+
			"junto con los intereses causados y las costas del proceso.", c.Respondent.Name, c.Claimant.Name, total)
	} else {
		draft.Closing = fmt.Sprintf("SUPLICO AL JUZGADO que tenga por presentado este escrito con sus documentos, "+
			"lo admita y, previos los trámites legales, requiera o condene a %s al pago de %s, "+
			"más los intereses legales y las costas.", c.Respondent.Name, total)
	}
	draft.Signature = signature(c.City, in.Signer, c.Claimant.Name, in.Now)
	return draft
}

func tutelaDraft(in FallbackInput) *models.FilingDraft {
	c, proc := in.Case, in.Procedure
	draft := &models.FilingDraft{
		Court: courtLine(proc.Court, c.City),
		Title: "ACCIÓN DE TUTELA",
		Intro: fmt.Sprintf("%s, actuando en nombre propio, interpongo acción de tutela contra %s, "+
			"para obtener la protección de mis derechos fundamentales, con fundamento en los siguientes",
			describeParty(c.Claimant), describeParty(c.Respondent)),
	}

	facts := splitParagraphs(c.Facts)
	if c.FactsDate != nil {
		facts = append(facts, fmt.Sprintf("Los hechos que motivan esta acción ocurrieron el %s.", spanishDate(*c.FactsDate)))
	}
	if c.PriorRequest {
		facts = append(facts, "Presenté solicitud previa ante el accionado sin obtener respuesta satisfactoria.")
	}
	draft.Sections = append(draft.Sections, models.Section{Heading: "Hechos", Paragraphs: numbered(facts)})

	rights := legal.RecognizedRights(c.RightsViolated)
	if len(rights) == 0 {
		rights = c.RightsViolated
	}
	draft.Sections = append(draft.Sections, models.Section{
		Heading:    "Derechos vulnerados",
		Paragraphs: []string{"Considero vulnerados los siguientes derechos: " + joinSpanish(rights) + "."},
	})

	draft.Sections = append(draft.Sections, models.Section{
		Heading: "Fundamentos",
		Paragraphs: []string{
			proc.Basis + ".",
			"Inmediatez: la acción se presenta dentro de un plazo razonable desde la vulneración.",
			"Subsidiariedad: no dispongo de otro medio de defensa judicial idóneo y eficaz para la protección inmediata de estos derechos.",
		},
	})

	if c.Petition != "" {
		draft.Sections = append(draft.Sections, models.Section{Heading: "Pretensiones", Paragraphs: numbered(splitParagraphs(c.Petition))})
	}
	if docs := documentList(in.Documents); len(docs) > 0 {
		draft.Sections = append(draft.Sections, models.Section{Heading: "Pruebas", Paragraphs: docs})
	}
	draft.Sections = append(draft.Sections, models.Section{
		Heading:    "Juramento",
		Paragraphs: []string{"Bajo la gravedad de juramento manifiesto que no he presentado otra acción de tutela por los mismos hechos y derechos."},
	})

	notify := []string{"Accionante: " + orPlaceholder(c.Claimant.Address, "[DIRECCIÓN]")}
	if c.Claimant.Email != "" {
		notify = append(notify, "Correo electrónico: "+c.Claimant.Email)
	}
	notify = append(notify, "Accionado: "+orPlaceholder(c.Respondent.Address, "[DIRECCIÓN DEL ACCIONADO]"))
	draft.Sections = append(draft.Sections, models.Section{Heading: "Notificaciones", Paragraphs: notify})

	draft.Closing = "Solicito al señor Juez que tutele los derechos fundamentales invocados y ordene al accionado adoptar las medidas necesarias para cesar su vulneración."
	draft.Signature = signature(c.City, in.Signer, c.Claimant.Name, in.Now)
	return draft
}

func claimTitle(track models.ProcedureTrack, colombia bool) string {
	switch track {
	case models.TrackMonitorio:
		if colombia {
			return "DEMANDA DE PROCESO MONITORIO"
		}
		return "PETICIÓN INICIAL DE PROCESO MONITORIO"
	case models.TrackVerbalSumario:
		return "DEMANDA DE PROCESO VERBAL SUMARIO"
	case models.TrackOrdinario:
		return "DEMANDA DE JUICIO ORDINARIO"
	default:
		if colombia {
			return "DEMANDA DE PROCESO VERBAL"
		}
		return "DEMANDA DE JUICIO VERBAL"
	}
}

func trackName(track models.ProcedureTrack) string {
	switch track {
	case models.TrackMonitorio:
		return "proceso monitorio"
	case models.TrackVerbalSumario:
		return "proceso verbal sumario"
	case models.TrackOrdinario:
		return "juicio ordinario"
	case models.TrackTutela:
		return "acción de tutela"
	default:
		return "juicio verbal"
	}
}

func courtLine(court, city string) string {
	line := strings.ToUpper(court)
	if city != "" {
		line += " DE " + strings.ToUpper(city)
	}
	return line
}

func describeParty(p models.Party) string {
	s := orPlaceholder(p.Name, "[NOMBRE]")
	if p.IDNumber != "" {
		s += ", con documento de identidad " + p.IDNumber
	}
	if p.Address != "" {
		s += ", con domicilio en " + p.Address
	}
	return s
}

func documentList(docs []models.Document) []string {
	var out []string
	for i, d := range docs {
		label := d.Filename
		if d.Facts != nil {
			label = d.Facts.Kind.Label()
			if d.Facts.Number != "" {
				label += " nº " + d.Facts.Number
			}
			label += dateSuffix(d.Facts.IssueDate)
		}
		out = append(out, fmt.Sprintf("Documento nº %d: %s.", i+1, label))
	}
	return out
}

func signature(city, signer, fallback string, now time.Time) string {
	place := orPlaceholder(city, "[LUGAR]")
	return fmt.Sprintf("En %s, a %s.\n\n%s", place, spanishDate(now), orPlaceholder(signer, orPlaceholder(fallback, "[FIRMA]")))
}

func dateSuffix(iso string) string {
	if t, ok := legal.ParseDate(iso); ok {
		return " de " + spanishDate(t)
	}
	return ""
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

var ordinals = []string{"PRIMERO", "SEGUNDO", "TERCERO", "CUARTO", "QUINTO", "SEXTO", "SÉPTIMO", "OCTAVO", "NOVENO", "DÉCIMO"}

func numbered(paragraphs []string) []string {
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		prefix := fmt.Sprintf("%d.º", i+1)
		if i < len(ordinals) {
			prefix = ordinals[i]
		}
		out[i] = prefix + ".- " + p
	}
	return out
}

func joinSpanish(items []string) string {
	switch len(items) {
	case 0:
		return "[DERECHOS]"
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " y " + items[len(items)-1]
}

var months = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

func spanishDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// FormatAmount writes d the way Spanish and Colombian filings do: dot thousands
// separators and a decimal comma. Pesos carry no decimals.
func FormatAmount(d decimal.Decimal, currency string) string {
	currency = strings.ToUpper(currency)
	places := int32(2)
	if currency == "COP" {
		places = 0
	}
	s := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(places).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString("," + frac)
	}

	switch currency {
	case "EUR":
		b.WriteString(" €")
	case "COP":
		return "$ " + b.String() + " COP"
	case "":
	default:
		b.WriteString(" " + currency)
	}
	return b.String()
}
