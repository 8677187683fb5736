package legal

import (
	"github.com/shopspring/decimal"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

var (
	// Art. 250.2 LEC: juicio verbal up to 15.000 EUR.
	spainVerbalLimit = decimal.NewFromInt(15000)
	// Arts. 23.2 and 31.2 LEC: no abogado or procurador up to 2.000 EUR.
	spainCounselThreshold = decimal.NewFromInt(2000)
	// Art. 47 LEC: Juzgados de Paz hear verbal claims up to 90 EUR.
	spainPeaceCourtLimit = decimal.NewFromInt(90)

	// Art. 25 CGP, in SMMLV.
	colombiaMinimaLimit = decimal.NewFromInt(40)
	colombiaMenorLimit  = decimal.NewFromInt(150)
)

// SelectSpanishProcedure picks the track for a Spanish money claim. A claim
// backed by documents with a positive amount goes to monitorio; anything else
// goes to verbal, or ordinario above the verbal limit.
func SelectSpanishProcedure(hasDocs bool, amount decimal.Decimal) *models.Procedure {
	switch {
	case hasDocs && amount.IsPositive():
		return &models.Procedure{
			Track: models.TrackMonitorio,
			Court: "Juzgado de Primera Instancia",
			Basis: "Artículos 812 a 818 de la Ley de Enjuiciamiento Civil",
		}
	case amount.LessThanOrEqual(spainVerbalLimit):
		court := "Juzgado de Primera Instancia"
		if amount.IsPositive() && amount.LessThanOrEqual(spainPeaceCourtLimit) {
			court = "Juzgado de Paz"
		}
		counsel := amount.GreaterThan(spainCounselThreshold)
		return &models.Procedure{
			Track:              models.TrackVerbal,
			Court:              court,
			RequiresLawyer:     counsel,
			RequiresProcurador: counsel,
			Basis:              "Artículo 250.2 de la Ley de Enjuiciamiento Civil",
		}
	default:
		return &models.Procedure{
			Track:              models.TrackOrdinario,
			Court:              "Juzgado de Primera Instancia",
			RequiresLawyer:     true,
			RequiresProcurador: true,
			Basis:              "Artículo 249.2 de la Ley de Enjuiciamiento Civil",
		}
	}
}

const (
	CuantiaMinima = "minima"
	CuantiaMenor  = "menor"
	CuantiaMayor  = "mayor"
)

// Cuantia classifies a Colombian claim by its value in monthly minimum wages.
func Cuantia(amount, smmlv decimal.Decimal) string {
	if !smmlv.IsPositive() {
		return CuantiaMinima
	}
	units := amount.Div(smmlv)
	switch {
	case units.LessThanOrEqual(colombiaMinimaLimit):
		return CuantiaMinima
	case units.LessThanOrEqual(colombiaMenorLimit):
		return CuantiaMenor
	default:
		return CuantiaMayor
	}
}

// SelectColombianProcedure picks the track for a Colombian money claim.
// Monitorio is only available for documented claims of mínima cuantía.
func SelectColombianProcedure(hasDocs bool, amount, smmlv decimal.Decimal) *models.Procedure {
	cuantia := Cuantia(amount, smmlv)
	switch {
	case cuantia == CuantiaMinima && hasDocs && amount.IsPositive():
		return &models.Procedure{
			Track:   models.TrackMonitorio,
			Court:   "Juzgado de Pequeñas Causas y Competencia Múltiple",
			Cuantia: cuantia,
			Basis:   "Artículos 419 a 421 del Código General del Proceso",
		}
	case cuantia == CuantiaMinima:
		return &models.Procedure{
			Track:   models.TrackVerbalSumario,
			Court:   "Juzgado de Pequeñas Causas y Competencia Múltiple",
			Cuantia: cuantia,
			Basis:   "Artículo 390 del Código General del Proceso",
		}
	case cuantia == CuantiaMenor:
		return &models.Procedure{
			Track:          models.TrackVerbal,
			Court:          "Juzgado Civil Municipal",
			Cuantia:        cuantia,
			RequiresLawyer: true,
			Basis:          "Artículo 368 del Código General del Proceso",
		}
	default:
		return &models.Procedure{
			Track:          models.TrackVerbal,
			Court:          "Juzgado Civil del Circuito",
			Cuantia:        cuantia,
			RequiresLawyer: true,
			Basis:          "Artículo 368 del Código General del Proceso",
		}
	}
}

// TutelaProcedure is fixed: any judge may hear it and no lawyer is needed.
func TutelaProcedure() *models.Procedure {
	return &models.Procedure{
		Track: models.TrackTutela,
		Court: "Juez de la República (reparto)",
		Basis: "Artículo 86 de la Constitución Política y Decreto 2591 de 1991",
	}
}

// SelectProcedure dispatches on the template of the case.
func SelectProcedure(tmpl Template, claim *models.ClaimSummary, smmlv decimal.Decimal) *models.Procedure {
	if tmpl.Kind == KindTutela {
		return TutelaProcedure()
	}
	if tmpl.Jurisdiction == models.JurisdictionColombia {
		return SelectColombianProcedure(claim.HasDocuments(), claim.Total, smmlv)
	}
	return SelectSpanishProcedure(claim.HasDocuments(), claim.Total)
}
