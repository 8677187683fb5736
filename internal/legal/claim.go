package legal

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

// DefaultPaymentTerm applies when an invoice carries no due date.
const DefaultPaymentTerm = 30 * 24 * time.Hour

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

type ClaimOptions struct {
	Now time.Time
	// InterestRate is the annual legal interest rate in percent. Zero disables interest.
	InterestRate decimal.Decimal
}

// ComputeClaim totals the analyzed documents of a case into a money claim.
func ComputeClaim(c *models.Case, docs []models.Document, opts ClaimOptions) *models.ClaimSummary {
	currency := strings.ToUpper(c.Currency)
	if currency == "" {
		currency = c.Jurisdiction.Currency()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	summary := &models.ClaimSummary{
		Currency:  currency,
		Principal: decimal.Zero,
		Interest:  decimal.Zero,
		Invoices:  []models.ClaimLine{},
		Payments:  []models.ClaimLine{},
		Documents: len(docs),
	}

	var invoiced, paid, demanded decimal.Decimal
	seen := make(map[string]string)

	for _, doc := range docs {
		f := doc.Facts
		if f == nil {
			continue
		}
		if f.Currency != "" && !strings.EqualFold(f.Currency, currency) {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("%s: currency %s differs from claim currency %s and was excluded", doc.Filename, strings.ToUpper(f.Currency), currency))
			continue
		}

		switch f.Kind {
		case models.KindInvoice:
			if !f.Amount.Valid || !f.Amount.Decimal.IsPositive() {
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: invoice without a readable amount", doc.Filename))
				summary.SupportingDocs++
				continue
			}
			if f.Number != "" {
				key := strings.ToLower(strings.TrimSpace(f.Issuer)) + "|" + strings.ToLower(strings.TrimSpace(f.Number))
				if first, dup := seen[key]; dup {
					summary.Warnings = append(summary.Warnings,
						fmt.Sprintf("%s: invoice %s already counted from %s", doc.Filename, f.Number, first))
					continue
				}
				seen[key] = doc.Filename
			}
			line := models.ClaimLine{
				DocumentID: doc.ID,
				Kind:       f.Kind,
				Number:     f.Number,
				Date:       f.IssueDate,
				Amount:     f.Amount.Decimal,
				Interest:   invoiceInterest(f, opts),
			}
			summary.Invoices = append(summary.Invoices, line)
			invoiced = invoiced.Add(line.Amount)
			summary.Interest = summary.Interest.Add(line.Interest)

		case models.KindPayment, models.KindCreditNote:
			if !f.Amount.Valid {
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: payment without a readable amount", doc.Filename))
				continue
			}
			amount := f.Amount.Decimal.Abs()
			summary.Payments = append(summary.Payments, models.ClaimLine{
				DocumentID: doc.ID,
				Kind:       f.Kind,
				Number:     f.Number,
				Date:       f.IssueDate,
				Amount:     amount,
				Interest:   decimal.Zero,
			})
			paid = paid.Add(amount)

		case models.KindDemandLetter:
			summary.PriorDemand = true
			if f.Amount.Valid && f.Amount.Decimal.GreaterThan(demanded) {
				demanded = f.Amount.Decimal
			}

		case models.KindDeliveryNote, models.KindContract:
			summary.SupportingDocs++
		}
	}

	base := invoiced
	if len(summary.Invoices) == 0 && demanded.IsPositive() {
		base = demanded
		summary.Warnings = append(summary.Warnings, "no invoices found; the amount stated in the demand letter is used")
	}

	principal := base.Sub(paid)
	if principal.IsNegative() {
		summary.Warnings = append(summary.Warnings, "payments exceed the invoiced amount; nothing is owed")
		principal = decimal.Zero
	}

	// Interest accrues on what is still owed, in proportion to the unpaid share.
	if invoiced.IsPositive() && paid.IsPositive() {
		summary.Interest = summary.Interest.Mul(principal).Div(invoiced)
	}
	if len(summary.Invoices) == 0 {
		summary.Interest = decimal.Zero
	}

	if c.Amount.Valid && c.Amount.Decimal.IsPositive() {
		summary.ManualOverride = true
		principal = c.Amount.Decimal
		summary.Interest = decimal.Zero
	}

	summary.Principal = principal.Round(2)
	summary.Interest = summary.Interest.Round(2)
	summary.Total = summary.Principal.Add(summary.Interest)
	return summary
}

func invoiceInterest(f *models.DocumentFacts, opts ClaimOptions) decimal.Decimal {
	if !opts.InterestRate.IsPositive() {
		return decimal.Zero
	}
	due, ok := ParseDate(f.DueDate)
	if !ok {
		issued, ok := ParseDate(f.IssueDate)
		if !ok {
			return decimal.Zero
		}
		due = issued.Add(DefaultPaymentTerm)
	}
	days := int64(opts.Now.Sub(due).Hours() / 24)
	if days <= 0 {
		return decimal.Zero
	}
	return f.Amount.Decimal.
		Mul(opts.InterestRate).Div(hundred).
		Mul(decimal.NewFromInt(days)).Div(daysInYear).
		Round(2)
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "2006/01/02"}

// ParseDate accepts ISO dates and the day-first layouts used on Spanish and
// Colombian documents.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
