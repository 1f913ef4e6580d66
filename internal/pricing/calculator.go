// Package pricing contains the pure calculation core: piece pricing,
// installment plan computation and schedule generation. Nothing in this
// package performs I/O; the confirmation engine feeds results into the
// persistence layer.
package pricing

import "math"

// AdvanceMode selects how an offer expresses its advance.
type AdvanceMode string

const (
	AdvanceFixed   AdvanceMode = "fixed"
	AdvancePercent AdvanceMode = "percent"
)

// CalcMode selects how an offer amortizes the remaining balance.
type CalcMode string

const (
	CalcMonths        CalcMode = "months"
	CalcMonthlyAmount CalcMode = "monthly_amount"
)

// OfferTerms is an immutable snapshot of a payment offer's pricing rules.
// The confirmation engine copies these into the sale row so later offer
// edits cannot rewrite history.
type OfferTerms struct {
	PricePerM2   float64     `json:"price_per_m2"`
	AdvanceMode  AdvanceMode `json:"advance_mode"`
	AdvanceValue float64     `json:"advance_value"`
	CalcMode     CalcMode    `json:"calc_mode"`
	CalcValue    float64     `json:"calc_value"`
}

// PieceQuote is the result of pricing a single land piece.
type PieceQuote struct {
	Total                 float64
	Deposit               float64
	RemainingAfterDeposit float64
}

// QuotePiece prices a single piece. A direct price overrides surface
// pricing; with neither available the total is 0 and the caller must
// treat the piece as unpriced. Never fails.
func QuotePiece(surface float64, perM2, direct *float64, deposit float64) PieceQuote {
	var total float64
	switch {
	case direct != nil && *direct > 0:
		total = *direct
	case perM2 != nil && surface > 0:
		total = surface * *perM2
	}
	return PieceQuote{
		Total:                 total,
		Deposit:               deposit,
		RemainingAfterDeposit: total - deposit,
	}
}

// PlanInput feeds ComputePlan. OverrideTotal, when set, is authoritative
// over surface pricing (a manually contracted sale price).
type PlanInput struct {
	Surface       float64
	OverrideTotal *float64
	Terms         OfferTerms
	Deposit       float64
}

// Plan is the computed installment breakdown for one sale.
type Plan struct {
	BasePrice                float64
	AdvanceAmount            float64
	AdvanceAfterDeposit      float64
	RemainingForInstallments float64
	MonthlyPayment           float64
	NumberOfMonths           int
	// Guarded is set when a non-positive surface or base price was
	// coerced to 1 to keep the division chain finite. Callers may warn.
	Guarded bool
}

// ComputePlan derives the advance and amortization figures for a sale.
// Pure and deterministic: identical inputs yield identical output.
func ComputePlan(in PlanInput) Plan {
	var p Plan

	surface := in.Surface
	if surface <= 0 {
		surface = 1
		p.Guarded = true
	}

	if in.OverrideTotal != nil {
		p.BasePrice = *in.OverrideTotal
	} else {
		p.BasePrice = surface * in.Terms.PricePerM2
	}
	if p.BasePrice <= 0 {
		p.BasePrice = 1
		p.Guarded = true
	}

	switch in.Terms.AdvanceMode {
	case AdvancePercent:
		p.AdvanceAmount = p.BasePrice * in.Terms.AdvanceValue / 100
	default:
		p.AdvanceAmount = in.Terms.AdvanceValue
	}

	p.AdvanceAfterDeposit = p.AdvanceAmount - in.Deposit
	if p.AdvanceAfterDeposit < 0 {
		p.AdvanceAfterDeposit = 0
	}

	// A deposit above the nominal advance keeps reducing the installment
	// balance rather than producing a negative amount due at signing.
	covered := p.AdvanceAmount
	if in.Deposit > covered {
		covered = in.Deposit
	}
	p.RemainingForInstallments = p.BasePrice - covered
	if p.RemainingForInstallments < 0 {
		p.RemainingForInstallments = 0
	}

	if p.RemainingForInstallments == 0 {
		return p
	}

	switch in.Terms.CalcMode {
	case CalcMonthlyAmount:
		monthly := in.Terms.CalcValue
		if monthly <= 0 {
			monthly = p.RemainingForInstallments
			p.Guarded = true
		}
		p.MonthlyPayment = monthly
		p.NumberOfMonths = int(math.Ceil(p.RemainingForInstallments / monthly))
	default:
		months := int(in.Terms.CalcValue)
		if months <= 0 {
			months = 1
			p.Guarded = true
		}
		p.NumberOfMonths = months
		p.MonthlyPayment = p.RemainingForInstallments / float64(months)
	}

	return p
}
