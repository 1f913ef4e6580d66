package pricing

import "testing"

func TestQuotePieceDirectPriceWins(t *testing.T) {
	direct := 12000.0
	perM2 := 50.0
	q := QuotePiece(100, &perM2, &direct, 2000)
	if q.Total != 12000 {
		t.Fatalf("expected direct price 12000 got %.2f", q.Total)
	}
	if q.RemainingAfterDeposit != 10000 {
		t.Fatalf("expected remaining 10000 got %.2f", q.RemainingAfterDeposit)
	}
}

func TestQuotePiecePerSquareMeter(t *testing.T) {
	perM2 := 50.0
	q := QuotePiece(100, &perM2, nil, 0)
	if q.Total != 5000 {
		t.Fatalf("expected 5000 got %.2f", q.Total)
	}
}

func TestQuotePieceUnpriced(t *testing.T) {
	q := QuotePiece(100, nil, nil, 0)
	if q.Total != 0 {
		t.Fatalf("unpriced piece must quote 0, got %.2f", q.Total)
	}
}

func TestComputePlanFixedAdvanceMonths(t *testing.T) {
	// surface=100, 50/m², fixed advance 1000, 24 months, deposit 300.
	plan := ComputePlan(PlanInput{
		Surface: 100,
		Terms: OfferTerms{
			PricePerM2:   50,
			AdvanceMode:  AdvanceFixed,
			AdvanceValue: 1000,
			CalcMode:     CalcMonths,
			CalcValue:    24,
		},
		Deposit: 300,
	})
	if plan.BasePrice != 5000 {
		t.Fatalf("base price: expected 5000 got %.2f", plan.BasePrice)
	}
	if plan.AdvanceAmount != 1000 {
		t.Fatalf("advance: expected 1000 got %.2f", plan.AdvanceAmount)
	}
	if plan.AdvanceAfterDeposit != 700 {
		t.Fatalf("advance after deposit: expected 700 got %.2f", plan.AdvanceAfterDeposit)
	}
	if plan.RemainingForInstallments != 4000 {
		t.Fatalf("remaining: expected 4000 got %.2f", plan.RemainingForInstallments)
	}
	if plan.NumberOfMonths != 24 {
		t.Fatalf("months: expected 24 got %d", plan.NumberOfMonths)
	}
	want := 4000.0 / 24
	if plan.MonthlyPayment != want {
		t.Fatalf("monthly: expected %.6f got %.6f", want, plan.MonthlyPayment)
	}
	if plan.Guarded {
		t.Fatal("plan should not be guarded")
	}
}

func TestComputePlanPercentAdvance(t *testing.T) {
	plan := ComputePlan(PlanInput{
		Surface: 200,
		Terms: OfferTerms{
			PricePerM2:   40,
			AdvanceMode:  AdvancePercent,
			AdvanceValue: 25,
			CalcMode:     CalcMonths,
			CalcValue:    12,
		},
	})
	if plan.BasePrice != 8000 {
		t.Fatalf("expected base 8000 got %.2f", plan.BasePrice)
	}
	if plan.AdvanceAmount != 2000 {
		t.Fatalf("expected advance 2000 got %.2f", plan.AdvanceAmount)
	}
	if plan.RemainingForInstallments != 6000 {
		t.Fatalf("expected remaining 6000 got %.2f", plan.RemainingForInstallments)
	}
	if plan.MonthlyPayment != 500 {
		t.Fatalf("expected monthly 500 got %.2f", plan.MonthlyPayment)
	}
}

func TestComputePlanMonthlyAmountMode(t *testing.T) {
	plan := ComputePlan(PlanInput{
		Surface: 100,
		Terms: OfferTerms{
			PricePerM2:   50,
			AdvanceMode:  AdvanceFixed,
			AdvanceValue: 500,
			CalcMode:     CalcMonthlyAmount,
			CalcValue:    700,
		},
	})
	// remaining 4500 at 700/month -> 7 months (ceil 6.43).
	if plan.NumberOfMonths != 7 {
		t.Fatalf("expected 7 months got %d", plan.NumberOfMonths)
	}
	if plan.MonthlyPayment != 700 {
		t.Fatalf("expected monthly 700 got %.2f", plan.MonthlyPayment)
	}
}

func TestComputePlanDepositExceedsAdvance(t *testing.T) {
	plan := ComputePlan(PlanInput{
		Surface: 100,
		Terms: OfferTerms{
			PricePerM2:   50,
			AdvanceMode:  AdvanceFixed,
			AdvanceValue: 1000,
			CalcMode:     CalcMonths,
			CalcValue:    10,
		},
		Deposit: 2500,
	})
	// The excess deposit reduces the installment balance, never the
	// amount due at signing below zero.
	if plan.AdvanceAfterDeposit != 0 {
		t.Fatalf("expected zero due at signing, got %.2f", plan.AdvanceAfterDeposit)
	}
	if plan.RemainingForInstallments != 2500 {
		t.Fatalf("expected remaining 2500 got %.2f", plan.RemainingForInstallments)
	}
}

func TestComputePlanGuardsNonPositiveInputs(t *testing.T) {
	plan := ComputePlan(PlanInput{
		Surface: 0,
		Terms: OfferTerms{
			PricePerM2:  0,
			AdvanceMode: AdvanceFixed,
			CalcMode:    CalcMonths,
			CalcValue:   0,
		},
	})
	if !plan.Guarded {
		t.Fatal("expected guarded plan")
	}
	if plan.NumberOfMonths == 0 && plan.MonthlyPayment > 0 && plan.RemainingForInstallments > 0 {
		t.Fatal("months must not be zero while money remains")
	}
}

func TestComputePlanOverrideTotal(t *testing.T) {
	override := 9000.0
	plan := ComputePlan(PlanInput{
		Surface:       100,
		OverrideTotal: &override,
		Terms: OfferTerms{
			PricePerM2:   50,
			AdvanceMode:  AdvanceFixed,
			AdvanceValue: 1000,
			CalcMode:     CalcMonths,
			CalcValue:    10,
		},
	})
	if plan.BasePrice != 9000 {
		t.Fatalf("override total must be authoritative, got %.2f", plan.BasePrice)
	}
	if plan.RemainingForInstallments != 8000 {
		t.Fatalf("expected remaining 8000 got %.2f", plan.RemainingForInstallments)
	}
}

func TestComputePlanDeterministic(t *testing.T) {
	in := PlanInput{
		Surface: 133.7,
		Terms: OfferTerms{
			PricePerM2:   47.5,
			AdvanceMode:  AdvancePercent,
			AdvanceValue: 12.5,
			CalcMode:     CalcMonthlyAmount,
			CalcValue:    333,
		},
		Deposit: 199.99,
	}
	a := ComputePlan(in)
	b := ComputePlan(in)
	if a != b {
		t.Fatalf("calculator must be pure: %+v != %+v", a, b)
	}
}
