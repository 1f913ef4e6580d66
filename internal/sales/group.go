package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ardhi-erp/ardhi/internal/money"
	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// ConfirmGroup applies the confirmation rules to a set of sales that
// share one client interaction and one aggregate payment/commission.
// The whole group runs in a single transaction: if any per-sale
// conditional update loses its race, everything rolls back and the
// caller gets a ConflictError instead of a half-applied group.
func (s *Service) ConfirmGroup(ctx context.Context, in GroupConfirmInput) (*GroupConfirmResult, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	group, err := s.loadGroup(ctx, in)
	if err != nil {
		return nil, err
	}

	var result *GroupConfirmResult
	switch group.method {
	case MethodPromise:
		result, err = s.groupPromise(ctx, group, in)
	case MethodInstallment:
		result, err = s.groupInstallment(ctx, group, in)
	default:
		result, err = s.groupFull(ctx, group, in)
	}
	if err != nil {
		return nil, err
	}

	for i, sale := range group.sales {
		want := StatusCompleted
		if result.Results[i].PartialPayment {
			want = StatusPending
		}
		if err := s.verifyWrite(ctx, sale, want); err != nil {
			return nil, err
		}
		s.publish(ctx, ConfirmedEvent{
			SaleID:   sale.ID,
			ClientID: sale.ClientID,
			PieceID:  sale.PieceID,
			Amount:   result.Results[i].PaidNow,
			Partial:  result.Results[i].PartialPayment,
		})
	}

	for i, sale := range group.sales {
		updated, err := s.repo.Get(ctx, sale.ID)
		if err != nil {
			return nil, fmt.Errorf("reload sale: %w", err)
		}
		result.Results[i].Sale = updated
	}
	return result, nil
}

type saleGroup struct {
	sales  []*Sale
	pieces []*PieceSnapshot
	method PaymentMethod
}

func (s *Service) loadGroup(ctx context.Context, in GroupConfirmInput) (*saleGroup, error) {
	g := &saleGroup{}
	for _, id := range in.SaleIDs {
		sale, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load sale %s: %w", id, err)
		}
		if sale.Status != StatusPending {
			return nil, &shared.ConflictError{Resource: "sale", Reason: "a sale in the group is no longer pending"}
		}
		if len(g.sales) > 0 {
			if sale.ClientID != g.sales[0].ClientID {
				return nil, shared.NewValidation("sale_ids", "all sales must belong to one client")
			}
			if sale.PaymentMethod != g.sales[0].PaymentMethod {
				return nil, shared.NewValidation("sale_ids", "all sales must share one payment method")
			}
		}
		piece, err := s.repo.PieceSnapshot(ctx, sale.PieceID)
		if err != nil {
			return nil, fmt.Errorf("load piece: %w", err)
		}
		g.sales = append(g.sales, sale)
		g.pieces = append(g.pieces, piece)
	}
	g.method = g.sales[0].PaymentMethod
	return g, nil
}

func (s *Service) groupFull(ctx context.Context, g *saleGroup, in GroupConfirmInput) (*GroupConfirmResult, error) {
	fees := distributeEvenly(in.TotalCompanyFee, len(g.sales))
	results := make([]ConfirmResult, len(g.sales))
	totalPaid := 0.0

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for i, sale := range g.sales {
			patch := s.groupCompletionPatch(sale, in, fees[i])
			if err := completeInTx(ctx, repo, sale, patch, nil); err != nil {
				return err
			}
			confirmation := money.Sub2(sale.SalePrice, sale.DepositAmount)
			results[i] = ConfirmResult{ConfirmationAmount: confirmation, PaidNow: confirmation}
			totalPaid += confirmation
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &GroupConfirmResult{Results: results, TotalPaidNow: money.Round2(totalPaid), Completed: true}, nil
}

func (s *Service) groupInstallment(ctx context.Context, g *saleGroup, in GroupConfirmInput) (*GroupConfirmResult, error) {
	if in.InstallmentStart == nil {
		return nil, shared.NewValidation("installment_start", "required for installment sales")
	}

	// All sales must reference one offer so the aggregate plan has a
	// single set of terms.
	first := g.sales[0]
	if first.PaymentOfferID == nil {
		return nil, shared.NewValidation("sale_ids", "installment sales need a payment offer")
	}
	for _, sale := range g.sales[1:] {
		if sale.PaymentOfferID == nil || *sale.PaymentOfferID != *first.PaymentOfferID {
			return nil, shared.NewValidation("sale_ids", "all sales must share one payment offer")
		}
	}
	terms, err := s.repo.OfferTerms(ctx, *first.PaymentOfferID)
	if err != nil {
		return nil, fmt.Errorf("resolve offer: %w", err)
	}

	var combinedPrice, combinedDeposit, combinedSurface float64
	for i, sale := range g.sales {
		combinedPrice += sale.SalePrice
		combinedDeposit += sale.DepositAmount
		combinedSurface += g.pieces[i].SurfaceM2
	}

	plan := pricing.ComputePlan(pricing.PlanInput{
		Surface:       combinedSurface,
		OverrideTotal: &combinedPrice,
		Terms:         *terms,
		Deposit:       combinedDeposit,
	})
	aggregate := pricing.BuildSchedule(plan, *in.InstallmentStart)

	weights := make([]float64, len(g.sales))
	for i, piece := range g.pieces {
		weights[i] = piece.SurfaceM2
	}

	// Split every aggregate line across the sales by surface share; the
	// last sale absorbs the per-line rounding remainder.
	perSale := make([][]InstallmentRow, len(g.sales))
	perSaleSchedules := make([][]pricing.ScheduleLine, len(g.sales))
	for _, line := range aggregate {
		shares := distributeProportional(line.AmountDue, weights)
		for i := range g.sales {
			perSale[i] = append(perSale[i], InstallmentRow{
				SaleID:    g.sales[i].ID,
				Number:    line.Number,
				AmountDue: shares[i],
				DueDate:   line.DueDate,
			})
			perSaleSchedules[i] = append(perSaleSchedules[i], pricing.ScheduleLine{
				Number:    line.Number,
				AmountDue: shares[i],
				DueDate:   line.DueDate,
			})
		}
	}

	fees := distributeEvenly(in.TotalCompanyFee, len(g.sales))
	confirmationShares := distributeProportional(money.Round2(plan.AdvanceAfterDeposit), weights)
	results := make([]ConfirmResult, len(g.sales))

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for i, sale := range g.sales {
			patch := s.groupCompletionPatch(sale, in, fees[i])
			patch.OfferSnapshot = terms
			if err := completeInTx(ctx, repo, sale, patch, perSale[i]); err != nil {
				return err
			}
			results[i] = ConfirmResult{
				ConfirmationAmount: confirmationShares[i],
				PaidNow:            confirmationShares[i],
				Schedule:           perSaleSchedules[i],
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &GroupConfirmResult{
		Results:      results,
		TotalPaidNow: money.Round2(plan.AdvanceAfterDeposit),
		Completed:    true,
	}, nil
}

func (s *Service) groupPromise(ctx context.Context, g *saleGroup, in GroupConfirmInput) (*GroupConfirmResult, error) {
	if in.TotalPayment == nil {
		return nil, shared.NewValidation("total_payment", "required for promise sales")
	}

	outstanding := make([]float64, len(g.sales))
	totalOutstanding := 0.0
	for i, sale := range g.sales {
		outstanding[i] = money.Round2(sale.Outstanding())
		totalOutstanding += outstanding[i]
	}
	if *in.TotalPayment > totalOutstanding+money.Epsilon {
		return nil, shared.NewValidation("total_payment", "exceeds the group's outstanding amount")
	}

	payments := distributeProportional(*in.TotalPayment, outstanding)
	fees := distributeEvenly(in.TotalCompanyFee, len(g.sales))
	results := make([]ConfirmResult, len(g.sales))
	totalPaid, totalRemaining := 0.0, 0.0
	allCompleted := true

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for i, sale := range g.sales {
			pay := payments[i]
			newRemaining := money.Sub2(outstanding[i], pay)
			if newRemaining > money.Epsilon {
				partial := money.Round2(sale.PartialPaymentAmount + pay)
				patch := SalePatch{
					PartialPaymentAmount:   &partial,
					RemainingPaymentAmount: &newRemaining,
					ConfirmedBy:            &in.ConfirmedBy,
					ContractWriter:         in.ContractWriter,
					Notes:                  in.Notes,
				}
				if sale.CompanyFeeAmount == 0 && fees[i] > 0 {
					fee := fees[i]
					patch.CompanyFeeAmount = &fee
				}
				rows, err := repo.ConditionalUpdate(ctx, sale.ID, StatusPending, patch)
				if err != nil {
					return fmt.Errorf("record group tranche: %w", err)
				}
				if rows == 0 {
					return &shared.ConflictError{Resource: "sale", Reason: "a sale in the group is no longer pending"}
				}
				results[i] = ConfirmResult{
					ConfirmationAmount: outstanding[i],
					PaidNow:            pay,
					RemainingAfter:     newRemaining,
					PartialPayment:     true,
				}
				totalRemaining += newRemaining
				allCompleted = false
			} else {
				cumulative := money.Sub2(sale.SalePrice, sale.DepositAmount)
				zero := 0.0
				patch := s.groupCompletionPatch(sale, in, fees[i])
				patch.PartialPaymentAmount = &cumulative
				patch.RemainingPaymentAmount = &zero
				if err := completeInTx(ctx, repo, sale, patch, nil); err != nil {
					return err
				}
				results[i] = ConfirmResult{ConfirmationAmount: outstanding[i], PaidNow: pay}
			}
			totalPaid += pay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &GroupConfirmResult{
		Results:        results,
		TotalPaidNow:   money.Round2(totalPaid),
		TotalRemaining: money.Round2(totalRemaining),
		Completed:      allCompleted,
	}, nil
}

func (s *Service) groupCompletionPatch(sale *Sale, in GroupConfirmInput, fee float64) SalePatch {
	completed := StatusCompleted
	patch := SalePatch{
		Status:         &completed,
		ConfirmedBy:    &in.ConfirmedBy,
		ContractWriter: in.ContractWriter,
		Notes:          in.Notes,
	}
	if sale.CompanyFeeAmount == 0 && fee > 0 {
		f := fee
		patch.CompanyFeeAmount = &f
	}
	return patch
}

// completeInTx is the per-sale completing unit of work running on a
// tx-scoped repository.
func completeInTx(ctx context.Context, repo Repository, sale *Sale, patch SalePatch, installments []InstallmentRow) error {
	rows, err := repo.ConditionalUpdate(ctx, sale.ID, StatusPending, patch)
	if err != nil {
		return fmt.Errorf("complete sale: %w", err)
	}
	if rows == 0 {
		return &shared.ConflictError{Resource: "sale", Reason: "sale is no longer pending"}
	}
	rows, err = repo.MarkPieceSold(ctx, sale.PieceID)
	if err != nil {
		return fmt.Errorf("mark piece sold: %w", err)
	}
	if rows == 0 {
		return &shared.ConflictError{Resource: "piece", Reason: "piece is already sold"}
	}
	if len(installments) > 0 {
		if err := repo.InsertInstallments(ctx, installments); err != nil {
			return fmt.Errorf("materialize schedule: %w", err)
		}
	}
	return nil
}

// distributeProportional splits total across weights, rounding each
// share to 2 decimals with the final share absorbing the remainder so
// the parts always sum to the rounded total.
func distributeProportional(total float64, weights []float64) []float64 {
	n := len(weights)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	weightSum := 0.0
	for _, w := range weights {
		weightSum += w
	}
	if weightSum <= 0 {
		return distributeEvenly(total, n)
	}

	totalDec := decimal.NewFromFloat(total).Round(2)
	allocated := decimal.Zero
	for i, w := range weights[:n-1] {
		share := totalDec.Mul(decimal.NewFromFloat(w)).Div(decimal.NewFromFloat(weightSum)).Round(2)
		allocated = allocated.Add(share)
		out[i], _ = share.Float64()
	}
	return settleRemainder(out, totalDec, allocated)
}

// distributeEvenly splits total into n equal 2-decimal shares, the last
// absorbing the remainder.
func distributeEvenly(total float64, n int) []float64 {
	out := make([]float64, n)
	if n == 0 || total == 0 {
		return out
	}
	totalDec := decimal.NewFromFloat(total).Round(2)
	share := totalDec.Div(decimal.NewFromInt(int64(n))).Round(2)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		out[i], _ = share.Float64()
		allocated = allocated.Add(share)
	}
	return settleRemainder(out, totalDec, allocated)
}

// settleRemainder hands the unallocated remainder to the final share.
// When the rounded shares overshoot the total the remainder is negative;
// the deficit is taken back from earlier shares so no share drops below
// zero and the parts still sum to the total.
func settleRemainder(out []float64, totalDec, allocated decimal.Decimal) []float64 {
	n := len(out)
	last := totalDec.Sub(allocated)
	for i := n - 2; i >= 0 && last.IsNegative(); i-- {
		share := decimal.NewFromFloat(out[i])
		give := decimal.Min(share, last.Neg())
		out[i], _ = share.Sub(give).Float64()
		last = last.Add(give)
	}
	out[n-1], _ = last.Float64()
	return out
}
