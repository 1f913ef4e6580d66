package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/money"
	"github.com/ardhi-erp/ardhi/internal/pricing"
	"github.com/ardhi-erp/ardhi/internal/shared"
)

// Confirm transitions a pending sale toward completed. For promise sales
// a tranche below the outstanding balance keeps the sale pending and
// only updates the partial/remaining pair; any other path completes the
// sale, marks the piece sold and, for installment sales, materializes
// the schedule, all in one transaction.
//
// The status check here is a fast-fail convenience. The guarantee that
// at most one confirmation succeeds comes from the conditional update
// keyed on the expected prior status inside the transaction.
func (s *Service) Confirm(ctx context.Context, saleID uuid.UUID, in ConfirmInput) (*ConfirmResult, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	sale, err := s.repo.Get(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	if sale.Status != StatusPending {
		return nil, &shared.ConflictError{Resource: "sale", Reason: "sale is no longer pending"}
	}

	switch sale.PaymentMethod {
	case MethodPromise:
		return s.confirmPromise(ctx, sale, in)
	case MethodInstallment:
		return s.confirmInstallment(ctx, sale, in)
	default:
		return s.confirmFull(ctx, sale, in)
	}
}

func (s *Service) confirmFull(ctx context.Context, sale *Sale, in ConfirmInput) (*ConfirmResult, error) {
	confirmation := money.Sub2(sale.SalePrice, sale.DepositAmount)

	patch := s.completionPatch(sale, in)
	if err := s.applyCompletion(ctx, sale, patch, nil); err != nil {
		return nil, err
	}
	if err := s.verifyWrite(ctx, sale, StatusCompleted); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("reload sale: %w", err)
	}
	s.publish(ctx, ConfirmedEvent{SaleID: sale.ID, ClientID: sale.ClientID, PieceID: sale.PieceID, Amount: confirmation})
	return &ConfirmResult{
		Sale:               updated,
		ConfirmationAmount: confirmation,
		PaidNow:            confirmation,
	}, nil
}

func (s *Service) confirmInstallment(ctx context.Context, sale *Sale, in ConfirmInput) (*ConfirmResult, error) {
	if in.InstallmentStart == nil {
		return nil, shared.NewValidation("installment_start", "required for installment sales")
	}

	plan, terms, err := s.resolvePlan(ctx, sale)
	if err != nil {
		return nil, err
	}
	schedule := pricing.BuildSchedule(plan, *in.InstallmentStart)
	confirmation := money.Round2(plan.AdvanceAfterDeposit)

	patch := s.completionPatch(sale, in)
	patch.OfferSnapshot = terms

	rows := make([]InstallmentRow, 0, len(schedule))
	for _, line := range schedule {
		rows = append(rows, InstallmentRow{
			SaleID:    sale.ID,
			Number:    line.Number,
			AmountDue: line.AmountDue,
			DueDate:   line.DueDate,
		})
	}

	if err := s.applyCompletion(ctx, sale, patch, rows); err != nil {
		return nil, err
	}
	if err := s.verifyWrite(ctx, sale, StatusCompleted); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("reload sale: %w", err)
	}
	s.publish(ctx, ConfirmedEvent{SaleID: sale.ID, ClientID: sale.ClientID, PieceID: sale.PieceID, Amount: confirmation})
	return &ConfirmResult{
		Sale:               updated,
		ConfirmationAmount: confirmation,
		PaidNow:            confirmation,
		Schedule:           schedule,
	}, nil
}

func (s *Service) confirmPromise(ctx context.Context, sale *Sale, in ConfirmInput) (*ConfirmResult, error) {
	if in.PaymentAmount == nil {
		return nil, shared.NewValidation("payment_amount", "required for promise sales")
	}
	pay := *in.PaymentAmount
	outstanding := money.Round2(sale.Outstanding())
	if pay <= 0 {
		return nil, shared.NewValidation("payment_amount", "must be positive")
	}
	if pay > outstanding+money.Epsilon {
		return nil, shared.NewValidation("payment_amount", "exceeds the outstanding confirmation amount")
	}

	newRemaining := money.Sub2(outstanding, pay)
	if newRemaining > money.Epsilon {
		return s.recordTranche(ctx, sale, in, outstanding, pay, newRemaining)
	}

	// Final tranche: the cumulative total paid equals price minus deposit.
	cumulative := money.Sub2(sale.SalePrice, sale.DepositAmount)
	zero := 0.0
	patch := s.completionPatch(sale, in)
	patch.PartialPaymentAmount = &cumulative
	patch.RemainingPaymentAmount = &zero

	if err := s.applyCompletion(ctx, sale, patch, nil); err != nil {
		return nil, err
	}
	if err := s.verifyWrite(ctx, sale, StatusCompleted); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("reload sale: %w", err)
	}
	s.publish(ctx, ConfirmedEvent{SaleID: sale.ID, ClientID: sale.ClientID, PieceID: sale.PieceID, Amount: pay})
	return &ConfirmResult{
		Sale:               updated,
		ConfirmationAmount: outstanding,
		PaidNow:            pay,
	}, nil
}

// recordTranche applies a non-final promise payment: the sale stays
// pending and the piece is not touched.
func (s *Service) recordTranche(ctx context.Context, sale *Sale, in ConfirmInput, outstanding, pay, newRemaining float64) (*ConfirmResult, error) {
	partial := money.Round2(sale.PartialPaymentAmount + pay)
	patch := SalePatch{
		PartialPaymentAmount:   &partial,
		RemainingPaymentAmount: &newRemaining,
		ConfirmedBy:            &in.ConfirmedBy,
		ContractWriter:         in.ContractWriter,
		Notes:                  in.Notes,
	}
	if fee := s.writableFee(sale, in); fee != nil {
		patch.CompanyFeeAmount = fee
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		rows, err := repo.ConditionalUpdate(ctx, sale.ID, StatusPending, patch)
		if err != nil {
			return fmt.Errorf("record tranche: %w", err)
		}
		if rows == 0 {
			return &shared.ConflictError{Resource: "sale", Reason: "sale is no longer pending"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.verifyWrite(ctx, sale, StatusPending); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("reload sale: %w", err)
	}
	s.publish(ctx, ConfirmedEvent{SaleID: sale.ID, ClientID: sale.ClientID, PieceID: sale.PieceID, Amount: pay, Partial: true})
	return &ConfirmResult{
		Sale:               updated,
		ConfirmationAmount: outstanding,
		PaidNow:            pay,
		RemainingAfter:     newRemaining,
		PartialPayment:     true,
	}, nil
}

// completionPatch builds the shared field set of a completing update.
func (s *Service) completionPatch(sale *Sale, in ConfirmInput) SalePatch {
	completed := StatusCompleted
	patch := SalePatch{
		Status:         &completed,
		ConfirmedBy:    &in.ConfirmedBy,
		ContractWriter: in.ContractWriter,
		Notes:          in.Notes,
	}
	if fee := s.writableFee(sale, in); fee != nil {
		patch.CompanyFeeAmount = fee
	}
	return patch
}

// writableFee honors the write-once commission rule: a commission
// already recorded (first tranche of a promise sale) is never
// overwritten by later confirmation calls.
func (s *Service) writableFee(sale *Sale, in ConfirmInput) *float64 {
	if sale.CompanyFeeAmount > 0 || in.CompanyFee <= 0 {
		return nil
	}
	fee := money.Round2(in.CompanyFee)
	return &fee
}

// applyCompletion performs the completing unit of work: conditional sale
// update, piece flip, and optional schedule materialization.
func (s *Service) applyCompletion(ctx context.Context, sale *Sale, patch SalePatch, installments []InstallmentRow) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
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
	})
}

// verifyWrite re-reads the sale and compares the persisted price against
// the intended one. A storage authorization layer that silently filters
// writes leaves the row unchanged; that must surface as a permission
// error, not success.
func (s *Service) verifyWrite(ctx context.Context, sale *Sale, wantStatus Status) error {
	persisted, err := s.repo.Get(ctx, sale.ID)
	if err != nil {
		return fmt.Errorf("verify write: %w", err)
	}
	if persisted.Status != wantStatus || !money.EqualWithin(persisted.SalePrice, sale.SalePrice, money.Epsilon) {
		return &shared.PermissionError{Resource: "sale"}
	}
	return nil
}

// resolvePlan computes the installment plan for a sale, falling back to
// an on-demand offer fetch when no snapshot is loaded yet. The
// contracted sale price is authoritative over surface pricing.
func (s *Service) resolvePlan(ctx context.Context, sale *Sale) (pricing.Plan, *pricing.OfferTerms, error) {
	terms := sale.OfferSnapshot
	if terms == nil {
		if sale.PaymentOfferID == nil {
			return pricing.Plan{}, nil, shared.NewValidation("payment_offer_id", "installment sale has no payment offer")
		}
		fetched, err := s.repo.OfferTerms(ctx, *sale.PaymentOfferID)
		if err != nil {
			return pricing.Plan{}, nil, fmt.Errorf("resolve offer: %w", err)
		}
		terms = fetched
	}

	piece, err := s.repo.PieceSnapshot(ctx, sale.PieceID)
	if err != nil {
		return pricing.Plan{}, nil, fmt.Errorf("load piece: %w", err)
	}

	price := sale.SalePrice
	plan := pricing.ComputePlan(pricing.PlanInput{
		Surface:       piece.SurfaceM2,
		OverrideTotal: &price,
		Terms:         *terms,
		Deposit:       sale.DepositAmount,
	})
	return plan, terms, nil
}
