// Package finance covers budget spending, cash advances and liquidations.
package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/stats"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

// ErrAdvanceNotLiquidatable is returned when a liquidation targets a cash
// advance that has not been released.
var ErrAdvanceNotLiquidatable = errors.New("finance: cash advance is not open for liquidation")

// BackendPort is the slice of the REST client the service uses.
type BackendPort interface {
	BudgetAllocation(ctx context.Context, id int64) (entity.BudgetAllocation, error)
	LogExpense(ctx context.Context, form validation.ExpenseForm) (entity.BudgetAllocation, error)
	CashAdvance(ctx context.Context, id int64) (entity.CashAdvance, error)
	CreateCashAdvance(ctx context.Context, form validation.CashAdvanceForm) (entity.CashAdvance, error)
	CreateLiquidation(ctx context.Context, form validation.LiquidationForm) (entity.Liquidation, error)
	CreateDisbursement(ctx context.Context, form validation.DisbursementForm) (entity.Disbursement, error)
}

// Invalidator drops cached summaries after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service orchestrates finance mutations.
type Service struct {
	backend BackendPort
	state   *store.State
	cache   Invalidator
	logger  *slog.Logger
}

// NewService constructs the finance service. state and cache may be nil.
func NewService(backend BackendPort, state *store.State, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, state: state, cache: cache, logger: logger}
}

// LogExpense records spending against an allocation. An amount above the
// allocation's remaining budget fails locally and is never sent.
func (s *Service) LogExpense(ctx context.Context, form validation.ExpenseForm) (entity.BudgetAllocation, error) {
	if errs := validation.Validate(form); !errs.Valid() {
		return entity.BudgetAllocation{}, errs.Err()
	}
	allocation, err := s.allocation(ctx, form.AllocationID)
	if err != nil {
		return entity.BudgetAllocation{}, err
	}
	if errs := validation.ValidateExpense(form, allocation); !errs.Valid() {
		s.logger.Info("expense rejected locally",
			slog.Int64("allocation_id", allocation.ID),
			slog.String("amount", stats.FormatPeso(form.Amount)),
			slog.String("remaining", stats.FormatPeso(allocation.Remaining())))
		return entity.BudgetAllocation{}, errs.Err()
	}
	updated, err := s.backend.LogExpense(ctx, form)
	if err != nil {
		return entity.BudgetAllocation{}, err
	}
	if s.state != nil {
		if err := s.state.ReplaceAllocation(ctx, updated); err != nil {
			s.logger.Warn("cache allocation", slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return updated, nil
}

// allocation reads the backend copy and refreshes the cache with it. The
// cached copy is used only while the backend is unreachable.
func (s *Service) allocation(ctx context.Context, id int64) (entity.BudgetAllocation, error) {
	a, err := s.backend.BudgetAllocation(ctx, id)
	if err == nil {
		if s.state != nil {
			if err := s.state.ReplaceAllocation(ctx, a); err != nil {
				s.logger.Warn("cache allocation", slog.Any("error", err))
			}
		}
		return a, nil
	}
	if errors.Is(err, api.ErrNetwork) && s.state != nil {
		for _, cached := range s.state.Finance.Snapshot().Allocations {
			if cached.ID == id {
				s.logger.Warn("backend unreachable, checking budget against cached allocation", slog.Int64("allocation_id", id))
				return cached, nil
			}
		}
	}
	return entity.BudgetAllocation{}, fmt.Errorf("finance: load allocation %d: %w", id, err)
}

// RequestCashAdvance validates and files a cash advance.
func (s *Service) RequestCashAdvance(ctx context.Context, form validation.CashAdvanceForm) (entity.CashAdvance, error) {
	if errs := validation.Validate(form); !errs.Valid() {
		return entity.CashAdvance{}, errs.Err()
	}
	ca, err := s.backend.CreateCashAdvance(ctx, form)
	if err != nil {
		return entity.CashAdvance{}, err
	}
	if s.state != nil {
		if err := s.state.ReplaceSubject(ctx, ca); err != nil {
			s.logger.Warn("cache cash advance", slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return ca, nil
}

// FileDisbursement validates and files a disbursement voucher.
func (s *Service) FileDisbursement(ctx context.Context, form validation.DisbursementForm) (entity.Disbursement, error) {
	if errs := validation.Validate(form); !errs.Valid() {
		return entity.Disbursement{}, errs.Err()
	}
	dv, err := s.backend.CreateDisbursement(ctx, form)
	if err != nil {
		return entity.Disbursement{}, err
	}
	if s.state != nil {
		if err := s.state.ReplaceSubject(ctx, dv); err != nil {
			s.logger.Warn("cache disbursement", slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return dv, nil
}

// LiquidationOutcome pairs the filed liquidation with the cash balance it
// leaves between the employee and the school.
type LiquidationOutcome struct {
	Liquidation entity.Liquidation       `json:"liquidation"`
	Balance     stats.LiquidationBalance `json:"balance"`
}

// SubmitLiquidation files expenses against a released cash advance.
func (s *Service) SubmitLiquidation(ctx context.Context, form validation.LiquidationForm) (LiquidationOutcome, error) {
	if errs := validation.Validate(form); !errs.Valid() {
		return LiquidationOutcome{}, errs.Err()
	}
	advance, err := s.backend.CashAdvance(ctx, form.CashAdvanceID)
	if err != nil {
		return LiquidationOutcome{}, err
	}
	switch advance.Status {
	case workflow.StatusReleased, workflow.StatusPartiallyLiquidated, workflow.StatusOverdue:
	default:
		return LiquidationOutcome{}, fmt.Errorf("%w: %s", ErrAdvanceNotLiquidatable, advance.Status)
	}
	liq, err := s.backend.CreateLiquidation(ctx, form)
	if err != nil {
		return LiquidationOutcome{}, err
	}
	expenses := make([]entity.LiquidationExpense, 0, len(form.Expenses))
	for _, e := range form.Expenses {
		expenses = append(expenses, entity.LiquidationExpense{Description: e.Description, Amount: e.Amount, ORNumber: e.ORNumber})
	}
	if s.state != nil {
		if err := s.state.ReplaceSubject(ctx, liq); err != nil {
			s.logger.Warn("cache liquidation", slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return LiquidationOutcome{
		Liquidation: liq,
		Balance:     stats.BalanceLiquidation(advance.Amount.Sub(advance.LiquidatedAmount), expenses),
	}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate dashboards", slog.Any("error", err))
	}
}
