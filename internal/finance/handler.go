package finance

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/validation"
)

// Handler exposes the finance mutations over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the finance handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/budget-allocations/{id}/expenses", h.handleLogExpense)
	r.Post("/cash-advances", h.handleCashAdvance)
	r.Post("/disbursements", h.handleDisbursement)
	r.Post("/liquidations", h.handleLiquidation)
}

func (h *Handler) handleLogExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid allocation id", httpx.ErrBadRequest))
		return
	}
	var form validation.ExpenseForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	form.AllocationID = id
	allocation, err := h.service.LogExpense(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": allocation})
}

func (h *Handler) handleCashAdvance(w http.ResponseWriter, r *http.Request) {
	var form validation.CashAdvanceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ca, err := h.service.RequestCashAdvance(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": ca})
}

func (h *Handler) handleDisbursement(w http.ResponseWriter, r *http.Request) {
	var form validation.DisbursementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dv, err := h.service.FileDisbursement(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": dv})
}

func (h *Handler) handleLiquidation(w http.ResponseWriter, r *http.Request) {
	var form validation.LiquidationForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.SubmitLiquidation(r.Context(), form)
	if err != nil {
		if errors.Is(err, ErrAdvanceNotLiquidatable) {
			err = fmt.Errorf("%w: %w", httpx.ErrConflict, err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
