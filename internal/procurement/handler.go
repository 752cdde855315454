package procurement

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/validation"
)

// Handler exposes procurement mutations over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the procurement handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase-requests", h.handleFile)
	r.Post("/purchase-requests/{id}/quotations/{quotationID}/select", h.handleSelect)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	var form validation.PurchaseRequestForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	pr, err := h.service.FilePurchaseRequest(r.Context(), form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": pr})
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	prID, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotationID, err := parseID(r, "quotationID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotes, err := h.service.SelectWinningQuote(r.Context(), prID, quotationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": quotes})
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", httpx.ErrBadRequest, param)
	}
	return id, nil
}
