package finance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/validation"
)

func newFinanceRouter(backend *memoryBackend) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(backend, nil, nil, nil), nil).MountRoutes(r)
	return r
}

func post(h http.Handler, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rr
}

func TestHandleLogExpenseInsufficientBudget(t *testing.T) {
	backend := newMemoryBackend()
	rr := post(newFinanceRouter(backend), "/budget-allocations/1/expenses",
		`{"description":"Printer ink","amount":"30000","date":"2024-06-01T00:00:00Z"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, validation.MsgInsufficientBudget, body.Errors["amount"])
	require.Zero(t, backend.expenseCalls)
}

func TestHandleLogExpense(t *testing.T) {
	backend := newMemoryBackend()
	rr := post(newFinanceRouter(backend), "/budget-allocations/1/expenses",
		`{"description":"Printer ink","amount":"5000","date":"2024-06-01T00:00:00Z"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, 1, backend.expenseCalls)
}

func TestHandleLiquidationConflict(t *testing.T) {
	rr := post(newFinanceRouter(newMemoryBackend()), "/liquidations",
		`{"cash_advance_id":6,"expenses":[{"description":"Snacks","amount":"10"}]}`)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleMalformedBody(t *testing.T) {
	rr := post(newFinanceRouter(newMemoryBackend()), "/disbursements", `{"payee":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
