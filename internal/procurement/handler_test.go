package procurement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

func TestHandleSelect(t *testing.T) {
	backend := newMemoryProcBackend(workflow.StatusApproved)
	r := chi.NewRouter()
	NewHandler(NewService(backend, nil, nil, nil), nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/purchase-requests/7/quotations/3/select", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Data []entity.Quotation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	for _, q := range body.Data {
		require.Equal(t, q.ID == 3, q.IsWinningQuote)
	}
}

func TestHandleSelectErrors(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(NewService(newMemoryProcBackend(workflow.StatusPending), nil, nil, nil), nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/purchase-requests/7/quotations/3/select", nil))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/purchase-requests/x/quotations/3/select", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
