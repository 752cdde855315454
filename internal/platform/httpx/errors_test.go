package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validation.Errors{"amount": "Amount is required."}.Err(), http.StatusUnprocessableEntity},
		{"backend 404", &api.Error{Status: 404, Message: "Not found"}, http.StatusNotFound},
		{"network", &api.Error{Message: "Unable to connect"}, http.StatusBadGateway},
		{"reason", fmt.Errorf("wrap: %w", workflow.ErrReasonRequired), http.StatusUnprocessableEntity},
		{"forbidden", workflow.ErrForbiddenAction, http.StatusForbidden},
		{"transition", &workflow.TransitionError{Kind: workflow.KindLeaveRequest, Status: workflow.StatusApproved, Action: workflow.ActionApprove, Err: workflow.ErrInvalidTransition}, http.StatusConflict},
		{"unknown kind", workflow.ErrUnknownKind, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: x", ErrNotFound), http.StatusNotFound},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := Classify(tc.err)
			require.Equal(t, tc.status, status)
		})
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, &api.Error{
		Status:  422,
		Message: "The fund source field is required.",
		Errors:  map[string][]string{"fund_source": {"The fund source field is required."}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "The fund source field is required.", body.Message)
	require.Equal(t, "The fund source field is required.", body.Errors["fund_source"])
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "pq:")
	require.Contains(t, rr.Body.String(), api.DefaultErrorMessage)
}
