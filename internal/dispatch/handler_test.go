package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/platform/httpx"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/store"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

type stubSource struct {
	subject workflow.Subject
	calls   int
}

func (s *stubSource) Subject(ctx context.Context, kind workflow.Kind, id int64) (workflow.Subject, error) {
	s.calls++
	return s.subject, nil
}

type countingObserver struct{ calls []string }

func (c *countingObserver) ObserveAction(kind, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.calls = append(c.calls, kind+"/"+action+"/"+outcome)
}

var (
	schoolHead = entity.User{ID: 4, Name: "Ma. Santos", Role: workflow.RoleSchoolHead}
	employee   = entity.User{ID: 21, Name: "J. Cruz", Role: workflow.RoleEmployee}
	bookkeeper = entity.User{ID: 12, Name: "R. Reyes", Role: workflow.RoleBookkeeper}
)

func newTestRouter(t *testing.T, backend *fakeBackend, source *stubSource, obs *countingObserver) (http.Handler, *store.State) {
	t.Helper()
	d, st, _ := setup(t, backend)
	r := chi.NewRouter()
	NewHandler(d, st, source, obs, nil).MountRoutes(r)
	return r, st
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

// serveAs serves the request as a caller the auth middleware already resolved.
func serveAs(h http.Handler, user entity.User, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(session.WithAuth(req.Context(), session.Auth{User: user, Token: "tok", IsAuthenticated: true}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleActionsFiltersByRole(t *testing.T) {
	h, _ := newTestRouter(t, &fakeBackend{}, &stubSource{}, nil)

	rr := serve(h, http.MethodGet, "/workflow/leave-request/actions?status=pending&role=school_head", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Status  workflow.Status   `json:"status"`
		Actions []workflow.Action `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, workflow.StatusPending, body.Status)
	require.Equal(t, []workflow.Action{workflow.ActionApprove, workflow.ActionReject}, body.Actions)

	rr = serve(h, http.MethodGet, "/workflow/leave-request/actions?status=pending&role=employee", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"actions":[]`)

	rr = serve(h, http.MethodGet, "/workflow/payroll/actions?status=pending", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleActionsDefaultsToCallerRole(t *testing.T) {
	h, _ := newTestRouter(t, &fakeBackend{}, &stubSource{}, nil)

	rr := serveAs(h, employee, http.MethodGet, "/workflow/leave-request/actions?status=pending", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"actions":[]`)
}

func TestHandleStatuses(t *testing.T) {
	h, _ := newTestRouter(t, &fakeBackend{}, &stubSource{}, nil)
	rr := serve(h, http.MethodGet, "/workflow/disbursement/statuses", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"Certified"`)
}

func TestHandleTransitionFetchesCurrentCopy(t *testing.T) {
	leave := entity.LeaveRequest{ID: 9, Status: workflow.StatusPending}
	backend := &fakeBackend{result: entity.LeaveRequest{ID: 9, Status: workflow.StatusApproved}}
	source := &stubSource{subject: leave}
	obs := &countingObserver{}
	h, st := newTestRouter(t, backend, source, obs)

	rr := serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/9/approve", `{"status":"Pending"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, source.calls)
	require.Equal(t, 1, backend.calls)
	require.Equal(t, schoolHead.ID, backend.body.ActorID)
	require.Contains(t, rr.Body.String(), `"to":"Approved"`)
	require.Equal(t, []string{"leave_request/approve/ok"}, obs.calls)

	cached, ok := st.Subject(workflow.KindLeaveRequest, 9)
	require.True(t, ok)
	require.Equal(t, workflow.StatusApproved, cached.WorkflowStatus())
}

func TestHandleTransitionRequiresCaller(t *testing.T) {
	backend := &fakeBackend{}
	source := &stubSource{subject: entity.LeaveRequest{ID: 9, Status: workflow.StatusPending}}
	h, _ := newTestRouter(t, backend, source, nil)

	rr := serve(h, http.MethodPost, "/workflow/leave_request/9/approve", `{"actor_id":4,"role":"school_head"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Zero(t, source.calls)
	require.Zero(t, backend.calls)
}

func TestHandleTransitionIgnoresBodyRole(t *testing.T) {
	backend := &fakeBackend{}
	obs := &countingObserver{}
	source := &stubSource{subject: entity.LeaveRequest{ID: 9, Status: workflow.StatusPending}}
	h, _ := newTestRouter(t, backend, source, obs)

	rr := serveAs(h, employee, http.MethodPost, "/workflow/leave_request/9/approve", `{"actor_id":1,"role":"admin"}`)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Zero(t, backend.calls)
	require.Equal(t, []string{"leave_request/approve/error"}, obs.calls)
}

func TestHandleTransitionStaleStatus(t *testing.T) {
	backend := &fakeBackend{}
	source := &stubSource{subject: entity.LeaveRequest{ID: 9, Status: workflow.StatusApproved}}
	h, _ := newTestRouter(t, backend, source, nil)

	rr := serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/9/approve", `{"status":"Pending"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Zero(t, backend.calls)
}

func TestHandleTransitionOutdatedCache(t *testing.T) {
	overdue := entity.CashAdvance{ID: 7, Status: workflow.StatusOverdue}
	backend := &fakeBackend{result: entity.CashAdvance{ID: 7, Status: workflow.StatusFullyLiquidated}}
	source := &stubSource{subject: overdue}
	h, st := newTestRouter(t, backend, source, nil)
	require.NoError(t, st.ReplaceSubject(context.Background(), entity.CashAdvance{ID: 7, Status: workflow.StatusReleased}))

	// the cache still says Released; the overdue sweep already moved it
	rr := serveAs(h, bookkeeper, http.MethodPost, "/workflow/cash_advance/7/mark_overdue", `{}`)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	require.Zero(t, backend.calls)
	cached, ok := st.Subject(workflow.KindCashAdvance, 7)
	require.True(t, ok)
	require.Equal(t, workflow.StatusOverdue, cached.WorkflowStatus())

	rr = serveAs(h, bookkeeper, http.MethodPost, "/workflow/cash_advance/7/liquidate_full", `{"status":"Overdue"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, backend.calls)
	require.Contains(t, rr.Body.String(), `"from":"Overdue"`)
	require.Contains(t, rr.Body.String(), `"to":"Fully Liquidated"`)
}

func TestHandleTransitionRequiresReason(t *testing.T) {
	backend := &fakeBackend{}
	source := &stubSource{subject: entity.LeaveRequest{ID: 9, Status: workflow.StatusPending}}
	h, _ := newTestRouter(t, backend, source, nil)

	rr := serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/9/reject", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Contains(t, body.Errors, "reason")
	require.Zero(t, backend.calls)
}

func TestHandleTransitionUnknownSubject(t *testing.T) {
	backend := &fakeBackend{}
	h, _ := newTestRouter(t, backend, &stubSource{}, nil)

	rr := serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/404/approve", `{}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Zero(t, backend.calls)
}

func TestHandleTransitionBadInput(t *testing.T) {
	h, _ := newTestRouter(t, &fakeBackend{}, &stubSource{}, nil)

	rr := serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/abc/approve", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/9/teleport", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serveAs(h, schoolHead, http.MethodPost, "/workflow/leave_request/9/approve", `{"status":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
