package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/entity"
	"github.com/jehnsen/admin-suite/internal/session"
	"github.com/jehnsen/admin-suite/internal/validation"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewMemoryStore()
	opts = append([]Option{WithSessionStore(store)}, opts...)
	return New(srv.URL, opts...), store
}

func signIn(t *testing.T, store session.Store) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), session.Auth{
		User:            entity.User{ID: 1, Name: "Head", Role: workflow.RoleSchoolHead},
		Token:           "secret",
		IsAuthenticated: true,
	}))
}

func TestLoginPersistsSession(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "head@school.edu.ph", body["email"])
		_, _ = w.Write([]byte(`{"token":"abc","user":{"id":"7","name":"Head","email":"head@school.edu.ph","role":"School Head"}}`))
	})

	auth, err := client.Login(context.Background(), "head@school.edu.ph", "pw")
	require.NoError(t, err)
	require.True(t, auth.IsAuthenticated)
	require.Equal(t, int64(7), auth.User.ID)
	require.Equal(t, workflow.RoleSchoolHead, auth.User.Role)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", stored.Token)
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	signIn(t, store)

	err := client.Logout(context.Background())
	require.ErrorIs(t, err, ErrServer)
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestBearerTokenAttached(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "Pending", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"status":"pending","leave_type":"Sick","days":"2"}],"current_page":2,"per_page":15,"total":16,"last_page":2,"from":16,"to":16}`))
	})
	signIn(t, store)

	page, err := client.LeaveRequests(context.Background(), ListParams{Page: 2, Status: workflow.StatusPending})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, workflow.StatusPending, page.Data[0].Status)
	require.True(t, page.Data[0].Days.Equal(decimal.NewFromInt(2)))
	require.Equal(t, 16, page.Total)
	require.False(t, page.HasMore())
}

func TestNetworkErrorNamesBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := New(base)
	_, err := client.Employees(context.Background(), ListParams{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 0, apiErr.Status)
	require.Contains(t, apiErr.Message, base)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestUnauthorizedPurgesSession(t *testing.T) {
	var hooked atomic.Bool
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	}, WithUnauthorizedHook(func(context.Context) { hooked.Store(true) }))
	signIn(t, store)

	_, err := client.PurchaseRequests(context.Background(), ListParams{})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, "401: Unauthenticated.", err.Error())
	require.True(t, hooked.Load())
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestValidationErrorUsesFirstField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"purpose":["The purpose field is required."],"fund_source":"The fund source field is required."}}`))
	})

	_, err := client.CreatePurchaseRequest(context.Background(), validation.PurchaseRequestForm{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "The fund source field is required.", apiErr.Message)
	require.Equal(t, "The purpose field is required.", apiErr.FieldErrors()["purpose"])
	require.Len(t, apiErr.Errors, 2)
}

func TestGenericErrorFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.Disbursement(context.Background(), 3)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, DefaultErrorMessage, apiErr.Message)
	require.ErrorIs(t, err, ErrServer)
}

func TestBudgetAllocationFieldVariants(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"source":"MOOE","allocated":"100000","spent":75000},
			{"id":"2","fund_source":{"name":"SEF"},"allocated_amount":50000.50,"spent_amount":"0"}
		],"meta":{"current_page":1,"per_page":15,"total":2,"last_page":1}}`))
	})

	page, err := client.BudgetAllocations(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.Equal(t, "MOOE", page.Data[0].FundSource)
	require.True(t, page.Data[0].Remaining().Equal(decimal.NewFromInt(25000)))
	require.Equal(t, int64(2), page.Data[1].ID)
	require.Equal(t, "SEF", page.Data[1].FundSource)
	require.Equal(t, "50000.5", page.Data[1].Allocated.String())
	require.Equal(t, 2, page.Total)
}

func TestBareArrayList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"item_name":"Bond paper","quantity_on_hand":"3","reorder_level":5}]`))
	})

	page, err := client.InventoryItems(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "Bond paper", page.Data[0].Name)
	require.True(t, page.Data[0].BelowReorder())
	require.Equal(t, 1, page.LastPage)
}

func TestUnknownStatusKeptVerbatim(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":4,"po_number":"PO-4","status":"Confirmed"}}`))
	})

	po, err := client.PurchaseOrder(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, workflow.Status("Confirmed"), po.Status)
	require.Empty(t, workflow.AllowedActions(workflow.KindPurchaseOrder, po.Status))
}

func TestTransitionPostsSegment(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/leave-requests/9/disapprove", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		var body TransitionBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "short staffed", body.Reason)
		_, _ = w.Write([]byte(`{"data":{"id":9,"status":"Disapproved","employee_id":{"id":3},"disapproved_by":1}}`))
	})
	signIn(t, store)

	subject, err := client.Transition(context.Background(), workflow.KindLeaveRequest, 9, workflow.ActionReject, TransitionBody{ActorID: 1, Reason: "short staffed"})
	require.NoError(t, err)
	leave, ok := subject.(entity.LeaveRequest)
	require.True(t, ok)
	require.Equal(t, workflow.StatusDisapproved, leave.Status)
	require.Equal(t, int64(3), leave.EmployeeID)
	require.Equal(t, int64(1), leave.DisapprovedBy)
}

func TestTransitionRejectsUnknownKind(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.Transition(context.Background(), workflow.Kind("payroll"), 1, workflow.ActionApprove, TransitionBody{})
	require.ErrorIs(t, err, workflow.ErrUnknownKind)
}

func TestIdenticalTransitionsShareOneRequest(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"id":5,"status":"Approved"}`))
	})
	signIn(t, store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = client.Transition(context.Background(), workflow.KindPurchaseRequest, 5, workflow.ActionApprove, TransitionBody{ActorID: 1})
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, results[0])
	require.NoError(t, results[1])
	require.Equal(t, int32(1), calls.Load())
}

func TestCancelledCallerAbandonsWait(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Employees(ctx, ListParams{})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("caller did not return after cancel")
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	labels []string
}

func (o *recordingObserver) ObserveBackend(method, resource string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = append(o.labels, method+" "+resource+" "+http.StatusText(status))
}

func TestObserverSeesRoundTrips(t *testing.T) {
	obs := &recordingObserver{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, WithObserver(obs))

	_, err := client.StockCards(context.Background(), 3, ListParams{})
	require.NoError(t, err)
	require.Equal(t, []string{"GET inventory-items OK"}, obs.labels)
}

func TestAllWalksPages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"data":[{"id":1,"supplier":"A","total_amount":10}],"current_page":1,"last_page":2}`))
		default:
			_, _ = w.Write([]byte(`{"data":[{"id":2,"supplier":{"business_name":"B"},"amount":"8","is_winning_quote":true}],"current_page":2,"last_page":2}`))
		}
	})

	quotes, err := client.QuotationsFor(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, "B", quotes[1].Supplier)
	require.True(t, quotes[1].IsWinningQuote)
}

func TestWireTimeLayouts(t *testing.T) {
	for _, raw := range []string{`"2024-06-01"`, `"2024-06-01 08:30:00"`, `"2024-06-01T08:30:00.000000Z"`, `"2024-06-01T08:30:00+08:00"`} {
		var wt wireTime
		require.NoError(t, json.Unmarshal([]byte(raw), &wt), raw)
		require.Equal(t, 2024, wt.Year())
	}
	var wt wireTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &wt))
	require.True(t, wt.IsZero())
	require.Error(t, json.Unmarshal([]byte(`"June 1"`), &wt))
}

func TestScopedTokenOverridesStore(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":12,"name":"Clerk","role":"bookkeeper"}}`))
	})
	signIn(t, store)

	ctx := session.WithAuth(context.Background(), session.Auth{Token: "user-token", IsAuthenticated: true})
	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12), user.ID)
	require.Equal(t, workflow.RoleBookkeeper, user.Role)

	// a rejected caller token leaves the stored session in place
	ctx = session.WithAuth(context.Background(), session.Auth{Token: "expired", IsAuthenticated: true})
	_, err = client.CurrentUser(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, "secret", session.Token(context.Background(), store))
}

func TestAuthenticateDoesNotPersist(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"access_token":"xyz","user":{"id":3,"name":"Teacher","role":"employee"}}}`))
	})

	auth, err := client.Authenticate(context.Background(), "t@school.edu.ph", "pw")
	require.NoError(t, err)
	require.Equal(t, "xyz", auth.Token)
	require.Equal(t, int64(3), auth.User.ID)
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}
