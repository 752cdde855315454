package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/admin-suite/internal/api"
	"github.com/jehnsen/admin-suite/internal/dashboard"
	"github.com/jehnsen/admin-suite/internal/dispatch"
	"github.com/jehnsen/admin-suite/internal/entity"
	jobmetrics "github.com/jehnsen/admin-suite/internal/jobs"
	"github.com/jehnsen/admin-suite/internal/workflow"
)

type fakeDashboards struct {
	got         []string
	invalidated int
	fail        map[string]error
}

func (f *fakeDashboards) Get(ctx context.Context, name string) (any, error) {
	f.got = append(f.got, name)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (f *fakeDashboards) Invalidate(ctx context.Context) error {
	f.invalidated++
	return nil
}

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestDashboardWarmupDefaultsToAll(t *testing.T) {
	reader := &fakeDashboards{}
	job := NewDashboardWarmupJob(reader, nil, testMetrics())
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Invalidate: true})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, dashboard.Names(), reader.got)
	require.Equal(t, 1, reader.invalidated)
}

func TestDashboardWarmupReportsFailures(t *testing.T) {
	boom := errors.New("backend down")
	reader := &fakeDashboards{fail: map[string]error{
		dashboard.NameFinance: boom,
		"payroll":             dashboard.ErrUnknownDashboard,
	}}
	job := NewDashboardWarmupJob(reader, nil, testMetrics())
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Dashboards: []string{"payroll", dashboard.NameFinance, dashboard.NameInventory}})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, dashboard.ErrUnknownDashboard)
	require.Equal(t, []string{"payroll", dashboard.NameFinance, dashboard.NameInventory}, reader.got)
}

func TestDashboardWarmupBadPayload(t *testing.T) {
	job := NewDashboardWarmupJob(&fakeDashboards{}, nil, testMetrics())
	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeAdvances struct {
	byStatus map[workflow.Status][]entity.CashAdvance
}

func (f *fakeAdvances) CashAdvances(ctx context.Context, p api.ListParams) (api.Page[entity.CashAdvance], error) {
	data := f.byStatus[p.Status]
	return api.Page[entity.CashAdvance]{Data: data, CurrentPage: 1, LastPage: 1, Total: len(data)}, nil
}

type recordingRunner struct {
	requests []dispatch.Request
	fail     map[int64]error
}

func (r *recordingRunner) Dispatch(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	r.requests = append(r.requests, req)
	if err := r.fail[req.Subject.WorkflowID()]; err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Subject: req.Subject, From: req.Subject.WorkflowStatus(), To: workflow.StatusOverdue}, nil
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestOverdueSweepFlagsPastDue(t *testing.T) {
	source := &fakeAdvances{byStatus: map[workflow.Status][]entity.CashAdvance{
		workflow.StatusReleased: {
			{ID: 1, Amount: decimal.NewFromInt(1000), DueDate: day(10), Status: workflow.StatusReleased},
			{ID: 2, Amount: decimal.NewFromInt(1000), DueDate: day(20), Status: workflow.StatusReleased},
			{ID: 3, Amount: decimal.NewFromInt(1000), Status: workflow.StatusReleased},
		},
		workflow.StatusPartiallyLiquidated: {
			{ID: 4, Amount: decimal.NewFromInt(1000), DueDate: day(14), Status: workflow.StatusPartiallyLiquidated},
		},
	}}
	runner := &recordingRunner{}
	job := NewOverdueSweepJob(source, runner, 99, nil, testMetrics())
	task, err := NewOverdueSweepTask(OverdueSweepPayload{AsOf: "2024-06-15"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, runner.requests, 2)
	ids := []int64{runner.requests[0].Subject.WorkflowID(), runner.requests[1].Subject.WorkflowID()}
	require.ElementsMatch(t, []int64{1, 4}, ids)
	for _, req := range runner.requests {
		require.Equal(t, workflow.ActionMarkOverdue, req.Action)
		require.Equal(t, dispatch.Actor{ID: 99, Role: workflow.RoleAdmin}, req.Actor)
	}
}

func TestOverdueSweepContinuesPastFailures(t *testing.T) {
	source := &fakeAdvances{byStatus: map[workflow.Status][]entity.CashAdvance{
		workflow.StatusReleased: {
			{ID: 1, DueDate: day(1), Status: workflow.StatusReleased},
			{ID: 2, DueDate: day(2), Status: workflow.StatusReleased},
		},
	}}
	boom := errors.New("backend down")
	runner := &recordingRunner{fail: map[int64]error{1: boom}}
	job := NewOverdueSweepJob(source, runner, 99, nil, testMetrics())
	job.clock = func() time.Time { return day(15).Add(9 * time.Hour) }
	task, err := NewOverdueSweepTask(OverdueSweepPayload{})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.Len(t, runner.requests, 2)
}

func TestOverdueSweepRejectsBadDate(t *testing.T) {
	job := NewOverdueSweepJob(&fakeAdvances{}, &recordingRunner{}, 99, nil, testMetrics())
	task, err := NewOverdueSweepTask(OverdueSweepPayload{AsOf: "15/06/2024"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}
