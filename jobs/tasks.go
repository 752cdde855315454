package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup rebuilds cached dashboard summaries.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskCashAdvanceOverdue flags released cash advances past their due date.
	TaskCashAdvanceOverdue = "cash_advance:overdue_sweep"
)

// DashboardWarmupPayload selects the dashboards to rebuild. An empty list
// means all of them.
type DashboardWarmupPayload struct {
	Dashboards []string `json:"dashboards,omitempty"`
	Invalidate bool     `json:"invalidate,omitempty"`
}

// NewDashboardWarmupTask constructs a warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// OverdueSweepPayload pins the sweep date, formatted YYYY-MM-DD. Blank means
// today in UTC.
type OverdueSweepPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewOverdueSweepTask constructs an overdue sweep task.
func NewOverdueSweepTask(payload OverdueSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCashAdvanceOverdue, data), nil
}
