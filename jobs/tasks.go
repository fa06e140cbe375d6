package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockContinuity verifies day-boundary continuity over a trailing
	// window of the daily stock report.
	TaskStockContinuity = "stock:continuity"
	// TaskStockReconcile compares cached location states against a fresh
	// replay of the approved ledger.
	TaskStockReconcile = "stock:reconcile"
)

// StockContinuityPayload scopes one continuity verification run.
type StockContinuityPayload struct {
	WindowDays int `json:"window_days"`
}

// NewStockContinuityTask constructs the continuity verification task.
func NewStockContinuityTask(windowDays int) (*asynq.Task, error) {
	data, err := json.Marshal(StockContinuityPayload{WindowDays: windowDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockContinuity, data), nil
}

// NewStockReconcileTask constructs the state reconciliation task.
func NewStockReconcileTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskStockReconcile, nil), nil
}
