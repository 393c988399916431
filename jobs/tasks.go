package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/clinicore/clinicore/internal/billing"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotify is the task type for delivering in-app notifications.
	TaskTypeNotify = "billing:notify"
	// TaskTypeAudit is the task type for persisting audit trail entries.
	TaskTypeAudit = "billing:audit"
	// TaskTypeOverdueScan is the task type for the periodic overdue sweep.
	TaskTypeOverdueScan = "billing:overdue_scan"
)

// EventPayload carries a ledger event across the queue boundary.
type EventPayload struct {
	Event billing.Event `json:"event"`
}

// NewNotifyTask constructs a notification delivery task for an event.
func NewNotifyTask(evt billing.Event) (*asynq.Task, error) {
	data, err := json.Marshal(EventPayload{Event: evt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotify, data), nil
}

// NewAuditTask constructs an audit recording task for an event.
func NewAuditTask(evt billing.Event) (*asynq.Task, error) {
	data, err := json.Marshal(EventPayload{Event: evt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAudit, data), nil
}

// NewOverdueScanTask constructs the scheduled overdue sweep task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}
