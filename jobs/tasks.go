package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ardhi-erp/ardhi/internal/installments"
	"github.com/ardhi-erp/ardhi/internal/notifications"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotificationDispatch delivers one persisted notification.
	TaskTypeNotificationDispatch = "notifications:dispatch"
	// TaskTypeOverdueScan walks unpaid installments past their due date
	// and emits reminder notifications. Runs nightly.
	TaskTypeOverdueScan = "installments:overdue-scan"
)

// NotificationDispatchPayload identifies the row to deliver.
type NotificationDispatchPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// NewNotificationDispatchTask constructs the dispatch task.
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotificationDispatch, data), nil
}

// NewOverdueScanTask constructs the nightly scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// NewNotificationDispatchHandler processes dispatch tasks. Actual
// delivery is a log line; the row is marked delivered so the outbox
// stays consistent whatever channel gets plugged in later.
func NewNotificationDispatchHandler(svc *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotificationDispatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		n, err := svc.Get(ctx, payload.NotificationID)
		if err != nil {
			return err
		}
		logger.Info("deliver notification",
			slog.String("notification_id", n.ID.String()),
			slog.String("kind", string(n.Kind)),
			slog.String("message", n.Message))
		return svc.MarkDelivered(ctx, n.ID)
	}
}

// NewOverdueScanHandler processes the nightly overdue scan.
func NewOverdueScanHandler(inst *installments.Service, notif *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := inst.Overdue(ctx, 500)
		if err != nil {
			return err
		}
		emitted := 0
		for _, row := range rows {
			if err := notif.InstallmentOverdue(ctx, row); err != nil {
				logger.Warn("overdue notification failed",
					slog.String("installment_id", row.ID.String()), slog.Any("error", err))
				continue
			}
			emitted++
		}
		logger.Info("overdue scan finished",
			slog.Int("overdue", len(rows)), slog.Int("emitted", emitted))
		return nil
	}
}
