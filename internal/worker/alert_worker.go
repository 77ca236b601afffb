package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salonbook/internal/database"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

// AlertStore is the persistent alert queue.
type AlertStore interface {
	GetPendingAlerts(ctx context.Context, limit int) ([]models.AlertTask, error)
	UpdateAlertStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Notifier delivers a text message to salon managers.
type Notifier interface {
	NotifyManagers(ctx context.Context, text string) error
}

type alertPayload struct {
	FailureID    int64    `json:"failure_id"`
	CustomerName string   `json:"customer_name"`
	Phone        string   `json:"phone"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	ServiceIDs   []string `json:"service_ids"`
	ErrorKind    string   `json:"error_kind"`
	Attempts     int      `json:"attempts"`
}

// AlertWorker drains the alert queue and tells managers about bookings that
// could not be submitted, so they can call the customer back.
type AlertWorker struct {
	store        AlertStore
	notifier     Notifier
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	wake         chan struct{}
	logger       *zerolog.Logger
}

func NewAlertWorker(store AlertStore, notifier Notifier, retry RetryPolicy, logger *zerolog.Logger) *AlertWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "alert_worker").Logger()

	return &AlertWorker{
		store:        store,
		notifier:     notifier,
		retryPolicy:  retry,
		pollInterval: 5 * time.Second,
		batchSize:    models.AlertQueueBatch,
		wake:         make(chan struct{}, 1),
		logger:       &l,
	}
}

// Wake asks the worker to poll now instead of waiting for the next tick.
func (w *AlertWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start runs until ctx is done.
func (w *AlertWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("alert worker started")
	defer w.logger.Info().Msg("alert worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessPending(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// ProcessPending handles one batch and returns how many tasks were attempted.
func (w *AlertWorker) ProcessPending(ctx context.Context) int {
	tasks, err := w.store.GetPendingAlerts(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("fetch pending alerts")
		return 0
	}
	for i := range tasks {
		if ctx.Err() != nil {
			return i
		}
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *AlertWorker) processTask(ctx context.Context, task *models.AlertTask) {
	var payload alertPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.markFailed(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.notifier.NotifyManagers(ctx, FormatAlert(payload)); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateAlertStatus(ctx, task.ID, database.AlertCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark alert completed")
	}
}

func (w *AlertWorker) retryOrFail(ctx context.Context, task *models.AlertTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.markFailed(ctx, task, cause)
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Int("attempt", attempt).Time("next_retry_at", next).Msg("alert delivery failed")
	if err := w.store.UpdateAlertStatus(ctx, task.ID, database.AlertRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark alert retry")
	}
}

func (w *AlertWorker) markFailed(ctx context.Context, task *models.AlertTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Msg("alert dropped")
	if err := w.store.UpdateAlertStatus(ctx, task.ID, database.AlertFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark alert failed")
	}
}

// FormatAlert renders the manager message.
func FormatAlert(p alertPayload) string {
	var b strings.Builder
	b.WriteString("⚠️ Online booking could not be completed\n")
	fmt.Fprintf(&b, "Customer: %s\n", p.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "Requested: %s %s\n", p.Date, p.Time)
	if len(p.ServiceIDs) > 0 {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(p.ServiceIDs, ", "))
	}
	fmt.Fprintf(&b, "Reason: %s after %d attempt(s)\n", p.ErrorKind, p.Attempts)
	fmt.Fprintf(&b, "Ref: #%d", p.FailureID)
	return b.String()
}
