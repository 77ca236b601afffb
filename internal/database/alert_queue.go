package database

import (
	"context"
	"fmt"
	"time"

	"salonbook/internal/models"
)

const (
	AlertPending   = "pending"
	AlertRetry     = "retry"
	AlertCompleted = "completed"
	AlertFailed    = "failed"
)

const alertColumns = `id, failure_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

func (db *DB) GetPendingAlerts(ctx context.Context, limit int) ([]models.AlertTask, error) {
	query := `SELECT ` + alertColumns + `
              FROM alert_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC, id ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (db *DB) GetFailedAlerts(ctx context.Context) ([]models.AlertTask, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+alertColumns+` FROM alert_queue WHERE status = 'failed' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// UpdateAlertStatus moves a task. Retry increments retry_count; completed and
// failed stamp processed_at.
func (db *DB) UpdateAlertStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case AlertRetry:
		query = `UPDATE alert_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case AlertCompleted, AlertFailed:
		query = `UPDATE alert_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE alert_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAlerts(rows rowScanner) ([]models.AlertTask, error) {
	var tasks []models.AlertTask
	for rows.Next() {
		var t models.AlertTask
		if err := rows.Scan(&t.ID, &t.FailureID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError,
			&t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
