package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salonbook/internal/models"
)

// alertPayload is what the alert worker renders for managers.
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

// RecordFailure stores f and enqueues a manager alert in one transaction.
func (db *DB) RecordFailure(ctx context.Context, f *models.FailedSubmission) (int64, error) {
	services, err := json.Marshal(nonNil(f.ServiceIDs))
	if err != nil {
		return 0, fmt.Errorf("encode service ids: %w", err)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO failed_submissions
        (session_id, idempotency_key, customer_name, customer_phone, date, time, service_ids, error_kind, error_message, attempts, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.SessionID, f.IdempotencyKey, f.CustomerName, f.CustomerPhone, f.Date, f.Time,
		string(services), f.ErrorKind, f.ErrorMessage, f.Attempts, f.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert failed submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	payload, err := json.Marshal(alertPayload{
		FailureID:    id,
		CustomerName: f.CustomerName,
		Phone:        f.CustomerPhone,
		Date:         f.Date,
		Time:         f.Time,
		ServiceIDs:   nonNil(f.ServiceIDs),
		ErrorKind:    f.ErrorKind,
		Attempts:     f.Attempts,
	})
	if err != nil {
		return 0, fmt.Errorf("encode alert payload: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO alert_queue (failure_id, payload, status, retry_count, created_at)
        VALUES (?, ?, 'pending', 0, ?)`, id, string(payload), time.Now()); err != nil {
		return 0, fmt.Errorf("failed to enqueue alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	f.ID = id
	db.logger.Debug().Int64("failure_id", id).Str("kind", f.ErrorKind).Msg("failed submission recorded")
	return id, nil
}

// ListFailures returns the newest failures first. Zero limit means 100.
func (db *DB) ListFailures(ctx context.Context, limit int) ([]models.FailedSubmission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `SELECT id, session_id, COALESCE(idempotency_key, ''), customer_name, customer_phone,
        date, time, service_ids, error_kind, COALESCE(error_message, ''), attempts, created_at
        FROM failed_submissions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed submissions: %w", err)
	}
	defer rows.Close()

	var out []models.FailedSubmission
	for rows.Next() {
		var f models.FailedSubmission
		var services string
		if err := rows.Scan(&f.ID, &f.SessionID, &f.IdempotencyKey, &f.CustomerName, &f.CustomerPhone,
			&f.Date, &f.Time, &services, &f.ErrorKind, &f.ErrorMessage, &f.Attempts, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failed submission: %w", err)
		}
		if err := json.Unmarshal([]byte(services), &f.ServiceIDs); err != nil {
			return nil, fmt.Errorf("decode service ids of %d: %w", f.ID, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
