package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

type timerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const timerColumns = `
	id
  , ticket_id
  , policy_id
  , type
  , status
  , priority
  , pause_reason
  , target_minutes
  , remaining_minutes
  , elapsed_minutes
  , total_paused_minutes
  , started_at
  , paused_at
  , resumed_at
  , breached_at
  , completed_at
  , level1_notified_at
  , level2_notified_at
  , created_at
  , updated_at
`

func (r *timerRepository) ByID(ctx context.Context, id string) (*models.SLATimer, error) {
	query := `SELECT ` + timerColumns + ` FROM sla_timers WHERE id = $1`

	timer, err := scanTimer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", "timer", id, persistence.ErrTimerNotFound)
		}

		return nil, fmt.Errorf("failed to scan timer: %w", err)
	}

	return timer, nil
}

func (r *timerRepository) ByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error) {
	query := `SELECT ` + timerColumns + ` FROM sla_timers WHERE ticket_id = $1 ORDER BY created_at, id`

	return r.queryTimers(ctx, query, ticketID)
}

func (r *timerRepository) ActiveByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error) {
	query := `SELECT ` + timerColumns + `
		FROM sla_timers
		WHERE ticket_id = $1 AND status IN ('running', 'paused')
		ORDER BY created_at, id`

	return r.queryTimers(ctx, query, ticketID)
}

func (r *timerRepository) Running(ctx context.Context) ([]*models.SLATimer, error) {
	query := `SELECT ` + timerColumns + ` FROM sla_timers WHERE status = 'running' ORDER BY created_at, id`

	return r.queryTimers(ctx, query)
}

func (r *timerRepository) Save(ctx context.Context, timer *models.SLATimer) error {
	query := `
		INSERT INTO sla_timers (
			id, ticket_id, policy_id, type, status, priority, pause_reason,
			target_minutes, remaining_minutes, elapsed_minutes, total_paused_minutes,
			started_at, paused_at, resumed_at, breached_at, completed_at,
			level1_notified_at, level2_notified_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			pause_reason = EXCLUDED.pause_reason,
			remaining_minutes = EXCLUDED.remaining_minutes,
			elapsed_minutes = EXCLUDED.elapsed_minutes,
			total_paused_minutes = EXCLUDED.total_paused_minutes,
			paused_at = EXCLUDED.paused_at,
			resumed_at = EXCLUDED.resumed_at,
			breached_at = EXCLUDED.breached_at,
			completed_at = EXCLUDED.completed_at,
			level1_notified_at = EXCLUDED.level1_notified_at,
			level2_notified_at = EXCLUDED.level2_notified_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		timer.ID, timer.TicketID, nullString(timer.PolicyID), timer.Type, timer.Status,
		timer.Priority, timer.PauseReason,
		timer.TargetMinutes, timer.RemainingMinutes, timer.ElapsedMinutes, timer.TotalPausedMin,
		timer.StartedAt, timer.PausedAt, timer.ResumedAt, timer.BreachedAt, timer.CompletedAt,
		timer.Level1NotifiedAt, timer.Level2NotifiedAt, timer.CreatedAt, timer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save timer: %w", err)
	}

	return nil
}

func (r *timerRepository) queryTimers(ctx context.Context, query string, args ...any) ([]*models.SLATimer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timers: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	timers := make([]*models.SLATimer, 0)

	for rows.Next() {
		timer, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}

		timers = append(timers, timer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timers: %w", err)
	}

	return timers, nil
}

func scanTimer(row scanner) (*models.SLATimer, error) {
	var (
		timer    models.SLATimer
		policyID sql.NullString
	)

	err := row.Scan(
		&timer.ID, &timer.TicketID, &policyID, &timer.Type, &timer.Status,
		&timer.Priority, &timer.PauseReason,
		&timer.TargetMinutes, &timer.RemainingMinutes, &timer.ElapsedMinutes, &timer.TotalPausedMin,
		&timer.StartedAt, &timer.PausedAt, &timer.ResumedAt, &timer.BreachedAt, &timer.CompletedAt,
		&timer.Level1NotifiedAt, &timer.Level2NotifiedAt, &timer.CreatedAt, &timer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	timer.PolicyID = stringValue(policyID)

	return &timer, nil
}
