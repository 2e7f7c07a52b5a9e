package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caredesk/slaflow/pkg/models"
)

type breachRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *breachRepository) Save(ctx context.Context, breach *models.SLABreach) error {
	snapshotJSON, err := json.Marshal(breach.Ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket snapshot: %w", err)
	}

	query := `
		INSERT INTO sla_breaches (
			id, timer_id, ticket_id, type,
			target_minutes, elapsed_minutes, overage_minutes,
			ticket_snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		breach.ID, breach.TimerID, breach.TicketID, breach.Type,
		breach.TargetMinutes, breach.ElapsedMinutes, breach.OverageMinutes,
		snapshotJSON, breach.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save breach: %w", err)
	}

	return nil
}

func (r *breachRepository) ByTicket(ctx context.Context, ticketID string) ([]*models.SLABreach, error) {
	return r.queryBreaches(ctx, `ticket_id = $1`, ticketID)
}

func (r *breachRepository) ByTimer(ctx context.Context, timerID string) ([]*models.SLABreach, error) {
	return r.queryBreaches(ctx, `timer_id = $1`, timerID)
}

func (r *breachRepository) queryBreaches(ctx context.Context, where string, arg any) ([]*models.SLABreach, error) {
	query := `
		SELECT
			id
		  , timer_id
		  , ticket_id
		  , type
		  , target_minutes
		  , elapsed_minutes
		  , overage_minutes
		  , ticket_snapshot
		  , created_at
		FROM sla_breaches
		WHERE ` + where + `
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query breaches: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	breaches := make([]*models.SLABreach, 0)

	for rows.Next() {
		var (
			breach       models.SLABreach
			snapshotJSON []byte
		)

		err := rows.Scan(
			&breach.ID, &breach.TimerID, &breach.TicketID, &breach.Type,
			&breach.TargetMinutes, &breach.ElapsedMinutes, &breach.OverageMinutes,
			&snapshotJSON, &breach.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan breach: %w", err)
		}

		if err := json.Unmarshal(snapshotJSON, &breach.Ticket); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ticket snapshot: %w", err)
		}

		breaches = append(breaches, &breach)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breaches: %w", err)
	}

	return breaches, nil
}

type escalationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *escalationRepository) Append(ctx context.Context, escalation *models.SLAEscalation) error {
	query := `
		INSERT INTO sla_escalations (id, ticket_id, timer_id, level, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		escalation.ID, escalation.TicketID, nullString(escalation.TimerID),
		escalation.Level, escalation.Reason, escalation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append escalation: %w", err)
	}

	return nil
}

func (r *escalationRepository) ByTicket(ctx context.Context, ticketID string) ([]*models.SLAEscalation, error) {
	query := `
		SELECT
			id
		  , ticket_id
		  , timer_id
		  , level
		  , reason
		  , created_at
		FROM sla_escalations
		WHERE ticket_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalations: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	escalations := make([]*models.SLAEscalation, 0)

	for rows.Next() {
		var (
			escalation models.SLAEscalation
			timerID    sql.NullString
		)

		err := rows.Scan(
			&escalation.ID, &escalation.TicketID, &timerID,
			&escalation.Level, &escalation.Reason, &escalation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}

		escalation.TimerID = stringValue(timerID)
		escalations = append(escalations, &escalation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalations: %w", err)
	}

	return escalations, nil
}
