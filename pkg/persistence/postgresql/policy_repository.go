package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

type policyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const policyColumns = `
	id
  , name
  , active
  , is_default
  , targets
  , escalation_level1
  , escalation_level2
  , use_business_hours
  , business_hours
  , pause_on_waiting
  , pause_on_hold
  , pause_off_hours
  , department_ids
  , category_ids
  , created_at
  , updated_at
`

func (r *policyRepository) All(ctx context.Context) ([]*models.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies ORDER BY created_at, id`

	return r.queryPolicies(ctx, query)
}

func (r *policyRepository) Active(ctx context.Context) ([]*models.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE active ORDER BY created_at, id`

	return r.queryPolicies(ctx, query)
}

func (r *policyRepository) ByID(ctx context.Context, id string) (*models.SLAPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM sla_policies WHERE id = $1`

	policy, err := scanPolicy(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ByID", "policy", id, persistence.ErrPolicyNotFound)
		}

		return nil, fmt.Errorf("failed to scan policy: %w", err)
	}

	return policy, nil
}

func (r *policyRepository) Save(ctx context.Context, policy *models.SLAPolicy) error {
	targetsJSON, err := json.Marshal(policy.Targets)
	if err != nil {
		return fmt.Errorf("failed to marshal targets: %w", err)
	}

	businessHoursJSON, err := json.Marshal(policy.BusinessHours)
	if err != nil {
		return fmt.Errorf("failed to marshal business hours: %w", err)
	}

	departmentsJSON, err := json.Marshal(policy.DepartmentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal department ids: %w", err)
	}

	categoriesJSON, err := json.Marshal(policy.CategoryIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal category ids: %w", err)
	}

	query := `
		INSERT INTO sla_policies (
			id, name, active, is_default, targets,
			escalation_level1, escalation_level2,
			use_business_hours, business_hours,
			pause_on_waiting, pause_on_hold, pause_off_hours,
			department_ids, category_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			is_default = EXCLUDED.is_default,
			targets = EXCLUDED.targets,
			escalation_level1 = EXCLUDED.escalation_level1,
			escalation_level2 = EXCLUDED.escalation_level2,
			use_business_hours = EXCLUDED.use_business_hours,
			business_hours = EXCLUDED.business_hours,
			pause_on_waiting = EXCLUDED.pause_on_waiting,
			pause_on_hold = EXCLUDED.pause_on_hold,
			pause_off_hours = EXCLUDED.pause_off_hours,
			department_ids = EXCLUDED.department_ids,
			category_ids = EXCLUDED.category_ids,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		policy.ID, policy.Name, policy.Active, policy.IsDefault, targetsJSON,
		policy.EscalationLevel1, policy.EscalationLevel2,
		policy.UseBusinessHours, businessHoursJSON,
		policy.PauseOnWaiting, policy.PauseOnHold, policy.PauseOffHours,
		departmentsJSON, categoriesJSON, policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	return nil
}

func (r *policyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sla_policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", "policy", id, persistence.ErrPolicyNotFound)
	}

	return nil
}

func (r *policyRepository) queryPolicies(ctx context.Context, query string, args ...any) ([]*models.SLAPolicy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	policies := make([]*models.SLAPolicy, 0)

	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}

		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

func scanPolicy(row scanner) (*models.SLAPolicy, error) {
	var (
		policy            models.SLAPolicy
		targetsJSON       []byte
		businessHoursJSON []byte
		departmentsJSON   []byte
		categoriesJSON    []byte
	)

	err := row.Scan(
		&policy.ID, &policy.Name, &policy.Active, &policy.IsDefault, &targetsJSON,
		&policy.EscalationLevel1, &policy.EscalationLevel2,
		&policy.UseBusinessHours, &businessHoursJSON,
		&policy.PauseOnWaiting, &policy.PauseOnHold, &policy.PauseOffHours,
		&departmentsJSON, &categoriesJSON, &policy.CreatedAt, &policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(targetsJSON, &policy.Targets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal targets: %w", err)
	}

	if err := json.Unmarshal(businessHoursJSON, &policy.BusinessHours); err != nil {
		return nil, fmt.Errorf("failed to unmarshal business hours: %w", err)
	}

	if err := json.Unmarshal(departmentsJSON, &policy.DepartmentIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal department ids: %w", err)
	}

	if err := json.Unmarshal(categoriesJSON, &policy.CategoryIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category ids: %w", err)
	}

	return &policy, nil
}
