// Package policy selects the SLA policy applicable to a ticket.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

// ErrNoApplicablePolicy indicates no active policy matched the given
// scope and no default policy exists.
var ErrNoApplicablePolicy = errors.New("no applicable SLA policy")

// Resolver picks the single applicable policy for a department/category
// pair. Resolution is deterministic: scoped policies are evaluated in
// creation order, with the default policy as the final fallback.
type Resolver struct {
	policies persistence.PolicyRepository
	logger   *slog.Logger
}

// NewResolver creates a resolver backed by the given policy repository.
func NewResolver(policies persistence.PolicyRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		policies: policies,
		logger:   logger.With("module", "policy_resolver"),
	}
}

// ByID loads a policy by id, bypassing scope resolution.
func (r *Resolver) ByID(ctx context.Context, id string) (*models.SLAPolicy, error) {
	return r.policies.ByID(ctx, id)
}

// Resolve returns the first active non-default policy whose scope
// includes the department and category, the default policy when none
// match, or ErrNoApplicablePolicy. Empty filter arguments match only
// policies without the corresponding scope list.
func (r *Resolver) Resolve(ctx context.Context, departmentID, categoryID string) (*models.SLAPolicy, error) {
	active, err := r.policies.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active policies: %w", err)
	}

	// Creation order, default last, so resolution is reproducible for
	// identical inputs regardless of store iteration order.
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].IsDefault != active[j].IsDefault {
			return !active[i].IsDefault
		}

		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}

		return active[i].ID < active[j].ID
	})

	var fallback *models.SLAPolicy

	for _, candidate := range active {
		if candidate.IsDefault {
			if fallback == nil {
				fallback = candidate
			}

			continue
		}

		if candidate.MatchesScope(departmentID, categoryID) {
			r.logger.DebugContext(ctx, "Resolved SLA policy",
				"policy_id", candidate.ID,
				"department_id", departmentID,
				"category_id", categoryID)

			return candidate, nil
		}
	}

	if fallback != nil {
		r.logger.DebugContext(ctx, "Resolved default SLA policy", "policy_id", fallback.ID)

		return fallback, nil
	}

	return nil, ErrNoApplicablePolicy
}
