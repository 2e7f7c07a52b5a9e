package policy

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func savePolicy(t *testing.T, store *memory.Persistence, policy *models.SLAPolicy) {
	t.Helper()

	if policy.Targets == nil {
		policy.Targets = map[string]models.PriorityTargets{
			"high": {ResponseMinutes: 60, ResolutionMinutes: 240},
		}
	}

	require.NoError(t, store.Policies().Save(context.Background(), policy))
}

func TestResolver_Resolve_ScopedPolicyWins(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:        "default",
		Name:      "Fallback",
		Active:    true,
		IsDefault: true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	savePolicy(t, store, &models.SLAPolicy{
		ID:            "billing",
		Name:          "Billing SLA",
		Active:        true,
		DepartmentIDs: []string{"dept-billing"},
		CreatedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})

	resolver := NewResolver(store.Policies(), testLogger())

	resolved, err := resolver.Resolve(ctx, "dept-billing", "")

	require.NoError(t, err)
	assert.Equal(t, "billing", resolved.ID)
}

func TestResolver_Resolve_FallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:        "default",
		Name:      "Fallback",
		Active:    true,
		IsDefault: true,
	})
	savePolicy(t, store, &models.SLAPolicy{
		ID:            "billing",
		Name:          "Billing SLA",
		Active:        true,
		DepartmentIDs: []string{"dept-billing"},
	})

	resolver := NewResolver(store.Policies(), testLogger())

	resolved, err := resolver.Resolve(ctx, "dept-support", "")

	require.NoError(t, err)
	assert.Equal(t, "default", resolved.ID)
}

func TestResolver_Resolve_NoPolicyMatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:            "billing",
		Name:          "Billing SLA",
		Active:        true,
		DepartmentIDs: []string{"dept-billing"},
	})

	resolver := NewResolver(store.Policies(), testLogger())

	_, err := resolver.Resolve(ctx, "dept-support", "")

	assert.ErrorIs(t, err, ErrNoApplicablePolicy)
}

func TestResolver_Resolve_IgnoresInactivePolicies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:            "billing",
		Name:          "Billing SLA",
		Active:        false,
		DepartmentIDs: []string{"dept-billing"},
	})

	resolver := NewResolver(store.Policies(), testLogger())

	_, err := resolver.Resolve(ctx, "dept-billing", "")

	assert.ErrorIs(t, err, ErrNoApplicablePolicy)
}

func TestResolver_Resolve_CreationOrderBreaksTies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:            "second",
		Name:          "Second Policy",
		Active:        true,
		DepartmentIDs: []string{"dept-billing"},
		CreatedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	savePolicy(t, store, &models.SLAPolicy{
		ID:            "first",
		Name:          "First Policy",
		Active:        true,
		DepartmentIDs: []string{"dept-billing"},
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	resolver := NewResolver(store.Policies(), testLogger())

	resolved, err := resolver.Resolve(ctx, "dept-billing", "")

	require.NoError(t, err)
	assert.Equal(t, "first", resolved.ID)
}

func TestResolver_Resolve_CategoryScope(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()

	savePolicy(t, store, &models.SLAPolicy{
		ID:          "outage",
		Name:        "Outage SLA",
		Active:      true,
		CategoryIDs: []string{"cat-outage"},
	})

	resolver := NewResolver(store.Policies(), testLogger())

	resolved, err := resolver.Resolve(ctx, "dept-any", "cat-outage")
	require.NoError(t, err)
	assert.Equal(t, "outage", resolved.ID)

	_, err = resolver.Resolve(ctx, "dept-any", "cat-question")
	assert.ErrorIs(t, err, ErrNoApplicablePolicy)
}
