package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
)

func validPolicy() *models.SLAPolicy {
	return &models.SLAPolicy{
		Name:   "Standard Support",
		Active: true,
		Targets: map[string]models.PriorityTargets{
			"high": {ResponseMinutes: 60, ResolutionMinutes: 240},
		},
	}
}

func TestService_Create_AssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	service := NewService(memory.NewPersistence().Policies())

	created, err := service.Create(ctx, validPolicy())

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestService_Create_RejectsShortName(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	policy := validPolicy()
	policy.Name = "ab"

	_, err := service.Create(context.Background(), policy)

	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestService_Create_RequiresAtLeastOneTarget(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	policy := validPolicy()
	policy.Targets = map[string]models.PriorityTargets{"high": {}}

	_, err := service.Create(context.Background(), policy)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "at least one priority target")
}

func TestService_Create_RejectsUnorderedThresholds(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	policy := validPolicy()
	policy.EscalationLevel1 = 95
	policy.EscalationLevel2 = 80

	_, err := service.Create(context.Background(), policy)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "below level 2")
}

func TestService_Create_RejectsOutOfRangeThresholds(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	policy := validPolicy()
	policy.EscalationLevel1 = 80
	policy.EscalationLevel2 = 100

	_, err := service.Create(context.Background(), policy)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 99")
}

func TestService_Create_DemotesPreviousDefault(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	service := NewService(store.Policies())

	first := validPolicy()
	first.IsDefault = true
	created, err := service.Create(ctx, first)
	require.NoError(t, err)

	second := validPolicy()
	second.Name = "New Default"
	second.IsDefault = true
	_, err = service.Create(ctx, second)
	require.NoError(t, err)

	previous, err := store.Policies().ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsDefault)
}

func TestService_Update_PreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	service := NewService(memory.NewPersistence().Policies())

	created, err := service.Create(ctx, validPolicy())
	require.NoError(t, err)

	replacement := validPolicy()
	replacement.Name = "Renamed Policy"

	updated, err := service.Update(ctx, created.ID, replacement)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Renamed Policy", updated.Name)
}

func TestService_Update_UnknownPolicy(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	_, err := service.Update(context.Background(), "missing", validPolicy())

	assert.True(t, persistence.IsNotFound(err))
}

func TestService_Delete_UnknownPolicy(t *testing.T) {
	service := NewService(memory.NewPersistence().Policies())

	err := service.Delete(context.Background(), "missing")

	assert.True(t, persistence.IsNotFound(err))
}
