package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caredesk/slaflow/pkg/mocks"
	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/persistence/memory"
)

func newTestRepository() *Repository {
	return NewRepository(memory.NewPersistence().Workflows(), newTestRegistry(mocks.NewTicketStore()))
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:     "Escalate High Priority",
		IsActive: true,
		Nodes: []*models.Node{
			{ID: "trigger-1", Type: models.NodeTypeTicketCreated},
			{ID: "cond-1", Type: models.NodeTypeConditionIf, Config: map[string]any{
				"field": "priority", "operator": "equals", "value": "high",
			}},
			{ID: "update-1", Type: models.NodeTypeUpdateField, Config: map[string]any{
				"field": "status", "value": "escalated",
			}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "trigger-1", Target: "cond-1"},
			{ID: "e2", Source: "cond-1", Target: "update-1", SourceHandle: models.SourceHandleTrue},
		},
	}
}

func TestRepository_Create_ValidWorkflow(t *testing.T) {
	repo := newTestRepository()

	created, err := repo.Create(context.Background(), validWorkflow())

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestRepository_Create_RequiresExactlyOneTrigger(t *testing.T) {
	repo := newTestRepository()

	noTrigger := validWorkflow()
	noTrigger.Nodes = noTrigger.Nodes[1:]
	noTrigger.Edges = noTrigger.Edges[1:]

	_, err := repo.Create(context.Background(), noTrigger)
	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "exactly one trigger")

	twoTriggers := validWorkflow()
	twoTriggers.Nodes = append(twoTriggers.Nodes, &models.Node{
		ID: "trigger-2", Type: models.NodeTypeTicketUpdated,
	})

	_, err = repo.Create(context.Background(), twoTriggers)
	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "found 2")
}

func TestRepository_Create_RejectsUnregisteredNodeType(t *testing.T) {
	repo := newTestRepository()

	wf := validWorkflow()
	wf.Nodes = append(wf.Nodes, &models.Node{
		ID: "mystery", Type: models.NodeType("teleport_ticket"),
	})

	_, err := repo.Create(context.Background(), wf)

	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "unregistered type")
}

func TestRepository_Create_RejectsConfigSchemaViolation(t *testing.T) {
	repo := newTestRepository()

	wf := validWorkflow()
	// The condition schema requires "field".
	wf.Nodes[1].Config = map[string]any{"operator": "equals", "value": "high"}

	_, err := repo.Create(context.Background(), wf)

	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "cond-1")
}

func TestRepository_Create_RejectsDanglingEdge(t *testing.T) {
	repo := newTestRepository()

	wf := validWorkflow()
	wf.Edges = append(wf.Edges, &models.Edge{ID: "e3", Source: "update-1", Target: "ghost"})

	_, err := repo.Create(context.Background(), wf)

	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "unknown target node ghost")
}

func TestRepository_Create_ConditionEdgesNeedHandles(t *testing.T) {
	repo := newTestRepository()

	wf := validWorkflow()
	wf.Edges[1].SourceHandle = ""

	_, err := repo.Create(context.Background(), wf)

	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, err.Error(), "true or false handle")
}

func TestRepository_Update_PreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	created, err := repo.Create(ctx, validWorkflow())
	require.NoError(t, err)

	replacement := validWorkflow()
	replacement.Name = "Renamed Workflow"

	updated, err := repo.Update(ctx, created.ID, replacement)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestRepository_Update_UnknownWorkflow(t *testing.T) {
	repo := newTestRepository()

	_, err := repo.Update(context.Background(), "missing", validWorkflow())

	assert.True(t, persistence.IsNotFound(err))
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	created, err := repo.Create(ctx, validWorkflow())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FetchByID(ctx, created.ID)
	assert.True(t, persistence.IsNotFound(err))
}
