package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
	"github.com/caredesk/slaflow/pkg/registry"
	"github.com/caredesk/slaflow/pkg/schema"
)

// ErrInvalidWorkflow wraps graph validation failures.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Repository is the service layer over stored workflow definitions.
// Saves validate the definition first: struct constraints, exactly one
// trigger node, registered node types, edge integrity and per-node
// config schemas.
type Repository struct {
	workflows persistence.WorkflowRepository
	registry  *registry.Registry
	validate  *validator.Validate
}

func NewRepository(workflows persistence.WorkflowRepository, reg *registry.Registry) *Repository {
	return &Repository{
		workflows: workflows,
		registry:  reg,
		validate:  validator.New(),
	}
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	return r.workflows.All(ctx)
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.workflows.ByID(ctx, id)
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if err := r.Validate(workflow); err != nil {
		return nil, err
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := r.workflows.Save(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.workflows.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.Validate(workflow); err != nil {
		return nil, err
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now()

	if err := r.workflows.Save(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.workflows.Delete(ctx, id)
}

// Validate checks a workflow definition without saving it.
func (r *Repository) Validate(workflow *models.Workflow) error {
	if err := r.validate.Struct(workflow); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	triggers := 0

	for _, node := range workflow.Nodes {
		if node.Type.IsTrigger() {
			triggers++
		}

		factory, ok := r.registry.NodeFactory(node.Type)
		if !ok {
			return fmt.Errorf("%w: node %s has unregistered type '%s'", ErrInvalidWorkflow, node.ID, node.Type)
		}

		if err := schema.ValidateConfig(factory.Schema(), node.Config); err != nil {
			return fmt.Errorf("%w: node %s: %w", ErrInvalidWorkflow, node.ID, err)
		}
	}

	if triggers != 1 {
		return fmt.Errorf("%w: workflow must have exactly one trigger node, found %d", ErrInvalidWorkflow, triggers)
	}

	return r.validateEdges(workflow)
}

func (r *Repository) validateEdges(workflow *models.Workflow) error {
	for _, edge := range workflow.Edges {
		source, ok := workflow.NodeByID(edge.Source)
		if !ok {
			return fmt.Errorf("%w: edge %s references unknown source node %s", ErrInvalidWorkflow, edge.ID, edge.Source)
		}

		if _, ok := workflow.NodeByID(edge.Target); !ok {
			return fmt.Errorf("%w: edge %s references unknown target node %s", ErrInvalidWorkflow, edge.ID, edge.Target)
		}

		if source.Type == models.NodeTypeConditionIf {
			if edge.SourceHandle != models.SourceHandleTrue && edge.SourceHandle != models.SourceHandleFalse {
				return fmt.Errorf("%w: edge %s leaving condition node %s needs a true or false handle",
					ErrInvalidWorkflow, edge.ID, edge.Source)
			}
		}
	}

	return nil
}
