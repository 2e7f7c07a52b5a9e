// Package workflow interprets workflow graphs: the executor walks a
// graph from its trigger node, the dispatcher routes ticket and timer
// events to matching workflows, and the repository service manages
// stored definitions.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/otelhelper"
	"github.com/caredesk/slaflow/pkg/registry"
)

// maxTraversalDepth bounds graph walks so a cyclic graph cannot spin
// an execution forever.
const maxTraversalDepth = 100

// Result is the outcome of one workflow execution. Node results are in
// completion order; concurrent branches interleave.
type Result struct {
	ExecutionID string              `json:"execution_id"`
	WorkflowID  string              `json:"workflow_id"`
	Executed    bool                `json:"executed"`
	Reason      string              `json:"reason,omitempty"`
	Results     []models.NodeResult `json:"results"`
}

// Executor walks a workflow graph from its trigger node. Node failures
// halt only their own path; sibling branches run to completion.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewExecutor(reg *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: reg,
		logger:   logger.With("module", "workflow_executor"),
	}
}

// WithTracer enables span emission per execution and per node.
func (e *Executor) WithTracer(tracer trace.Tracer) *Executor {
	e.tracer = tracer

	return e
}

// Execute runs the workflow against the given execution context. A
// workflow that cannot run (inactive, draft, no trigger node) returns
// a Result with Executed false and no error; errors are reserved for
// the executor's own failures.
func (e *Executor) Execute(ctx context.Context, wf *models.Workflow, ectx models.ExecutionContext) (*Result, error) {
	result := &Result{
		ExecutionID: ectx.ID,
		WorkflowID:  wf.ID,
		Results:     make([]models.NodeResult, 0),
	}

	if result.ExecutionID == "" {
		result.ExecutionID = uuid.New().String()
	}

	if !wf.Executable() {
		result.Reason = "workflow is not executable"

		return result, nil
	}

	trig, ok := wf.TriggerNode()
	if !ok {
		result.Reason = "workflow has no trigger node"

		return result, nil
	}

	ectx.ID = result.ExecutionID
	ectx.WorkflowID = wf.ID

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, wf.ID),
			attribute.String(otelhelper.WorkflowNameKey, wf.Name),
			attribute.String(otelhelper.ExecutionIDKey, result.ExecutionID),
			attribute.String(otelhelper.TicketIDKey, ectx.TicketID()),
		)
		defer span.End()
	}

	e.logger.InfoContext(ctx, "Executing workflow",
		"workflow_id", wf.ID, "execution_id", result.ExecutionID, "trigger", trig.Type)

	collector := &resultCollector{}
	e.runFrom(ctx, wf, trig.ID, ectx, 0, collector)

	result.Executed = true
	result.Results = collector.all()

	return result, nil
}

// runFrom executes the node and continues along its outgoing edges.
// Returning ends this path only.
func (e *Executor) runFrom(ctx context.Context, wf *models.Workflow, nodeID string, ectx models.ExecutionContext, depth int, collector *resultCollector) {
	if depth > maxTraversalDepth {
		collector.add(models.NodeResult{
			NodeID:  nodeID,
			Success: false,
			Error:   fmt.Sprintf("traversal depth exceeded %d, graph likely cyclic", maxTraversalDepth),
		})

		return
	}

	node, ok := wf.NodeByID(nodeID)
	if !ok {
		collector.add(models.NodeResult{
			NodeID:  nodeID,
			Success: false,
			Error:   "edge references unknown node",
		})

		return
	}

	nodeResult := e.executeNode(ctx, node, ectx)
	collector.add(nodeResult)

	if !nodeResult.Success || nodeResult.Stop {
		return
	}

	next := ectx.Merged(nodeResult.Output)
	edges := selectEdges(wf.OutgoingEdges(node.ID), nodeResult.Branch)

	switch len(edges) {
	case 0:
		return
	case 1:
		e.runFrom(ctx, wf, edges[0].Target, next, depth+1, collector)
	default:
		var wg sync.WaitGroup

		for _, edge := range edges {
			wg.Add(1)

			go func(target string) {
				defer wg.Done()
				e.runFrom(ctx, wf, target, next, depth+1, collector)
			}(edge.Target)
		}

		wg.Wait()
	}
}

// executeNode instantiates and runs one node, converting errors and
// panics into failed node results.
func (e *Executor) executeNode(ctx context.Context, node *models.Node, ectx models.ExecutionContext) (result models.NodeResult) {
	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
			attribute.String(otelhelper.ExecutionIDKey, ectx.ID),
		)
		defer span.End()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Node panicked",
				"workflow_id", ectx.WorkflowID, "node_id", node.ID, "panic", r)

			result = models.NodeResult{
				NodeID:  node.ID,
				Type:    node.Type,
				Success: false,
				Error:   fmt.Sprintf("node panicked: %v", r),
			}
		}

		if span != nil && !result.Success {
			otelhelper.SetError(span, errors.New(result.Error))
		}
	}()

	instance, err := e.registry.CreateNode(ctx, node.Type, node.ID, node.Config)
	if err != nil {
		return models.NodeResult{
			NodeID:  node.ID,
			Type:    node.Type,
			Success: false,
			Error:   err.Error(),
		}
	}

	nodeResult, err := instance.Execute(ctx, ectx)
	if err != nil {
		e.logger.ErrorContext(ctx, "Node execution failed",
			"workflow_id", ectx.WorkflowID, "node_id", node.ID, "node_type", node.Type, "error", err)

		return models.NodeResult{
			NodeID:  node.ID,
			Type:    node.Type,
			Success: false,
			Error:   err.Error(),
		}
	}

	nodeResult.NodeID = node.ID
	nodeResult.Type = node.Type

	return nodeResult
}

// selectEdges filters a condition node's edges down to the taken
// branch. Non-condition results (nil branch) keep every edge.
func selectEdges(edges []*models.Edge, branch *bool) []*models.Edge {
	if branch == nil {
		return edges
	}

	handle := models.SourceHandleFalse
	if *branch {
		handle = models.SourceHandleTrue
	}

	selected := make([]*models.Edge, 0, len(edges))

	for _, edge := range edges {
		if edge.SourceHandle == handle {
			selected = append(selected, edge)
		}
	}

	return selected
}

type resultCollector struct {
	mu      sync.Mutex
	results []models.NodeResult
}

func (c *resultCollector) add(result models.NodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = append(c.results, result)
}

func (c *resultCollector) all() []models.NodeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]models.NodeResult, len(c.results))
	copy(results, c.results)

	return results
}
