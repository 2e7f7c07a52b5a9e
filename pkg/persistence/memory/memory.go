// Package memory provides an in-memory persistence implementation used
// by tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

// Persistence implements persistence.Persistence with process-local
// maps. Listing methods return copies in creation order.
type Persistence struct {
	mu sync.RWMutex

	policies      map[string]*models.SLAPolicy
	policyOrder   []string
	timers        map[string]*models.SLATimer
	timerOrder    []string
	breaches      []*models.SLABreach
	escalations   []*models.SLAEscalation
	workflows     map[string]*models.Workflow
	workflowOrder []string
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		policies:  make(map[string]*models.SLAPolicy),
		timers:    make(map[string]*models.SLATimer),
		workflows: make(map[string]*models.Workflow),
	}
}

func (p *Persistence) Policies() persistence.PolicyRepository        { return (*policyRepo)(p) }
func (p *Persistence) Timers() persistence.TimerRepository           { return (*timerRepo)(p) }
func (p *Persistence) Breaches() persistence.BreachRepository        { return (*breachRepo)(p) }
func (p *Persistence) Escalations() persistence.EscalationRepository { return (*escalationRepo)(p) }
func (p *Persistence) Workflows() persistence.WorkflowRepository     { return (*workflowRepo)(p) }

func (p *Persistence) HealthCheck(_ context.Context) error { return nil }
func (p *Persistence) Close(_ context.Context) error       { return nil }

type policyRepo Persistence

func (r *policyRepo) All(_ context.Context) ([]*models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policies := make([]*models.SLAPolicy, 0, len(r.policyOrder))
	for _, id := range r.policyOrder {
		policy := *r.policies[id]
		policies = append(policies, &policy)
	}

	return policies, nil
}

func (r *policyRepo) Active(ctx context.Context) ([]*models.SLAPolicy, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.SLAPolicy, 0, len(all))
	for _, policy := range all {
		if policy.Active {
			active = append(active, policy)
		}
	}

	return active, nil
}

func (r *policyRepo) ByID(_ context.Context, id string) (*models.SLAPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.policies[id]
	if !ok {
		return nil, persistence.NewStoreError("ByID", "policy", id, persistence.ErrPolicyNotFound)
	}

	clone := *policy

	return &clone, nil
}

func (r *policyRepo) Save(_ context.Context, policy *models.SLAPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[policy.ID]; !exists {
		r.policyOrder = append(r.policyOrder, policy.ID)
	}

	clone := *policy
	r.policies[policy.ID] = &clone

	return nil
}

func (r *policyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[id]; !exists {
		return persistence.NewStoreError("Delete", "policy", id, persistence.ErrPolicyNotFound)
	}

	delete(r.policies, id)

	for i, existing := range r.policyOrder {
		if existing == id {
			r.policyOrder = append(r.policyOrder[:i], r.policyOrder[i+1:]...)

			break
		}
	}

	return nil
}

type timerRepo Persistence

func (r *timerRepo) ByID(_ context.Context, id string) (*models.SLATimer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timer, ok := r.timers[id]
	if !ok {
		return nil, persistence.NewStoreError("ByID", "timer", id, persistence.ErrTimerNotFound)
	}

	clone := *timer

	return &clone, nil
}

func (r *timerRepo) ByTicket(_ context.Context, ticketID string) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool { return t.TicketID == ticketID }), nil
}

func (r *timerRepo) ActiveByTicket(_ context.Context, ticketID string) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool {
		return t.TicketID == ticketID && t.Active()
	}), nil
}

func (r *timerRepo) Running(_ context.Context) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool {
		return t.Status == models.TimerStatusRunning
	}), nil
}

func (r *timerRepo) Save(_ context.Context, timer *models.SLATimer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.timers[timer.ID]; !exists {
		r.timerOrder = append(r.timerOrder, timer.ID)
	}

	clone := *timer
	r.timers[timer.ID] = &clone

	return nil
}

func (r *timerRepo) filter(keep func(*models.SLATimer) bool) []*models.SLATimer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timers := make([]*models.SLATimer, 0)

	for _, id := range r.timerOrder {
		if keep(r.timers[id]) {
			clone := *r.timers[id]
			timers = append(timers, &clone)
		}
	}

	return timers
}

type breachRepo Persistence

func (r *breachRepo) Save(_ context.Context, breach *models.SLABreach) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *breach
	r.breaches = append(r.breaches, &clone)

	return nil
}

func (r *breachRepo) ByTicket(_ context.Context, ticketID string) ([]*models.SLABreach, error) {
	return r.filter(func(b *models.SLABreach) bool { return b.TicketID == ticketID }), nil
}

func (r *breachRepo) ByTimer(_ context.Context, timerID string) ([]*models.SLABreach, error) {
	return r.filter(func(b *models.SLABreach) bool { return b.TimerID == timerID }), nil
}

func (r *breachRepo) filter(keep func(*models.SLABreach) bool) []*models.SLABreach {
	r.mu.RLock()
	defer r.mu.RUnlock()

	breaches := make([]*models.SLABreach, 0)

	for _, breach := range r.breaches {
		if keep(breach) {
			clone := *breach
			breaches = append(breaches, &clone)
		}
	}

	return breaches
}

type escalationRepo Persistence

func (r *escalationRepo) Append(_ context.Context, escalation *models.SLAEscalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *escalation
	r.escalations = append(r.escalations, &clone)

	return nil
}

func (r *escalationRepo) ByTicket(_ context.Context, ticketID string) ([]*models.SLAEscalation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	escalations := make([]*models.SLAEscalation, 0)

	for _, escalation := range r.escalations {
		if escalation.TicketID == ticketID {
			clone := *escalation
			escalations = append(escalations, &clone)
		}
	}

	return escalations, nil
}

type workflowRepo Persistence

func (r *workflowRepo) All(_ context.Context) ([]*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflows := make([]*models.Workflow, 0, len(r.workflowOrder))
	for _, id := range r.workflowOrder {
		workflows = append(workflows, cloneWorkflow(r.workflows[id]))
	}

	return workflows, nil
}

func (r *workflowRepo) Executable(ctx context.Context) ([]*models.Workflow, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	executable := make([]*models.Workflow, 0, len(all))
	for _, workflow := range all {
		if workflow.Executable() {
			executable = append(executable, workflow)
		}
	}

	return executable, nil
}

func (r *workflowRepo) ByID(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.workflows[id]
	if !ok {
		return nil, persistence.NewStoreError("ByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return cloneWorkflow(workflow), nil
}

func (r *workflowRepo) Save(_ context.Context, workflow *models.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[workflow.ID]; !exists {
		r.workflowOrder = append(r.workflowOrder, workflow.ID)
	}

	r.workflows[workflow.ID] = cloneWorkflow(workflow)

	return nil
}

func (r *workflowRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[id]; !exists {
		return persistence.NewStoreError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	delete(r.workflows, id)

	for i, existing := range r.workflowOrder {
		if existing == id {
			r.workflowOrder = append(r.workflowOrder[:i], r.workflowOrder[i+1:]...)

			break
		}
	}

	return nil
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	clone := *workflow

	clone.Nodes = make([]*models.Node, len(workflow.Nodes))
	for i, node := range workflow.Nodes {
		nodeClone := *node
		clone.Nodes[i] = &nodeClone
	}

	clone.Edges = make([]*models.Edge, len(workflow.Edges))
	for i, edge := range workflow.Edges {
		edgeClone := *edge
		clone.Edges[i] = &edgeClone
	}

	return &clone
}
