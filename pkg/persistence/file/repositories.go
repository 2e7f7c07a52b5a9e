package file

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

type policyRepository struct {
	collection
}

func newPolicyRepository(root string) *policyRepository {
	return &policyRepository{newCollection(root, "policies")}
}

func (r *policyRepository) All(_ context.Context) ([]*models.SLAPolicy, error) {
	policies := make([]*models.SLAPolicy, 0)

	err := r.readAll(func(data []byte) error {
		var policy models.SLAPolicy
		if err := json.Unmarshal(data, &policy); err != nil {
			return err
		}

		policies = append(policies, &policy)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByCreation(policies, func(p *models.SLAPolicy) (int64, string) {
		return p.CreatedAt.UnixNano(), p.ID
	})

	return policies, nil
}

func (r *policyRepository) Active(ctx context.Context) ([]*models.SLAPolicy, error) {
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

func (r *policyRepository) ByID(_ context.Context, id string) (*models.SLAPolicy, error) {
	var policy models.SLAPolicy

	found, err := r.read(id, &policy)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("ByID", "policy", id, persistence.ErrPolicyNotFound)
	}

	return &policy, nil
}

func (r *policyRepository) Save(_ context.Context, policy *models.SLAPolicy) error {
	return r.write(policy.ID, policy)
}

func (r *policyRepository) Delete(_ context.Context, id string) error {
	found, err := r.remove(id)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewStoreError("Delete", "policy", id, persistence.ErrPolicyNotFound)
	}

	return nil
}

type timerRepository struct {
	collection
}

func newTimerRepository(root string) *timerRepository {
	return &timerRepository{newCollection(root, "timers")}
}

func (r *timerRepository) ByID(_ context.Context, id string) (*models.SLATimer, error) {
	var timer models.SLATimer

	found, err := r.read(id, &timer)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("ByID", "timer", id, persistence.ErrTimerNotFound)
	}

	return &timer, nil
}

func (r *timerRepository) ByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool { return t.TicketID == ticketID })
}

func (r *timerRepository) ActiveByTicket(ctx context.Context, ticketID string) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool {
		return t.TicketID == ticketID && t.Active()
	})
}

func (r *timerRepository) Running(_ context.Context) ([]*models.SLATimer, error) {
	return r.filter(func(t *models.SLATimer) bool {
		return t.Status == models.TimerStatusRunning
	})
}

func (r *timerRepository) Save(_ context.Context, timer *models.SLATimer) error {
	return r.write(timer.ID, timer)
}

func (r *timerRepository) filter(keep func(*models.SLATimer) bool) ([]*models.SLATimer, error) {
	timers := make([]*models.SLATimer, 0)

	err := r.readAll(func(data []byte) error {
		var timer models.SLATimer
		if err := json.Unmarshal(data, &timer); err != nil {
			return err
		}

		if keep(&timer) {
			timers = append(timers, &timer)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByCreation(timers, func(t *models.SLATimer) (int64, string) {
		return t.CreatedAt.UnixNano(), t.ID
	})

	return timers, nil
}

type breachRepository struct {
	collection
}

func newBreachRepository(root string) *breachRepository {
	return &breachRepository{newCollection(root, "breaches")}
}

func (r *breachRepository) Save(_ context.Context, breach *models.SLABreach) error {
	return r.write(breach.ID, breach)
}

func (r *breachRepository) ByTicket(_ context.Context, ticketID string) ([]*models.SLABreach, error) {
	return r.filter(func(b *models.SLABreach) bool { return b.TicketID == ticketID })
}

func (r *breachRepository) ByTimer(_ context.Context, timerID string) ([]*models.SLABreach, error) {
	return r.filter(func(b *models.SLABreach) bool { return b.TimerID == timerID })
}

func (r *breachRepository) filter(keep func(*models.SLABreach) bool) ([]*models.SLABreach, error) {
	breaches := make([]*models.SLABreach, 0)

	err := r.readAll(func(data []byte) error {
		var breach models.SLABreach
		if err := json.Unmarshal(data, &breach); err != nil {
			return err
		}

		if keep(&breach) {
			breaches = append(breaches, &breach)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return breaches, nil
}

type escalationRepository struct {
	collection
}

func newEscalationRepository(root string) *escalationRepository {
	return &escalationRepository{newCollection(root, "escalations")}
}

func (r *escalationRepository) Append(_ context.Context, escalation *models.SLAEscalation) error {
	return r.write(escalation.ID, escalation)
}

func (r *escalationRepository) ByTicket(_ context.Context, ticketID string) ([]*models.SLAEscalation, error) {
	escalations := make([]*models.SLAEscalation, 0)

	err := r.readAll(func(data []byte) error {
		var escalation models.SLAEscalation
		if err := json.Unmarshal(data, &escalation); err != nil {
			return err
		}

		if escalation.TicketID == ticketID {
			escalations = append(escalations, &escalation)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByCreation(escalations, func(e *models.SLAEscalation) (int64, string) {
		return e.CreatedAt.UnixNano(), e.ID
	})

	return escalations, nil
}

type workflowRepository struct {
	collection
}

func newWorkflowRepository(root string) *workflowRepository {
	return &workflowRepository{newCollection(root, "workflows")}
}

func (r *workflowRepository) All(_ context.Context) ([]*models.Workflow, error) {
	workflows := make([]*models.Workflow, 0)

	err := r.readAll(func(data []byte) error {
		var workflow models.Workflow
		if err := json.Unmarshal(data, &workflow); err != nil {
			return err
		}

		workflows = append(workflows, &workflow)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByCreation(workflows, func(w *models.Workflow) (int64, string) {
		return w.CreatedAt.UnixNano(), w.ID
	})

	return workflows, nil
}

func (r *workflowRepository) Executable(ctx context.Context) ([]*models.Workflow, error) {
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

func (r *workflowRepository) ByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := r.read(id, &workflow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("ByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	return r.write(workflow.ID, workflow)
}

func (r *workflowRepository) Delete(_ context.Context, id string) error {
	found, err := r.remove(id)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewStoreError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// sortByCreation orders entities by creation time, falling back to id
// so listings are reproducible when timestamps collide.
func sortByCreation[T any](items []T, key func(T) (int64, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])

		if ti != tj {
			return ti < tj
		}

		return idi < idj
	})
}
