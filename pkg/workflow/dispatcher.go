package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/slaflow/pkg/eventbus"
	"github.com/caredesk/slaflow/pkg/events"
	"github.com/caredesk/slaflow/pkg/models"
	"github.com/caredesk/slaflow/pkg/persistence"
)

// Dispatcher routes ticket and timer events to the workflows whose
// trigger matches. Each matching workflow runs on its own goroutine so
// one failing workflow never blocks or aborts the others.
type Dispatcher struct {
	workflows persistence.WorkflowRepository
	executor  *Executor
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(workflows persistence.WorkflowRepository, executor *Executor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		workflows: workflows,
		executor:  executor,
		logger:    logger.With("module", "workflow_dispatcher"),
	}
}

// WithPublisher enables execution outcome events on the bus.
func (d *Dispatcher) WithPublisher(publisher eventbus.EventPublisher) *Dispatcher {
	d.publisher = publisher

	return d
}

// OnTicketCreated fires every ticket_created workflow whose trigger
// filters match the new ticket.
func (d *Dispatcher) OnTicketCreated(ctx context.Context, event events.TicketCreated) error {
	matched, err := d.matching(ctx, models.NodeTypeTicketCreated, func(config map[string]any) bool {
		return matchesTicketFilters(config, &event.Ticket)
	})
	if err != nil {
		return err
	}

	ectx := ticketContext(&event.Ticket, string(events.TicketCreatedEvent))

	for _, wf := range matched {
		d.dispatch(ctx, wf, ectx)
	}

	return nil
}

// OnTicketUpdated fires every ticket_updated workflow whose watched
// fields intersect the changed fields. An empty watch list matches any
// update.
func (d *Dispatcher) OnTicketUpdated(ctx context.Context, event events.TicketUpdated) error {
	matched, err := d.matching(ctx, models.NodeTypeTicketUpdated, func(config map[string]any) bool {
		return matchesWatchFields(config, event.ChangedFields)
	})
	if err != nil {
		return err
	}

	ectx := ticketContext(&event.Ticket, string(events.TicketUpdatedEvent))
	ectx.Values[models.ContextKeyChangedFields] = event.ChangedFields

	for _, wf := range matched {
		d.dispatch(ctx, wf, ectx)
	}

	return nil
}

// OnTimerTick fires every time_scheduler workflow once per running
// timer sweep.
func (d *Dispatcher) OnTimerTick(ctx context.Context, timer *models.SLATimer, percentRemaining float64) {
	matched, err := d.matching(ctx, models.NodeTypeTimeScheduler, func(map[string]any) bool { return true })
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to load workflows for timer tick",
			"timer_id", timer.ID, "error", err)

		return
	}

	ectx := models.ExecutionContext{
		Values: map[string]any{
			models.ContextKeyTicketID:         timer.TicketID,
			models.ContextKeyPriority:         timer.Priority,
			models.ContextKeyEvent:            "timer.tick",
			models.ContextKeyPercentRemaining: percentRemaining,
			models.ContextKeyTimeRemaining:    timer.RemainingMinutes,
			"timerId":                         timer.ID,
			"timerType":                       string(timer.Type),
		},
	}

	for _, wf := range matched {
		d.dispatch(ctx, wf, ectx)
	}
}

// Wait blocks until every in-flight execution finishes.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// matching returns executable workflows whose trigger node has the
// given type and passes the filter predicate on its config.
func (d *Dispatcher) matching(ctx context.Context, triggerType models.NodeType, accepts func(map[string]any) bool) ([]*models.Workflow, error) {
	executable, err := d.workflows.Executable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load executable workflows: %w", err)
	}

	matched := make([]*models.Workflow, 0)

	for _, wf := range executable {
		trig, ok := wf.TriggerNode()
		if !ok || trig.Type != triggerType {
			continue
		}

		if accepts(trig.Config) {
			matched = append(matched, wf)
		}
	}

	return matched, nil
}

// dispatch runs one workflow asynchronously. Panics are contained to
// the workflow's goroutine.
func (d *Dispatcher) dispatch(ctx context.Context, wf *models.Workflow, ectx models.ExecutionContext) {
	ectx.ID = uuid.New().String()
	ectx.WorkflowID = wf.ID

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.ErrorContext(ctx, "Workflow execution panicked",
					"workflow_id", wf.ID, "execution_id", ectx.ID, "panic", r)
			}
		}()

		result, err := d.executor.Execute(ctx, wf, ectx)
		if err != nil {
			d.logger.ErrorContext(ctx, "Workflow execution failed",
				"workflow_id", wf.ID, "execution_id", ectx.ID, "error", err)
			d.publishFailed(ctx, wf, ectx, err)

			return
		}

		if !result.Executed {
			d.logger.WarnContext(ctx, "Workflow skipped",
				"workflow_id", wf.ID, "execution_id", ectx.ID, "reason", result.Reason)

			return
		}

		d.publishExecuted(ctx, ectx, result)
	}()
}

func (d *Dispatcher) publishExecuted(ctx context.Context, ectx models.ExecutionContext, result *Result) {
	if d.publisher == nil {
		return
	}

	event := events.WorkflowExecuted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.WorkflowExecutedEvent,
			Timestamp: time.Now(),
		},
		WorkflowID:  result.WorkflowID,
		ExecutionID: result.ExecutionID,
		TicketID:    ectx.TicketID(),
		Results:     result.Results,
	}

	if err := d.publisher.Publish(ctx, result.WorkflowID, event); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish execution event",
			"workflow_id", result.WorkflowID, "error", err)
	}
}

func (d *Dispatcher) publishFailed(ctx context.Context, wf *models.Workflow, ectx models.ExecutionContext, execErr error) {
	if d.publisher == nil {
		return
	}

	event := events.WorkflowFailed{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.WorkflowFailedEvent,
			Timestamp: time.Now(),
		},
		WorkflowID:  wf.ID,
		ExecutionID: ectx.ID,
		Error:       execErr.Error(),
	}

	if err := d.publisher.Publish(ctx, wf.ID, event); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish failure event",
			"workflow_id", wf.ID, "error", err)
	}
}

func ticketContext(ticket *models.Ticket, eventName string) models.ExecutionContext {
	return models.ExecutionContext{
		Values: map[string]any{
			models.ContextKeyTicketID:   ticket.ID,
			models.ContextKeyPriority:   ticket.Priority,
			models.ContextKeyStatus:     ticket.Status,
			models.ContextKeyCategory:   ticket.CategoryID,
			models.ContextKeyDepartment: ticket.DepartmentID,
			models.ContextKeyChannel:    ticket.Channel,
			models.ContextKeyEvent:      eventName,
		},
	}
}

func matchesTicketFilters(config map[string]any, ticket *models.Ticket) bool {
	if department, ok := config["department"].(string); ok && department != "" {
		if !strings.EqualFold(department, ticket.DepartmentID) {
			return false
		}
	}

	if category, ok := config["category"].(string); ok && category != "" {
		if !strings.EqualFold(category, ticket.CategoryID) {
			return false
		}
	}

	if raw, ok := config["priorities"].([]any); ok && len(raw) > 0 {
		for _, value := range raw {
			if priority, ok := value.(string); ok && strings.EqualFold(priority, ticket.Priority) {
				return true
			}
		}

		return false
	}

	return true
}

func matchesWatchFields(config map[string]any, changed []string) bool {
	raw, ok := config["watchFields"].([]any)
	if !ok || len(raw) == 0 {
		return true
	}

	for _, value := range raw {
		field, ok := value.(string)
		if !ok {
			continue
		}

		if slices.ContainsFunc(changed, func(c string) bool { return strings.EqualFold(c, field) }) {
			return true
		}
	}

	return false
}
