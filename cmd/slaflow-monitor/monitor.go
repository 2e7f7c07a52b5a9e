// Package main provides the Slaflow monitor service, which consumes
// ticket events, runs the SLA sweep and dispatches workflows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caredesk/slaflow/pkg/eventbus"
	"github.com/caredesk/slaflow/pkg/events"
	"github.com/caredesk/slaflow/pkg/monitorsched"
	"github.com/caredesk/slaflow/pkg/queue"
	"github.com/caredesk/slaflow/pkg/workflow"
)

const shutdownTimeout = 30 * time.Second

// MonitorService ties the ticket event ingress, the sweep scheduler
// and the workflow dispatcher together into one long-running process.
type MonitorService struct {
	id         string
	eventBus   eventbus.EventBus
	consumer   *queue.Consumer
	scheduler  *monitorsched.Scheduler
	dispatcher *workflow.Dispatcher
	logger     *slog.Logger
}

// NewMonitorService creates a new MonitorService instance.
func NewMonitorService(
	id string,
	eventBus eventbus.EventBus,
	consumer *queue.Consumer,
	scheduler *monitorsched.Scheduler,
	dispatcher *workflow.Dispatcher,
	logger *slog.Logger,
) *MonitorService {
	return &MonitorService{
		id:         id,
		eventBus:   eventBus,
		consumer:   consumer,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		logger:     logger.With("module", "monitor_service"),
	}
}

// Start begins the monitor service and blocks until shutdown.
func (m *MonitorService) Start(ctx context.Context) {
	mCtx, cancel := context.WithCancel(ctx)

	m.logger.Info("Starting monitor service")

	m.handleSignals(cancel)
	m.run(mCtx)
}

// handleSignals sets up signal handling for graceful shutdown.
func (m *MonitorService) handleSignals(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		m.logger.Info("Received signal", "signal", sig)
		m.logger.Info("Shutting down gracefully...")
		cancel()
	}()
}

// run starts every component and waits for context cancellation.
func (m *MonitorService) run(ctx context.Context) {
	if err := m.subscribeTicketEvents(ctx); err != nil {
		m.logger.Error("Failed to subscribe to ticket events", "error", err)

		return
	}

	if err := m.consumer.Start(ctx, m.dispatcher); err != nil {
		m.logger.Error("Failed to start queue consumer", "error", err)

		return
	}

	if err := m.scheduler.Start(ctx); err != nil {
		m.logger.Error("Failed to start sweep scheduler", "error", err)

		return
	}

	m.logger.Info("Monitor service started - waiting for events...")

	<-ctx.Done()
	m.logger.Info("Monitor service context cancelled, stopping...")

	m.stop()
}

// subscribeTicketEvents registers handlers for ticket events arriving
// over the event bus and starts the subscription.
func (m *MonitorService) subscribeTicketEvents(ctx context.Context) error {
	err := m.eventBus.Handle(events.TicketCreatedEvent, func(ctx context.Context, event any) error {
		created, ok := event.(*events.TicketCreated)
		if !ok {
			m.logger.Warn("Ignoring malformed ticket created event")

			return nil
		}

		return m.dispatcher.OnTicketCreated(ctx, *created)
	})
	if err != nil {
		return err
	}

	err = m.eventBus.Handle(events.TicketUpdatedEvent, func(ctx context.Context, event any) error {
		updated, ok := event.(*events.TicketUpdated)
		if !ok {
			m.logger.Warn("Ignoring malformed ticket updated event")

			return nil
		}

		return m.dispatcher.OnTicketUpdated(ctx, *updated)
	})
	if err != nil {
		return err
	}

	return m.eventBus.Subscribe(ctx)
}

// stop shuts components down in reverse start order and waits for
// in-flight workflow executions to drain.
func (m *MonitorService) stop() {
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	m.scheduler.Stop(stopCtx)

	if err := m.consumer.Stop(stopCtx); err != nil {
		m.logger.Error("Failed to stop queue consumer", "error", err)
	}

	m.dispatcher.Wait()

	m.logger.Info("Monitor service stopped")
}
