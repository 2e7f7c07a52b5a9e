// Package mocks provides in-memory fakes for the external ticket
// system and the notification sink, used in tests and local runs.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/caredesk/slaflow/pkg/models"
)

// TicketStore is an in-memory ticket system fake. All mutations are
// recorded so tests can assert on them.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	agents  []*models.Agent

	Updates     []FieldUpdate
	Assignments []Assignment
	Notes       []Note
}

type FieldUpdate struct {
	TicketID string
	Field    string
	Value    string
}

type Assignment struct {
	TicketID string
	AgentID  string
}

type Note struct {
	TicketID string
	Text     string
	Internal bool
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]*models.Ticket)}
}

// AddTicket seeds a ticket.
func (s *TicketStore) AddTicket(ticket *models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *ticket
	s.tickets[ticket.ID] = &clone
}

// AddAgent seeds an agent.
func (s *TicketStore) AddAgent(agent *models.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *agent
	s.agents = append(s.agents, &clone)
}

func (s *TicketStore) Ticket(_ context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s not found", id)
	}

	clone := *ticket

	return &clone, nil
}

func (s *TicketStore) UpdateField(_ context.Context, id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Updates = append(s.Updates, FieldUpdate{TicketID: id, Field: field, Value: value})

	if ticket, ok := s.tickets[id]; ok {
		switch field {
		case "priority":
			ticket.Priority = value
		case "status":
			ticket.Status = value
		case "category":
			ticket.CategoryID = value
		}
	}

	return nil
}

func (s *TicketStore) Assign(_ context.Context, id, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Assignments = append(s.Assignments, Assignment{TicketID: id, AgentID: agentID})

	if ticket, ok := s.tickets[id]; ok {
		ticket.AssigneeID = agentID
	}

	return nil
}

func (s *TicketStore) AddNote(_ context.Context, id, note string, internal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Notes = append(s.Notes, Note{TicketID: id, Text: note, Internal: internal})

	return nil
}

func (s *TicketStore) Agents(_ context.Context) ([]*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agents := make([]*models.Agent, 0, len(s.agents))

	for _, agent := range s.agents {
		clone := *agent
		agents = append(agents, &clone)
	}

	return agents, nil
}

// NotificationSink records every sent notification. FailWith makes
// Send return that error, for exercising delivery-failure paths.
type NotificationSink struct {
	mu       sync.Mutex
	sent     []models.Notification
	FailWith error
}

func NewNotificationSink() *NotificationSink {
	return &NotificationSink{}
}

func (s *NotificationSink) Send(_ context.Context, notification models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	s.sent = append(s.sent, notification)

	return nil
}

// Sent returns a copy of the delivered notifications.
func (s *NotificationSink) Sent() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent := make([]models.Notification, len(s.sent))
	copy(sent, s.sent)

	return sent
}
