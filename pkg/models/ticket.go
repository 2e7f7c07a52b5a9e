package models

import "time"

// Ticket is the read-model of a support ticket as seen by this engine.
// The ticket system of record owns the schema; only the fields the
// policy resolver, monitor and action nodes consume appear here.
type Ticket struct {
	ID           string    `json:"id"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	DepartmentID string    `json:"department_id,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	AssigneeID   string    `json:"assignee_id,omitempty"`
	Channel      string    `json:"channel,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot captures the breach-relevant ticket fields.
func (t *Ticket) Snapshot() TicketSnapshot {
	return TicketSnapshot{
		Priority:     t.Priority,
		Status:       t.Status,
		AssigneeID:   t.AssigneeID,
		DepartmentID: t.DepartmentID,
	}
}

// Agent is a support agent eligible for round-robin assignment.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	OpenTickets int    `json:"open_tickets"`
}

// Notification is a message handed to the notification sink. Delivery
// and retry policy are owned by the sink.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Priority  string `json:"priority,omitempty"`
	Channel   string `json:"channel,omitempty"` // email, sms, in_app
}
