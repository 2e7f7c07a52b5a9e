package models

import "fmt"

// Well-known execution context keys. Trigger dispatch seeds these from
// the originating ticket event; nodes may add their own keys for
// downstream nodes to read.
const (
	ContextKeyTicketID         = "ticketId"
	ContextKeyPriority         = "priority"
	ContextKeyStatus           = "status"
	ContextKeyCategory         = "category"
	ContextKeyDepartment       = "department"
	ContextKeyChannel          = "channel"
	ContextKeyEvent            = "event"
	ContextKeyChangedFields    = "changedFields"
	ContextKeyPercentRemaining = "percentRemaining"
	ContextKeyTimeRemaining    = "timeRemaining"
)

// ExecutionContext is the short-lived key/value bag threaded through
// node execution. It is passed by value; With and Merged copy the
// underlying map so concurrent fan-out branches never observe each
// other's writes.
type ExecutionContext struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Values     map[string]any `json:"values"`
}

// Get returns the value stored under key.
func (c ExecutionContext) Get(key string) (any, bool) {
	value, ok := c.Values[key]

	return value, ok
}

// GetString returns the value under key rendered as a string; missing
// keys yield "".
func (c ExecutionContext) GetString(key string) string {
	value, ok := c.Values[key]
	if !ok || value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// TicketID is a convenience accessor for the ticket the execution is
// about. Empty for time_scheduler executions with no resolvable ticket.
func (c ExecutionContext) TicketID() string {
	return c.GetString(ContextKeyTicketID)
}

// With returns a copy of the context with one additional value.
func (c ExecutionContext) With(key string, value any) ExecutionContext {
	return c.Merged(map[string]any{key: value})
}

// Merged returns a copy of the context with all given values added.
// A nil or empty values map returns the context unchanged.
func (c ExecutionContext) Merged(values map[string]any) ExecutionContext {
	if len(values) == 0 {
		return c
	}

	merged := make(map[string]any, len(c.Values)+len(values))
	for k, v := range c.Values {
		merged[k] = v
	}

	for k, v := range values {
		merged[k] = v
	}

	next := c
	next.Values = merged

	return next
}
