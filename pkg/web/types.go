package web

import "github.com/caredesk/slaflow/pkg/models"

// CreatePolicyRequest is the payload for creating or replacing an SLA
// policy.
type CreatePolicyRequest struct {
	Name      string `json:"name"       validate:"required,min=3"`
	Active    bool   `json:"active"`
	IsDefault bool   `json:"is_default"`

	Targets map[string]models.PriorityTargets `json:"targets" validate:"required"`

	EscalationLevel1 int `json:"escalation_level1"`
	EscalationLevel2 int `json:"escalation_level2"`

	UseBusinessHours bool                 `json:"use_business_hours"`
	BusinessHours    models.BusinessHours `json:"business_hours"`

	PauseOnWaiting bool `json:"pause_on_waiting"`
	PauseOnHold    bool `json:"pause_on_hold"`
	PauseOffHours  bool `json:"pause_off_hours"`

	DepartmentIDs []string `json:"department_ids"`
	CategoryIDs   []string `json:"category_ids"`
}

func (r *CreatePolicyRequest) ToModel() *models.SLAPolicy {
	return &models.SLAPolicy{
		Name:             r.Name,
		Active:           r.Active,
		IsDefault:        r.IsDefault,
		Targets:          r.Targets,
		EscalationLevel1: r.EscalationLevel1,
		EscalationLevel2: r.EscalationLevel2,
		UseBusinessHours: r.UseBusinessHours,
		BusinessHours:    r.BusinessHours,
		PauseOnWaiting:   r.PauseOnWaiting,
		PauseOnHold:      r.PauseOnHold,
		PauseOffHours:    r.PauseOffHours,
		DepartmentIDs:    r.DepartmentIDs,
		CategoryIDs:      r.CategoryIDs,
	}
}

// CreateWorkflowRequest is the payload for creating or replacing a
// workflow definition.
type CreateWorkflowRequest struct {
	Name     string         `json:"name" validate:"required,min=3"`
	IsActive bool           `json:"is_active"`
	IsDraft  bool           `json:"is_draft"`
	PolicyID *string        `json:"policy_id"`
	Nodes    []*models.Node `json:"nodes"`
	Edges    []*models.Edge `json:"edges"`
}

func (r *CreateWorkflowRequest) ToModel() *models.Workflow {
	return &models.Workflow{
		Name:     r.Name,
		IsActive: r.IsActive,
		IsDraft:  r.IsDraft,
		PolicyID: r.PolicyID,
		Nodes:    r.Nodes,
		Edges:    r.Edges,
	}
}

// StartTimersRequest is the payload for starting SLA timers outside a
// workflow.
type StartTimersRequest struct {
	TicketID     string `json:"ticket_id" validate:"required"`
	Priority     string `json:"priority"  validate:"required"`
	DepartmentID string `json:"department_id"`
	CategoryID   string `json:"category_id"`
	PolicyID     string `json:"policy_id"`
}

// PauseTimersRequest carries the pause reason.
type PauseTimersRequest struct {
	Reason string `json:"reason"`
}

// StopTimersRequest optionally limits the stop to one timer type.
type StopTimersRequest struct {
	Types []models.TimerType `json:"types"`
}

// NodeTypeInfo describes one registered node type for the editor.
type NodeTypeInfo struct {
	Type        models.NodeType `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      map[string]any  `json:"schema"`
}
