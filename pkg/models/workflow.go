package models

import "time"

// NodeType identifies a workflow node kind. The set is closed: the
// registry registers a factory per type and the executor rejects
// anything else.
type NodeType string

// Trigger node types. A workflow has exactly one trigger node, which is
// its entry point.
const (
	NodeTypeTicketCreated NodeType = "ticket_created"
	NodeTypeTicketUpdated NodeType = "ticket_updated"
	NodeTypeTimeScheduler NodeType = "time_scheduler"
)

// Timer action node types.
const (
	NodeTypeStartSLATimer NodeType = "start_sla_timer"
	NodeTypePauseSLA      NodeType = "pause_sla"
	NodeTypeResumeSLA     NodeType = "resume_sla"
	NodeTypeCheckSLATime  NodeType = "check_sla_time"
	NodeTypeSLAWarning    NodeType = "sla_warning"
	NodeTypeSLABreach     NodeType = "sla_breach"
)

// Logic node types.
const (
	NodeTypeConditionIf NodeType = "condition_if"
	NodeTypeMerge       NodeType = "merge"
)

// Side-effect node types.
const (
	NodeTypeSendEmail        NodeType = "send_email"
	NodeTypeSendSMS          NodeType = "send_sms"
	NodeTypeSendNotification NodeType = "send_notification"
	NodeTypeUpdateField      NodeType = "update_field"
	NodeTypeAssignTicket     NodeType = "assign_ticket"
	NodeTypeAddNote          NodeType = "add_note"
	NodeTypeEscalation       NodeType = "escalation"
)

// IsTrigger reports whether the type is a workflow entry point.
func (t NodeType) IsTrigger() bool {
	return t == NodeTypeTicketCreated || t == NodeTypeTicketUpdated || t == NodeTypeTimeScheduler
}

// Source handles used on edges leaving a condition node.
const (
	SourceHandleTrue  = "true"
	SourceHandleFalse = "false"
)

// Node is a node instance inside a workflow graph. Config carries the
// type-specific parameters authored in the visual editor.
type Node struct {
	ID        string         `json:"id"   validate:"required"`
	Type      NodeType       `json:"type" validate:"required"`
	Config    map[string]any `json:"config,omitempty"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// Edge connects two nodes. SourceHandle is set only on edges leaving a
// condition node ("true" or "false").
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
}

// Workflow is a directed graph of trigger, logic and action nodes.
// It is executable only when active and no longer a draft.
type Workflow struct {
	ID       string  `json:"id"`
	Name     string  `json:"name" validate:"required,min=3"`
	IsActive bool    `json:"is_active"`
	IsDraft  bool    `json:"is_draft"`
	PolicyID *string `json:"policy_id,omitempty"`

	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Executable reports whether the dispatcher may run this workflow.
func (w *Workflow) Executable() bool {
	return w.IsActive && !w.IsDraft
}

// TriggerNode returns the workflow's trigger node, if present.
func (w *Workflow) TriggerNode() (*Node, bool) {
	for _, node := range w.Nodes {
		if node.Type.IsTrigger() {
			return node, true
		}
	}

	return nil, false
}

// NodeByID looks a node up by id.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// OutgoingEdges returns all edges whose source is the given node.
func (w *Workflow) OutgoingEdges(nodeID string) []*Edge {
	edges := make([]*Edge, 0)

	for _, edge := range w.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// NodeResult is the outcome of executing a single node.
type NodeResult struct {
	NodeID  string         `json:"node_id"`
	Type    NodeType       `json:"type"`
	Success bool           `json:"success"`
	Stop    bool           `json:"stop,omitempty"`
	Branch  *bool          `json:"branch,omitempty"` // condition nodes only
	Output  map[string]any `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
}
