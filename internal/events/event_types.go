package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketMaterialized      EventType = "ticket_materialized"
	EventTicketCommentAdded      EventType = "ticket_comment_added"
	EventTicketAssignmentChanged EventType = "ticket_assignment_changed"
	EventTicketDeleted           EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	WorkspaceID string      `json:"workspace_id"`
	TicketID    string      `json:"ticket_id"`
	AgentID     *string     `json:"agent_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string  `json:"title"`
	PriorityID *string `json:"priority_id,omitempty"`
}

// TicketMaterializedPayload payload.
type TicketMaterializedPayload struct {
	IntegrationID    string `json:"integration_id"`
	ExternalTicketID string `json:"external_ticket_id"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	AuthorName  string `json:"author_name"`
	BodyPreview string `json:"body_preview"`
	External    bool   `json:"external"`
}

// TicketAssignmentChangedPayload payload.
type TicketAssignmentChangedPayload struct {
	AssignedAgentID    *string `json:"assigned_agent_id,omitempty"`
	AssignedWorkflowID *string `json:"assigned_workflow_id,omitempty"`
}
