package domain

import "time"

// Ticket is the durable aggregate for work items. Purely internal tickets
// carry IsInternal=true and no external reference; a materialized ticket
// always carries both IntegrationID and ExternalTicketID.
type Ticket struct {
	ID                 string
	WorkspaceID        string
	Title              string
	Description        string
	StatusID           *string
	PriorityID         *string
	IsInternal         bool
	IntegrationID      *string
	ExternalTicketID   *string
	AssignedAgentID    *string
	AssignedWorkflowID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasExternalRef reports whether the ticket is bound to an external tracker.
func (t *Ticket) HasExternalRef() bool {
	return t.IntegrationID != nil && t.ExternalTicketID != nil
}
