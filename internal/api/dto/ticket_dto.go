package dto

import "time"

// TicketSource marks where a displayed ticket originated.
type TicketSource string

const (
	SourceInternal TicketSource = "internal"
	SourceExternal TicketSource = "external"
)

// StatusView is the display shape for a ticket status. ID is empty for
// unmaterialized external tickets (placeholder identity).
type StatusView struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// PriorityView is the display shape for a ticket priority.
type PriorityView struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CommentView is a single thread entry, from either origin.
type CommentView struct {
	ID         string     `json:"id,omitempty"`
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	CreatedAt  *time.Time `json:"created_at"`
}

// TicketView is the unified display shape for internal and external tickets.
// External-origin tickets are addressed by the composite
// "{integrationID}:{externalTicketID}" id whether or not they are
// materialized.
type TicketView struct {
	ID                 string        `json:"id"`
	Source             TicketSource  `json:"source"`
	IsInternal         bool          `json:"is_internal"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Status             StatusView    `json:"status"`
	Priority           PriorityView  `json:"priority"`
	ExternalURL        string        `json:"external_url,omitempty"`
	IntegrationID      *string       `json:"integration_id,omitempty"`
	ExternalTicketID   *string       `json:"external_ticket_id,omitempty"`
	AssignedAgentID    *string       `json:"assigned_agent_id,omitempty"`
	AssignedWorkflowID *string       `json:"assigned_workflow_id,omitempty"`
	SatisfactionScore  int           `json:"satisfaction_score"`
	Comments           []CommentView `json:"comments"`
	CreatedAt          *time.Time    `json:"created_at,omitempty"`
	UpdatedAt          *time.Time    `json:"updated_at,omitempty"`
}

// TicketPage is one page of the aggregated stream.
type TicketPage struct {
	Items         []TicketView `json:"items"`
	PageSize      int          `json:"page_size"`
	NextPageToken *string      `json:"next_page_token,omitempty"`
}

// CreateTicketRequest payload for internal ticket creation.
type CreateTicketRequest struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	StatusID           *string `json:"status_id"`
	PriorityID         *string `json:"priority_id"`
	AssignedAgentID    *string `json:"assigned_agent_id"`
	AssignedWorkflowID *string `json:"assigned_workflow_id"`
}

// MaterializeTicketRequest promotes an external ticket into a durable record.
// The projection fields echo what the client already holds from the listing.
type MaterializeTicketRequest struct {
	IntegrationID      string                `json:"integration_id"`
	ExternalTicketID   string                `json:"external_ticket_id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	PriorityValue      float64               `json:"priority_value"`
	AssignedAgentID    *string               `json:"assigned_agent_id"`
	AssignedWorkflowID *string               `json:"assigned_workflow_id"`
	Comments           []ExternalCommentBody `json:"comments"`
}

// ExternalCommentBody mirrors a provider comment in materialize payloads.
type ExternalCommentBody struct {
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	CreatedAt  *time.Time `json:"created_at"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Body       string `json:"body"`
	AuthorName string `json:"author_name"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedAgentID    *string `json:"assigned_agent_id"`
	AssignedWorkflowID *string `json:"assigned_workflow_id"`
}

// TicketSummaryResponse is the AI summarization result.
type TicketSummaryResponse struct {
	TicketID string `json:"ticket_id"`
	Summary  string `json:"summary"`
}
