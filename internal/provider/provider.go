package provider

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// ExternalComment is a comment as returned by an external tracker.
type ExternalComment struct {
	AuthorName string
	Body       string
	CreatedAt  *time.Time
}

// TicketProjection is an ephemeral view of one external ticket. It is
// produced by a provider and never persisted as-is.
type TicketProjection struct {
	ExternalID    string
	Title         string
	Description   string
	StatusName    string
	StatusColor   string
	PriorityName  string
	PriorityColor string
	PriorityValue float64
	Comments      []ExternalComment
}

// FetchResult is one native page from an external tracker.
type FetchResult struct {
	Items     []TicketProjection
	NextToken *string
	HasMore   bool
}

// Provider is the contract each external tracker client fulfills. Native
// tokens are provider-specific and opaque to the rest of the pipeline.
type Provider interface {
	FetchPage(ctx context.Context, integration domain.Integration, nativeToken *string, limit int) (FetchResult, error)
	AddComment(ctx context.Context, integration domain.Integration, externalTicketID, body, authorName string) (domain.Comment, error)
}
