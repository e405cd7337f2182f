package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/api/dto"
	"github.com/spec-kit/ticket-hub/internal/domain"
	"github.com/spec-kit/ticket-hub/internal/provider"
)

const (
	defaultStatusDisplay   = "To Do"
	defaultPriorityDisplay = "Medium"
)

// Per-provider vocabulary tables. Keys are lowercased raw names; adding a
// provider means adding a table entry here, not a branch anywhere else.
var statusTables = map[domain.ProviderType]map[string]string{
	domain.ProviderJira: {
		"to do":       "To Do",
		"open":        "To Do",
		"backlog":     "To Do",
		"selected":    "To Do",
		"in progress": "In Progress",
		"in review":   "In Review",
		"blocked":     "Blocked",
		"done":        "Done",
		"closed":      "Done",
		"resolved":    "Done",
	},
	domain.ProviderLinear: {
		"backlog":     "To Do",
		"todo":        "To Do",
		"unstarted":   "To Do",
		"triage":      "To Do",
		"started":     "In Progress",
		"in progress": "In Progress",
		"in review":   "In Review",
		"completed":   "Done",
		"done":        "Done",
		"canceled":    "Cancelled",
		"cancelled":   "Cancelled",
	},
	domain.ProviderGitHub: {
		"open":   "To Do",
		"closed": "Done",
	},
}

var priorityTables = map[domain.ProviderType]map[string]string{
	domain.ProviderJira: {
		"highest":  "Critical",
		"blocker":  "Critical",
		"critical": "Critical",
		"major":    "High",
		"high":     "High",
		"medium":   "Medium",
		"low":      "Low",
		"minor":    "Low",
		"lowest":   "Low",
		"trivial":  "Low",
	},
	domain.ProviderLinear: {
		"urgent":      "Critical",
		"high":        "High",
		"medium":      "Medium",
		"normal":      "Medium",
		"no priority": "Medium",
		"low":         "Low",
	},
	domain.ProviderGitHub: {
		"critical": "Critical",
		"high":     "High",
		"medium":   "Medium",
		"low":      "Low",
	},
}

// urlTemplates render tracker deep links per provider type.
var urlTemplates = map[domain.ProviderType]func(baseURL, externalID string) string{
	domain.ProviderJira: func(baseURL, externalID string) string {
		return baseURL + "/browse/" + externalID
	},
	domain.ProviderLinear: func(baseURL, externalID string) string {
		return baseURL + "/issue/" + externalID
	},
	domain.ProviderGitHub: func(baseURL, externalID string) string {
		return baseURL + "/issues/" + externalID
	},
}

// TicketViewMapper normalizes provider vocabularies and merges durable
// records with live external projections into one display shape.
type TicketViewMapper struct {
	lookups *LookupCache
	logger  *zap.Logger
}

// NewTicketViewMapper constructs the mapper.
func NewTicketViewMapper(lookups *LookupCache, logger *zap.Logger) *TicketViewMapper {
	return &TicketViewMapper{lookups: lookups, logger: logger}
}

// CompositeTicketID is the externally visible id for any external-origin
// ticket, materialized or not.
func CompositeTicketID(integrationID, externalTicketID string) string {
	return fmt.Sprintf("%s:%s", integrationID, externalTicketID)
}

// SplitCompositeTicketID reverses CompositeTicketID. ok is false for plain
// internal ids.
func SplitCompositeTicketID(id string) (integrationID, externalTicketID string, ok bool) {
	idx := strings.Index(id, ":")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// MapStatusToDisplay normalizes a raw provider status name. Unknown or empty
// input falls back to the default rather than failing.
func (m *TicketViewMapper) MapStatusToDisplay(raw string, providerType domain.ProviderType) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		m.logger.Warn("empty external status, using default",
			zap.String("provider", string(providerType)))
		return defaultStatusDisplay
	}
	if table, ok := statusTables[providerType]; ok {
		if display, ok := table[key]; ok {
			return display
		}
	}
	m.logger.Warn("unknown external status, using default",
		zap.String("provider", string(providerType)),
		zap.String("status", raw))
	return defaultStatusDisplay
}

// MapPriorityToDisplay normalizes a raw provider priority name.
func (m *TicketViewMapper) MapPriorityToDisplay(raw string, providerType domain.ProviderType) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		m.logger.Warn("empty external priority, using default",
			zap.String("provider", string(providerType)))
		return defaultPriorityDisplay
	}
	if table, ok := priorityTables[providerType]; ok {
		if display, ok := table[key]; ok {
			return display
		}
	}
	m.logger.Warn("unknown external priority, using default",
		zap.String("provider", string(providerType)),
		zap.String("priority", raw))
	return defaultPriorityDisplay
}

// BuildExternalURL renders the tracker deep link for an external ticket,
// with a generic fallback for unrecognized provider types.
func (m *TicketViewMapper) BuildExternalURL(integration domain.Integration, externalTicketID string) string {
	base := strings.TrimRight(integration.BaseURL, "/")
	if tmpl, ok := urlTemplates[integration.Provider]; ok {
		return tmpl(base, externalTicketID)
	}
	return base + "/ticket/" + externalTicketID
}

// MapInternalTicketToView builds the display shape for a durable ticket
// served from local storage.
func (m *TicketViewMapper) MapInternalTicketToView(ctx context.Context, ticket domain.Ticket, comments []domain.Comment) (dto.TicketView, error) {
	status, priority, err := m.resolveLookups(ctx, &ticket)
	if err != nil {
		return dto.TicketView{}, err
	}

	views := make([]dto.CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, dto.CommentView{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	sortCommentsNewestFirst(views)

	createdAt := ticket.CreatedAt
	updatedAt := ticket.UpdatedAt
	return dto.TicketView{
		ID:                 ticket.ID,
		Source:             dto.SourceInternal,
		IsInternal:         true,
		Title:              ticket.Title,
		Description:        ticket.Description,
		Status:             status,
		Priority:           priority,
		AssignedAgentID:    ticket.AssignedAgentID,
		AssignedWorkflowID: ticket.AssignedWorkflowID,
		SatisfactionScore:  DefaultSatisfactionScore,
		Comments:           views,
		CreatedAt:          &createdAt,
		UpdatedAt:          &updatedAt,
	}, nil
}

// MapExternalTicketToView merges a live external projection with its
// materialized counterpart, when one exists. Local status, priority and
// assignment override the raw external values; the composite id is used
// either way so clients address external tickets uniformly.
func (m *TicketViewMapper) MapExternalTicketToView(ctx context.Context, integration domain.Integration, projection provider.TicketProjection, materialized *domain.Ticket, localComments []domain.Comment) (dto.TicketView, error) {
	view := dto.TicketView{
		ID:               CompositeTicketID(integration.ID, projection.ExternalID),
		Source:           dto.SourceExternal,
		IsInternal:       false,
		Title:            projection.Title,
		Description:      projection.Description,
		ExternalURL:      m.BuildExternalURL(integration, projection.ExternalID),
		IntegrationID:    &integration.ID,
		ExternalTicketID: &projection.ExternalID,
		Status: dto.StatusView{
			Name:  m.MapStatusToDisplay(projection.StatusName, integration.Provider),
			Color: projection.StatusColor,
		},
		Priority: dto.PriorityView{
			Name:  m.MapPriorityToDisplay(projection.PriorityName, integration.Provider),
			Color: projection.PriorityColor,
		},
		SatisfactionScore: DefaultSatisfactionScore,
	}

	if materialized != nil {
		status, priority, err := m.resolveLookups(ctx, materialized)
		if err != nil {
			return dto.TicketView{}, err
		}
		if materialized.StatusID != nil {
			view.Status = status
		}
		if materialized.PriorityID != nil {
			view.Priority = priority
		}
		view.AssignedAgentID = materialized.AssignedAgentID
		view.AssignedWorkflowID = materialized.AssignedWorkflowID
		createdAt := materialized.CreatedAt
		updatedAt := materialized.UpdatedAt
		view.CreatedAt = &createdAt
		view.UpdatedAt = &updatedAt
	}

	comments := make([]dto.CommentView, 0, len(projection.Comments)+len(localComments))
	for _, comment := range projection.Comments {
		comments = append(comments, dto.CommentView{
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	for _, comment := range localComments {
		comments = append(comments, dto.CommentView{
			ID:         comment.ID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	sortCommentsNewestFirst(comments)
	view.Comments = comments

	return view, nil
}

func (m *TicketViewMapper) resolveLookups(ctx context.Context, ticket *domain.Ticket) (dto.StatusView, dto.PriorityView, error) {
	statusView := dto.StatusView{Name: defaultStatusDisplay}
	priorityView := dto.PriorityView{Name: defaultPriorityDisplay}

	if ticket.StatusID != nil {
		status, err := m.lookups.StatusByID(ctx, *ticket.StatusID)
		if err != nil {
			return statusView, priorityView, err
		}
		if status != nil {
			statusView = dto.StatusView{ID: status.ID, Name: status.Name, Color: status.Color}
		}
	}
	if ticket.PriorityID != nil {
		priority, err := m.lookups.PriorityByID(ctx, *ticket.PriorityID)
		if err != nil {
			return statusView, priorityView, err
		}
		if priority != nil {
			priorityView = dto.PriorityView{ID: priority.ID, Name: priority.Name, Color: priority.Color}
		}
	}
	return statusView, priorityView, nil
}

// sortCommentsNewestFirst orders by timestamp descending; comments without a
// timestamp sort as oldest.
func sortCommentsNewestFirst(comments []dto.CommentView) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i].CreatedAt, comments[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
