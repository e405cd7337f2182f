package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/ticket-hub/internal/domain"
)

// BridgeClient speaks to a tracker-bridge service that translates a uniform
// REST contract into each tracker's native API. One bridge serves every
// provider type; the request carries the integration's provider, base URL
// and filter so the bridge can route it.
type BridgeClient struct {
	httpClient *http.Client
	bridgeURL  string
}

// NewBridgeClient constructs a client for the given bridge endpoint.
func NewBridgeClient(bridgeURL string, timeout time.Duration) *BridgeClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BridgeClient{
		httpClient: &http.Client{Timeout: timeout},
		bridgeURL:  strings.TrimRight(bridgeURL, "/"),
	}
}

type bridgeFetchRequest struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	FilterQuery *string `json:"filter_query,omitempty"`
	NativeToken *string `json:"native_token,omitempty"`
	Limit       int     `json:"limit"`
}

type bridgeComment struct {
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	CreatedAt  *time.Time `json:"created_at"`
}

type bridgeTicket struct {
	ExternalID    string          `json:"external_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StatusName    string          `json:"status_name"`
	StatusColor   string          `json:"status_color"`
	PriorityName  string          `json:"priority_name"`
	PriorityColor string          `json:"priority_color"`
	PriorityValue float64         `json:"priority_value"`
	Comments      []bridgeComment `json:"comments"`
}

type bridgeFetchResponse struct {
	Items     []bridgeTicket `json:"items"`
	NextToken *string        `json:"next_token"`
	HasMore   bool           `json:"has_more"`
}

type bridgeCommentRequest struct {
	Provider         string `json:"provider"`
	BaseURL          string `json:"base_url"`
	ExternalTicketID string `json:"external_ticket_id"`
	Body             string `json:"body"`
	AuthorName       string `json:"author_name"`
}

// FetchPage requests one native page for an integration.
func (c *BridgeClient) FetchPage(ctx context.Context, integration domain.Integration, nativeToken *string, limit int) (FetchResult, error) {
	request := bridgeFetchRequest{
		Provider:    string(integration.Provider),
		BaseURL:     integration.BaseURL,
		FilterQuery: integration.FilterQuery,
		NativeToken: nativeToken,
		Limit:       limit,
	}
	var response bridgeFetchResponse
	if err := c.post(ctx, "/tickets/fetch", request, &response); err != nil {
		return FetchResult{}, err
	}

	items := make([]TicketProjection, 0, len(response.Items))
	for _, item := range response.Items {
		comments := make([]ExternalComment, 0, len(item.Comments))
		for _, comment := range item.Comments {
			comments = append(comments, ExternalComment{
				AuthorName: comment.AuthorName,
				Body:       comment.Body,
				CreatedAt:  comment.CreatedAt,
			})
		}
		items = append(items, TicketProjection{
			ExternalID:    item.ExternalID,
			Title:         item.Title,
			Description:   item.Description,
			StatusName:    item.StatusName,
			StatusColor:   item.StatusColor,
			PriorityName:  item.PriorityName,
			PriorityColor: item.PriorityColor,
			PriorityValue: item.PriorityValue,
			Comments:      comments,
		})
	}
	return FetchResult{Items: items, NextToken: response.NextToken, HasMore: response.HasMore}, nil
}

// AddComment posts a comment to the external ticket through the bridge.
func (c *BridgeClient) AddComment(ctx context.Context, integration domain.Integration, externalTicketID, body, authorName string) (domain.Comment, error) {
	request := bridgeCommentRequest{
		Provider:         string(integration.Provider),
		BaseURL:          integration.BaseURL,
		ExternalTicketID: externalTicketID,
		Body:             body,
		AuthorName:       authorName,
	}
	var response bridgeComment
	if err := c.post(ctx, "/tickets/comments", request, &response); err != nil {
		return domain.Comment{}, err
	}
	return domain.Comment{
		AuthorName: response.AuthorName,
		Body:       response.Body,
		CreatedAt:  response.CreatedAt,
	}, nil
}

func (c *BridgeClient) post(ctx context.Context, path string, request, response any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker bridge %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, response)
}
