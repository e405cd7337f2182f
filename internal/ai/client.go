package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/config"
	"github.com/spec-kit/ticket-hub/internal/service"
)

const scoringSystemPrompt = `You rate customer satisfaction from support ticket comment threads.
For each ticket you receive, respond with a JSON array of objects:
[{"ticket_id": "<id>", "score": <integer 0-100>}]
100 means fully satisfied, 0 means extremely dissatisfied. Respond with JSON only.`

const summarySystemPrompt = `You summarize support tickets for operators.
Write a short plain-text summary (3-5 sentences) of the ticket and its thread.`

// Client talks to an OpenAI-compatible chat completions endpoint. It backs
// both batched sentiment scoring and single-ticket summarization.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewClient constructs the client from AI configuration.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type scoringItem struct {
	TicketID string   `json:"ticket_id"`
	Comments []string `json:"comments"`
}

type scoredItem struct {
	TicketID string `json:"ticket_id"`
	Score    int    `json:"score"`
}

// ScoreBatch sends all requests in a single completion call and parses the
// model's JSON reply.
func (c *Client) ScoreBatch(ctx context.Context, requests []service.ScoreRequest) ([]service.ScoreResult, error) {
	items := make([]scoringItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, scoringItem{TicketID: req.TicketID, Comments: req.Comments})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, scoringSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var scored []scoredItem
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &scored); err != nil {
		return nil, fmt.Errorf("parse scoring response: %w", err)
	}
	results := make([]service.ScoreResult, 0, len(scored))
	for _, item := range scored {
		results = append(results, service.ScoreResult{TicketID: item.TicketID, Score: item.Score})
	}
	return results, nil
}

// Summarize produces a plain-text summary of one ticket thread.
func (c *Client) Summarize(ctx context.Context, title, description string, comments []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Title: " + title + "\n")
	sb.WriteString("Description: " + description + "\n")
	if len(comments) > 0 {
		sb.WriteString("Comments:\n")
		for _, comment := range comments {
			sb.WriteString("- " + comment + "\n")
		}
	}
	return c.complete(ctx, summarySystemPrompt, sb.String())
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("chat completion failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)))
		return "", fmt.Errorf("chat completion: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func truncate(data []byte, max int) []byte {
	if len(data) <= max {
		return data
	}
	return data[:max]
}
