package mailing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/sling"
)

const (
	DefaultKitEndpoint = "https://api.kit.com/v4/"
	DefaultPageSize    = 100
)

// Broadcast is an email broadcast as stored by Kit.
type Broadcast struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	SendAt      string `json:"send_at"`
	PublishedAt string `json:"published_at,omitempty"`
}

// BroadcastInput is the part of a broadcast the scheduler sets.
type BroadcastInput struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
	SendAt  string `json:"send_at"`
	Public  bool   `json:"public"`
}

// NewBroadcastInput formats sendAt as an ISO-8601 UTC timestamp.
func NewBroadcastInput(subject, content string, sendAt time.Time) BroadcastInput {
	return BroadcastInput{
		Subject: subject,
		Content: content,
		SendAt:  sendAt.UTC().Format(time.RFC3339),
	}
}

// BroadcastService lists, creates and updates broadcasts.
type BroadcastService interface {
	ListBroadcasts(ctx context.Context) ([]Broadcast, error)
	CreateBroadcast(ctx context.Context, in BroadcastInput) (*Broadcast, error)
	UpdateBroadcast(ctx context.Context, id int64, in BroadcastInput) (*Broadcast, error)
}

// APIError is a non-2xx response from Kit.
type APIError struct {
	StatusCode int
	Errors     []string `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("kit API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("kit API returned status %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
}

// KitClient talks to the Kit v4 REST API.
type KitClient struct {
	base     *sling.Sling
	pageSize int
}

// NewKitClient creates a client authenticated with apiKey.
func NewKitClient(endpoint, apiKey string, httpClient *http.Client) (*KitClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("kit API key is required")
	}
	if endpoint == "" {
		endpoint = DefaultKitEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &KitClient{
		base: sling.New().
			Client(httpClient).
			Base(endpoint).
			Set("X-Kit-Api-Key", apiKey).
			Set("Accept", "application/json"),
		pageSize: DefaultPageSize,
	}, nil
}

type listParams struct {
	After   string `url:"after,omitempty"`
	PerPage int    `url:"per_page,omitempty"`
}

type pagination struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

type listResponse struct {
	Broadcasts []Broadcast `json:"broadcasts"`
	Pagination pagination  `json:"pagination"`
}

type broadcastResponse struct {
	Broadcast Broadcast `json:"broadcast"`
}

// ListBroadcasts returns every broadcast, following cursor pagination.
func (c *KitClient) ListBroadcasts(ctx context.Context) ([]Broadcast, error) {
	var all []Broadcast
	params := &listParams{PerPage: c.pageSize}
	for {
		var page listResponse
		if err := c.do(ctx, c.base.New().Get("broadcasts").QueryStruct(params), &page); err != nil {
			return nil, fmt.Errorf("listing broadcasts: %w", err)
		}
		all = append(all, page.Broadcasts...)

		if !page.Pagination.HasNextPage || page.Pagination.EndCursor == "" {
			return all, nil
		}
		params.After = page.Pagination.EndCursor
	}
}

// CreateBroadcast creates a scheduled broadcast.
func (c *KitClient) CreateBroadcast(ctx context.Context, in BroadcastInput) (*Broadcast, error) {
	var resp broadcastResponse
	if err := c.do(ctx, c.base.New().Post("broadcasts").BodyJSON(in), &resp); err != nil {
		return nil, fmt.Errorf("creating broadcast %q: %w", in.Subject, err)
	}
	return &resp.Broadcast, nil
}

// UpdateBroadcast replaces the subject, content and send time of a broadcast.
func (c *KitClient) UpdateBroadcast(ctx context.Context, id int64, in BroadcastInput) (*Broadcast, error) {
	var resp broadcastResponse
	path := "broadcasts/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, c.base.New().Put(path).BodyJSON(in), &resp); err != nil {
		return nil, fmt.Errorf("updating broadcast %d: %w", id, err)
	}
	return &resp.Broadcast, nil
}

func (c *KitClient) do(ctx context.Context, s *sling.Sling, out any) error {
	req, err := s.Request()
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	apiErr := &APIError{}
	resp, err := s.Do(req.WithContext(ctx), out, apiErr)
	if resp == nil {
		return fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
