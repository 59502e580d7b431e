// ABOUTME: HTTP client for the UniMeet API
// ABOUTME: Wraps every endpoint with bearer auth, timeouts, and typed errors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dbrow221/UniMeet/internal/cache"
)

// TokenSource supplies the bearer credential for authenticated requests.
// The session guard is the only implementation outside of tests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is the API client for the UniMeet backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	events     *cache.Cache[[]Event]
}

// New creates a new API client with the given base URL and token source.
// tokens may be nil for clients that only call unauthenticated endpoints.
func New(baseURL string, tokens TokenSource, timeout, eventsCacheTTL time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
		events: cache.New[[]Event](eventsCacheTTL),
	}
}

// get issues an authenticated GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues an authenticated request with an optional JSON body
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("no valid credential: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// ListJoinRequests calls GET /api/join-requests/
func (c *Client) ListJoinRequests(ctx context.Context) ([]JoinRequest, error) {
	var out []JoinRequest
	if err := c.get(ctx, "/api/join-requests/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveJoinRequest calls POST /api/join-requests/{id}/approve/
func (c *Client) ApproveJoinRequest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/join-requests/%d/approve/", id), nil, nil)
}

// DenyJoinRequest calls POST /api/join-requests/{id}/deny/
func (c *Client) DenyJoinRequest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/join-requests/%d/deny/", id), nil, nil)
}

// ListFriendRequests calls GET /api/friend-requests/received/
func (c *Client) ListFriendRequests(ctx context.Context) ([]FriendRequest, error) {
	var out []FriendRequest
	if err := c.get(ctx, "/api/friend-requests/received/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AcceptFriendRequest calls PATCH /api/friend-requests/{id}/accept/
func (c *Client) AcceptFriendRequest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/friend-requests/%d/accept/", id), nil, nil)
}

// DeclineFriendRequest calls PATCH /api/friend-requests/{id}/decline/
func (c *Client) DeclineFriendRequest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/friend-requests/%d/decline/", id), nil, nil)
}

// ListConversations calls GET /api/messages/conversations/
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.get(ctx, "/api/messages/conversations/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkConversationRead calls POST /api/messages/mark-read/{user_id}/
func (c *Client) MarkConversationRead(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/messages/mark-read/%d/", userID), nil, nil)
}

// ListNotifications calls GET /api/notifications/
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.get(ctx, "/api/notifications/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead calls POST /api/notifications/{id}/mark-read/
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/mark-read/", id), nil, nil)
}

// ListEvents calls GET /api/events/, serving repeat calls within the cache
// TTL from the local copy.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	if events, ok := c.events.Get("events"); ok {
		return events, nil
	}

	var out []Event
	if err := c.get(ctx, "/api/events/", &out); err != nil {
		return nil, err
	}
	c.events.Set("events", out)
	return out, nil
}
