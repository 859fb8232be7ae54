// Package jira implements the client core: the REST gateway, the session
// cache, per-category attribute lookups, and the issue payload builder.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"
)

// AuthError reports a credential rejected by the remote service.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization rejected (HTTP %d)", e.StatusCode)
}

// APIError reports a non-auth HTTP failure from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Client is a Jira REST API client. The credential, when set, is sent
// verbatim as a Basic Authorization header value.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Jira API client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the session credential used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the Jira instance base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes a request against the given API path and returns the parsed
// response body. A 2xx response whose body is not valid JSON yields a nil
// result and no error; 401/403 yield an *AuthError, other non-2xx statuses
// an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	u := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Basic "+c.token)
	}

	log.Debug().Str("method", method).Str("url", u).Msg("calling API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if !json.Valid(data) {
		// Some endpoints (DELETE, transitions) return an empty body.
		return nil, nil
	}
	return json.RawMessage(data), nil
}

// ServerInfo returns the instance's server info, used for browse URLs.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	data, err := c.Do(ctx, http.MethodGet, "rest/api/latest/serverInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("getting server info: %w", err)
	}
	var info ServerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing server info: %w", err)
	}
	return &info, nil
}

// BrowseURL returns the web URL for the given issue key, preferring the
// base URL reported by the server over the configured one.
func (c *Client) BrowseURL(ctx context.Context, issueKey string) string {
	base := c.baseURL
	if info, err := c.ServerInfo(ctx); err == nil && info.BaseURL != "" {
		base = info.BaseURL
	}
	return base + "/browse/" + issueKey
}

// GetIssue returns the raw JSON for a single issue by key or ID.
func (c *Client) GetIssue(ctx context.Context, issueKey string) (json.RawMessage, error) {
	data, err := c.Do(ctx, http.MethodGet, "rest/api/latest/issue/"+issueKey, nil)
	if err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", issueKey, err)
	}
	return data, nil
}

// CreateIssue creates a new issue from the given field set and returns the
// new issue's key.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (string, error) {
	body := map[string]any{"fields": fields}
	data, err := c.Do(ctx, http.MethodPost, "rest/api/latest/issue", body)
	if err != nil {
		return "", fmt.Errorf("creating issue: %w", err)
	}
	var created CreatedIssue
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("parsing create response: %w", err)
	}
	return created.Key, nil
}

// ModifyIssue updates an existing issue's fields.
func (c *Client) ModifyIssue(ctx context.Context, issueKey string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	if _, err := c.Do(ctx, http.MethodPut, "rest/api/latest/issue/"+issueKey, body); err != nil {
		return fmt.Errorf("modifying issue %s: %w", issueKey, err)
	}
	return nil
}

// DeleteIssue deletes an issue along with its subtasks.
func (c *Client) DeleteIssue(ctx context.Context, issueKey string) error {
	path := "rest/api/latest/issue/" + issueKey + "?deleteSubtasks"
	if _, err := c.Do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("deleting issue %s: %w", issueKey, err)
	}
	return nil
}

// AddComment adds a plain-text comment to an issue.
func (c *Client) AddComment(ctx context.Context, issueKey, comment string) error {
	path := "rest/api/latest/issue/" + issueKey + "/comment"
	if _, err := c.Do(ctx, http.MethodPost, path, map[string]string{"body": comment}); err != nil {
		return fmt.Errorf("adding comment to %s: %w", issueKey, err)
	}
	return nil
}

// ResolveIssue transitions an issue using the given resolution ID.
func (c *Client) ResolveIssue(ctx context.Context, issueKey string, resolutionID int) error {
	path := "rest/api/latest/issue/" + issueKey + "/transitions"
	body := map[string]string{"id": fmt.Sprint(resolutionID)}
	if _, err := c.Do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("resolving issue %s: %w", issueKey, err)
	}
	return nil
}

// LinkIssues creates a link of the given type between two issues, with an
// optional comment on the link.
func (c *Client) LinkIssues(ctx context.Context, inwardKey, linkType, outwardKey, comment string) error {
	body := IssueLinkRequest{
		Type:         NamedRef{Name: linkType},
		InwardIssue:  KeyRef{Key: inwardKey},
		OutwardIssue: KeyRef{Key: outwardKey},
	}
	if comment != "" {
		body.Comment = &CommentBody{Body: comment}
	}
	if _, err := c.Do(ctx, http.MethodPost, "rest/api/latest/issueLink", body); err != nil {
		return fmt.Errorf("linking %s to %s: %w", inwardKey, outwardKey, err)
	}
	return nil
}

// SubtaskLink makes child a subtask of parent. The link type is the fixed
// jira_subtask_link type from the instance's issuelinktype table.
func (c *Client) SubtaskLink(ctx context.Context, parentKey, childKey string) error {
	return c.LinkIssues(ctx, childKey, "jira_subtask_link", parentKey, "")
}

// RawAPI performs a read-only GET against an arbitrary API path and returns
// the parsed response.
func (c *Client) RawAPI(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	return data, nil
}

// CheckSession validates the current credential against the session endpoint.
func (c *Client) CheckSession(ctx context.Context) error {
	if _, err := c.Do(ctx, http.MethodGet, "rest/auth/latest/session", nil); err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	return nil
}
