// Package directory is the client for the external user directory.
// It owns account records and team memberships; this service only
// consumes the opaque user ids it issues.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/attendly/attendance-backend/pkg/config"
	apperrors "github.com/attendly/attendance-backend/pkg/errors"
)

// Client talks to the directory's REST API
type Client struct {
	baseURL    string
	projectID  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a directory client from configuration
func NewClient(cfg *config.DirectoryConfig) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		projectID: cfg.ProjectID,
		apiKey:    cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// User is a directory account
type User struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createUserRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreateUser creates a directory account and returns its opaque id
func (c *Client) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	body := createUserRequest{
		UserID:   "unique()",
		Email:    email,
		Password: password,
		Name:     name,
	}

	var user User
	if err := c.do(ctx, http.MethodPost, "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a directory account. Used by the create-employee
// rollback path.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

type membershipList struct {
	Total int `json:"total"`
}

// CountTeamMemberships returns how many memberships the user holds in
// the team. Admin status is a non-zero count.
func (c *Client) CountTeamMemberships(ctx context.Context, teamID, userID string) (int, error) {
	path := fmt.Sprintf("/teams/%s/memberships?search=%s", url.PathEscape(teamID), url.QueryEscape(userID))

	var list membershipList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return 0, err
	}
	return list.Total, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal directory request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create directory request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("directory user")
	}
	if resp.StatusCode == http.StatusConflict {
		return apperrors.AlreadyExists("a user with this email already exists")
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("directory returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode directory response: %w", err)
		}
	}
	return nil
}
