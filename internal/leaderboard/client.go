// Package leaderboard talks to the shared sheet service that ranks readers.
package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// ErrUnavailable is returned when the leaderboard could not be fetched; callers may retry
var ErrUnavailable = errors.New("leaderboard unavailable")

// ErrNotConfigured is returned when no sync URL is set
var ErrNotConfigured = errors.New("leaderboard sync is not configured")

// Client is the HTTP side of the sync service
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service at url
func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type leaderboardResponse struct {
	Success bool                      `json:"success"`
	Data    []models.LeaderboardEntry `json:"data"`
}

// RedeemResult is the service's answer to a redeem code
type RedeemResult struct {
	Success bool   `json:"success"`
	XP      int    `json:"xp,omitempty"`
	Error   string `json:"error,omitempty"`
}

type memberStatusRequest struct {
	Username      string `json:"username"`
	Action        string `json:"action"`
	IsSuperMember bool   `json:"isSuperMember"`
}

type locationRequest struct {
	Username string `json:"username"`
	Action   string `json:"action"`
	Location string `json:"location"`
}

type redeemRequest struct {
	Username string `json:"username"`
	Action   string `json:"action"`
	Code     string `json:"code"`
}

// Fetch returns the ranked entries. Any transport or decode failure is ErrUnavailable.
func (c *Client) Fetch(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var out leaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !out.Success {
		return []models.LeaderboardEntry{}, nil
	}
	if out.Data == nil {
		out.Data = []models.LeaderboardEntry{}
	}
	return out.Data, nil
}

// FindUser returns the entry for username, or nil when it is not ranked
func (c *Client) FindUser(ctx context.Context, username string) (*models.LeaderboardEntry, error) {
	entries, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Username == username {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// RedeemCode asks the service to validate a promotional code
func (c *Client) RedeemCode(ctx context.Context, username, code string) (*RedeemResult, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	resp, err := c.post(ctx, redeemRequest{Username: username, Action: "redeemCode", Code: code})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out RedeemResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode redeem response: %w", err)
	}
	return &out, nil
}

func (c *Client) send(ctx context.Context, payload interface{}) error {
	if c.url == "" {
		return ErrNotConfigured
	}
	resp, err := c.post(ctx, payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sync service returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
