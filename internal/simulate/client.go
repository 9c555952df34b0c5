package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/shelf/internal/domain/model"
)

const maxSubmitRetries = 8

// errRetryable marks a response worth retrying (rate limited or backpressure).
var errRetryable = errors.New("retryable response")

// Client talks to the shelf HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

type activityBody struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Kind       string `json:"kind"`
	BookID     string `json:"bookId,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Rating     int    `json:"rating,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// AckResponse represents the response from activity submission.
type AckResponse struct {
	Status     string `json:"status"`
	ActivityID string `json:"activityId"`
	Duplicate  bool   `json:"duplicate"`
}

// ProfileResponse is the part of the profile the simulation checks.
type ProfileResponse struct {
	UserID     string `json:"userId"`
	Activities int64  `json:"activities"`
	Streak     struct {
		CurrentStreak int `json:"currentStreak"`
		LongestStreak int `json:"longestStreak"`
	} `json:"streak"`
	Badges []struct {
		Metric string `json:"metric"`
		Tier   string `json:"tier"`
	} `json:"badges"`
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Value  int64  `json:"value"`
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// Submit posts one activity, backing off while the server answers 429.
// retries counts the extra attempts made.
func (c *Client) Submit(ctx context.Context, a model.Activity) (ack AckResponse, retries int, err error) { //nolint:gocritic // hugeParam: read-only
	body := activityBody{
		ID: a.ID, UserID: a.UserID, Kind: string(a.Kind), BookID: a.BookID,
		Pages: a.Pages, Genre: a.Genre, Rating: a.Rating,
		OccurredAt: a.OccurredAt.UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return AckResponse{}, 0, fmt.Errorf("marshal activity: %w", err)
	}

	attempts := 0
	op := func() error {
		attempts++
		resp, err := c.do(ctx, http.MethodPost, "/v1/activities", payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		switch resp.StatusCode {
		case http.StatusAccepted, http.StatusOK:
			return json.Unmarshal(data, &ack)
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("submit %s: status %d: %s", a.ID, resp.StatusCode, bytes.TrimSpace(data)))
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxSubmitRetries), ctx)
	err = backoff.Retry(op, b)
	return ack, attempts - 1, err
}

// Profile fetches a user's profile. found is false on 404.
func (c *Client) Profile(ctx context.Context, userID string) (p ProfileResponse, found bool, err error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return ProfileResponse{}, false, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK:
		err = json.NewDecoder(resp.Body).Decode(&p)
		return p, err == nil, err
	case http.StatusNotFound:
		return ProfileResponse{}, false, nil
	default:
		return ProfileResponse{}, false, fmt.Errorf("profile %s: status %d", userID, resp.StatusCode)
	}
}

// Leaderboard fetches the top n rows of board.
func (c *Client) Leaderboard(ctx context.Context, board string, n int) ([]Entry, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/leaderboards/%s?limit=%d", url.PathEscape(board), n), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard %s: status %d", board, resp.StatusCode)
	}
	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
