// Package pronote implements the timetable source against a
// pronotepy-compatible HTTP bridge. Pronote itself speaks an encrypted
// session protocol with no public API, so self-hosted setups expose it
// through a small bridge service; this client owns login, transport and
// timeouts, and nothing else in the process talks to the backend.
package pronote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	appLog "github.com/iimraane/pronote-ics-sync/internal/log"
	"github.com/iimraane/pronote-ics-sync/internal/timetable"
)

// Credentials identifies the Pronote account behind the feed.
type Credentials struct {
	// InstanceURL is the Pronote instance the bridge should log into,
	// e.g. "https://xxxx.index-education.net/pronote/eleve.html".
	InstanceURL string
	Username    string
	Password    string
	// ENT names the academic SSO portal, empty when logging in directly.
	ENT string
}

// Client fetches timetables from a Pronote bridge endpoint.
type Client struct {
	client  *http.Client
	baseURL string
	creds   Credentials
}

// NewClient creates a bridge client for baseURL. A bounded HTTP timeout is
// the only cancellation this layer adds; a fetch either completes or fails
// the whole request.
func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
		creds:   creds,
	}
}

type loginRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	ENT      string `json:"ent,omitempty"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type timetableResponse struct {
	Lessons []timetable.Lesson `json:"lessons"`
}

// FetchTimetable logs into the backend and retrieves the lessons for w.
// Sessions are short-lived on the Pronote side, so each fetch performs a
// fresh login rather than holding a token across the cache TTL.
func (c *Client) FetchTimetable(ctx context.Context, w timetable.Window) ([]timetable.Lesson, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("from", w.Start.String())
	q.Set("to", w.End.String())
	reqURL := c.baseURL + "/timetable?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	appLog.Info("pronote timetable fetch", "window", w, "url", redactURL(c.baseURL))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pronote: timetable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pronote: timetable request returned %s", resp.Status)
	}

	var body timetableResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pronote: decoding timetable response: %w", err)
	}

	appLog.Info("pronote timetable fetched", "window", w, "lesson_count", len(body.Lessons))
	return body.Lessons, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loginRequest{
		URL:      c.creds.InstanceURL,
		Username: c.creds.Username,
		Password: c.creds.Password,
		ENT:      c.creds.ENT,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pronote: login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pronote: login returned %s (check instance URL and credentials)", resp.Status)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("pronote: decoding login response: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("pronote: login succeeded but returned no token")
	}

	return body.Token, nil
}

// redactURL hides everything past the host so credentials or tokens in
// bridge URLs never reach the logs.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "pronote://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + redactedSuffix
}
