package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devtycoon/internal/auth"
	"devtycoon/internal/econ"
	"devtycoon/internal/store"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// StateResponse is the /v1/state payload.
type StateResponse struct {
	State   econ.State `json:"state"`
	Version int64      `json:"version"`
}

// ActionResponse is the /v1/actions/{action} payload.
type ActionResponse struct {
	Outcome econ.Outcome `json:"outcome"`
	State   econ.State   `json:"state"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Signup(ctx context.Context, email, password, username string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
		"username": username,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) State(ctx context.Context, accessToken string) (StateResponse, error) {
	var out StateResponse
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", accessToken, nil, &out)
	return out, err
}

// Action submits a player action. projectName is only meaningful for
// start_project and may be empty to let the server pick a title.
func (c *Client) Action(ctx context.Context, accessToken, action, projectName string) (ActionResponse, error) {
	var in map[string]any
	if projectName != "" {
		in = map[string]any{"project_name": projectName}
	}
	var out ActionResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/actions/"+url.PathEscape(action), accessToken, in, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, accessToken string) ([]store.LeaderboardRow, error) {
	var out struct {
		Rows []store.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", accessToken, nil, &out)
	return out.Rows, err
}

// StreamStates opens the live session stream and returns a channel of
// committed states. The channel closes when the stream ends for any
// reason; cancel ctx to hang up. While the stream is open the server
// runs the passive-income ticker for this player.
func (c *Client) StreamStates(ctx context.Context, accessToken string) (<-chan econ.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/state/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	// The shared client enforces a request timeout; streams live longer.
	httpClient := &http.Client{Transport: c.HTTP.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	ch := make(chan econ.State, 8)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var st econ.State
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &st); err != nil {
				continue
			}
			select {
			case ch <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
