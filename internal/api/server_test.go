package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devtycoon/internal/auth"
	"devtycoon/internal/config"
	"devtycoon/internal/econ"
	"devtycoon/internal/engine"
	"devtycoon/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	t.Cleanup(st.Close)
	runner := engine.NewRunner(st, logger, engine.DefaultConfig())
	cfg := config.APIConfig{
		AuthMode:        "local",
		LocalAuthSecret: "test-secret",
		TickEvery:       time.Hour,
		LeaderboardSize: store.DefaultLeaderboardSize,
	}
	return New(cfg, logger, auth.NewLocalAuthority(cfg.LocalAuthSecret), st, runner), st
}

func signup(t *testing.T, srv *Server, email string) auth.Session {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "hunter2",
		"username": strings.SplitN(email, "@", 2)[0],
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status %d: %s", rec.Code, rec.Body.String())
	}
	var session auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func doJSON(t *testing.T, srv *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSignupProvisionsStarterState(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/v1/state", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		State   econ.State `json:"state"`
		Version int64      `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if out.State.Money != econ.StarterMoney {
		t.Fatalf("money = %d, want %d", out.State.Money, econ.StarterMoney)
	}
	if out.Version != 1 {
		t.Fatalf("version = %d, want 1", out.Version)
	}
}

func TestLoginIsIdempotentProvision(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/v1/actions/hire", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("hire status %d: %s", rec.Code, rec.Body.String())
	}

	body, _ := json.Marshal(map[string]string{"email": "dev@example.com", "password": "hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	loginRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(loginRec, req)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", loginRec.Code, loginRec.Body.String())
	}

	stateRec := doJSON(t, srv, http.MethodGet, "/v1/state", session.AccessToken, nil)
	var out struct {
		State econ.State `json:"state"`
	}
	if err := json.Unmarshal(stateRec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if out.State.Employees != 1 {
		t.Fatalf("login reset the save: employees = %d", out.State.Employees)
	}
}

func TestActionAppliesAndReportsOutcome(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/v1/actions/start_project", session.AccessToken,
		map[string]string{"project_name": "Pixel Odyssey"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Outcome econ.Outcome `json:"outcome"`
		State   econ.State   `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Outcome.Applied {
		t.Fatalf("outcome rejected: %+v", out.Outcome)
	}
	if len(out.State.Projects) != 1 || out.State.Projects[0].Name != "Pixel Odyssey" {
		t.Fatalf("projects = %+v", out.State.Projects)
	}
}

func TestActionRejectionIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	// A sprint with no projects is eligible to fail, not to error.
	rec := doJSON(t, srv, http.MethodPost, "/v1/actions/sprint", session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Outcome econ.Outcome `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Outcome.Applied || out.Outcome.Reason != econ.RejectNotEligible {
		t.Fatalf("outcome = %+v", out.Outcome)
	}
}

func TestUnknownActionIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/v1/actions/tick", session.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("tick status %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/v1/actions/embezzle", session.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("embezzle status %d, want 404", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/v1/state", "/v1/leaderboard"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status %d, want 401", path, rec.Code)
		}
	}
	rec := doJSON(t, srv, http.MethodGet, "/v1/state", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status %d, want 401", rec.Code)
	}
}

func TestLeaderboardRanksByMoney(t *testing.T) {
	srv, st := newTestServer(t)
	rich := signup(t, srv, "rich@example.com")
	signup(t, srv, "poor@example.com")

	richID := auth.PlayerIDForEmail("rich@example.com")
	snap, err := st.Get(context.Background(), richID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	next := snap.State.Clone()
	next.Money = 1_000_000
	if err := st.Commit(context.Background(), richID, next, snap.Version); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/v1/leaderboard", rich.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Rows []store.LeaderboardRow `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(out.Rows))
	}
	if out.Rows[0].Name != "rich" || out.Rows[0].Money != 1_000_000 {
		t.Fatalf("top row = %+v", out.Rows[0])
	}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	srv, _ := newTestServer(t)
	session := signup(t, srv, "dev@example.com")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/state/stream", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if data == "" {
		t.Fatalf("no data event: %v", scanner.Err())
	}
	var st econ.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if st.Money != econ.StarterMoney {
		t.Fatalf("money = %d, want %d", st.Money, econ.StarterMoney)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "true") {
		t.Fatalf("body %q", rec.Body.String())
	}
}
