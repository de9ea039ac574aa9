package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidview/vidview/internal/playback"
	"github.com/vidview/vidview/internal/validate"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error {
	return p.err
}

type stubSources struct{}

func (stubSources) Renditions(ctx context.Context, videoID string) ([]playback.VideoSource, error) {
	return []playback.VideoSource{
		{Quality: "720p", URL: "https://cdn.example.com/" + videoID + "/720p.mp4"},
		{Quality: "1080p", URL: "https://cdn.example.com/" + videoID + "/1080p.mp4"},
	}, nil
}

type nopNotifier struct{}

func (nopNotifier) LimitReached(sessionID string, limitSeconds int) {}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthReturnsOK(t *testing.T) {
	ts := newTestServer(t, Config{Pinger: &stubPinger{}})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestHealthReportsUnhealthyDatabase(t *testing.T) {
	ts := newTestServer(t, Config{Pinger: &stubPinger{err: errors.New("connection refused")}})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", resp.StatusCode)
	}
}

func TestSecurityHeadersAreSet(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("expected SAMEORIGIN, got %q", got)
	}
	csp := resp.Header.Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("expected default-src in CSP, got %q", csp)
	}
	if !strings.Contains(csp, "'nonce-") {
		t.Errorf("expected script nonce in CSP, got %q", csp)
	}
	if resp.Header.Get("Strict-Transport-Security") != "" {
		t.Error("did not expect HSTS header without an https base URL")
	}
}

func TestSecurityHeadersIncludeHSTSForHTTPS(t *testing.T) {
	ts := newTestServer(t, Config{BaseURL: "https://vidview.example.com"})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS header with an https base URL")
	}
}

func TestStorageEndpointIsAllowedInCSP(t *testing.T) {
	ts := newTestServer(t, Config{S3PublicEndpoint: "https://media.example.com"})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	csp := resp.Header.Get("Content-Security-Policy")
	if !strings.Contains(csp, "media-src 'self' data: https://media.example.com") {
		t.Errorf("expected storage endpoint in media-src, got %q", csp)
	}
}

func TestLanguagesEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/languages")
	if err != nil {
		t.Fatalf("GET /api/languages: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Languages []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"languages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode languages: %v", err)
	}
	if len(body.Languages) < 30 {
		t.Errorf("expected at least 30 target languages, got %d", len(body.Languages))
	}
}

func TestPlansEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/plans")
	if err != nil {
		t.Fatalf("GET /api/plans: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Plans []struct {
			ID               string `json:"id"`
			TimeLimitSeconds *int   `json:"timeLimitSeconds"`
		} `json:"plans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode plans: %v", err)
	}

	ids := make(map[string]bool)
	for _, p := range body.Plans {
		ids[p.ID] = true
	}
	for _, want := range []string{"free", "standard", "premium"} {
		if !ids[want] {
			t.Errorf("expected plan %q in catalog", want)
		}
	}
}

func TestLimitsEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/limits")
	if err != nil {
		t.Fatalf("GET /api/limits: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Limits map[string]int `json:"limits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode limits: %v", err)
	}
	if body.Limits["commentBody"] != validate.MaxCommentBodyLength {
		t.Errorf("expected commentBody limit %d, got %d",
			validate.MaxCommentBodyLength, body.Limits["commentBody"])
	}
}

func TestPlaybackRoutesAreWired(t *testing.T) {
	ts := newTestServer(t, Config{
		Manager: playback.NewManager(nopNotifier{}),
		Sources: stubSources{},
	})

	resp, err := http.Post(ts.URL+"/api/playback/", "application/json",
		strings.NewReader(`{"videoId":"vid-1","planId":"free"}`))
	if err != nil {
		t.Fatalf("POST /api/playback/: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var body struct {
		Session struct {
			ID      string `json:"id"`
			VideoID string `json:"videoId"`
		} `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if body.Session.VideoID != "vid-1" {
		t.Errorf("expected videoId vid-1, got %q", body.Session.VideoID)
	}
	if body.Session.ID == "" {
		t.Error("expected a generated session id")
	}
}

func TestCommentRoutesAbsentWithoutAuth(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/videos/vid-1/comments")
	if err != nil {
		t.Fatalf("GET comments: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 when comments are not configured, got %d", resp.StatusCode)
	}
}
