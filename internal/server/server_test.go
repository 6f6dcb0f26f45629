package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mlihgenel/cliptrim/internal/isolation"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

func newTestRouter() (http.Handler, *transcode.Downloads, *isolation.HeaderGate) {
	downloads := transcode.NewDownloads("")
	gate := isolation.NewHeaderGate()
	frames := []thumbnail.Frame{{Index: 0, Timestamp: 10, Image: []byte{0xff, 0xd8, 0xff}}}
	r := NewRouter(Config{
		Downloads: downloads,
		Frames:    func() []thumbnail.Frame { return frames },
		Status:    func() any { return map[string]string{"trim_start": "00:30"} },
		Gate:      gate,
	})
	return r, downloads, gate
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestDownloadLifecycle(t *testing.T) {
	r, downloads, _ := newTestRouter()
	ref := downloads.Add("clip_trim.mp4", []byte("video"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/downloads/"+ref.ID, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "video" {
		t.Fatalf("unexpected download response: %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "clip_trim.mp4") {
		t.Fatalf("missing attachment header: %v", rec.Header())
	}

	downloads.Revoke(ref.ID)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/downloads/"+ref.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("revoked download must 404, got %d", rec.Code)
	}
}

func TestThumbs(t *testing.T) {
	r, _, _ := newTestRouter()
	cases := map[string]int{
		"/thumbs/0":  http.StatusOK,
		"/thumbs/1":  http.StatusNotFound,
		"/thumbs/-1": http.StatusBadRequest,
		"/thumbs/x":  http.StatusBadRequest,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestIsolationHeadersFollowGate(t *testing.T) {
	r, _, gate := newTestRouter()
	_ = gate.Register()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("Cross-Origin-Embedder-Policy") != "require-corp" {
		t.Fatalf("expected COEP header when registered")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter()
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("unexpected metrics response: %d", resp.StatusCode)
	}
}

func TestServerListenAndShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ln, err := s.Listen()
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get(s.BaseURL() + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
}
