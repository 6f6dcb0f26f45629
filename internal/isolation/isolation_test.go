package isolation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type countingRegistrar struct {
	gate         *HeaderGate
	registers    int
	unregisters  int
	failRegister bool
}

func (c *countingRegistrar) Register() error {
	if c.failRegister {
		return errors.New("aracı yok")
	}
	c.registers++
	return c.gate.Register()
}

func (c *countingRegistrar) Unregister() error {
	c.unregisters++
	return c.gate.Unregister()
}

func TestDecideTable(t *testing.T) {
	cases := []struct {
		cur    State
		needed bool
		want   Action
		reg    bool
	}{
		{State{Registered: false}, true, ActionRegister, true},
		{State{Registered: true}, true, ActionNone, true},
		{State{Registered: true}, false, ActionUnregister, false},
		{State{Registered: false}, false, ActionNone, false},
	}
	for _, tc := range cases {
		next, action := Decide(tc.cur, tc.needed)
		if action != tc.want || next.Registered != tc.reg || next.LastKnownNeeded != tc.needed {
			t.Errorf("Decide(%+v, %v) = %+v, %v", tc.cur, tc.needed, next, action)
		}
	}
}

func TestNeedsIsolation(t *testing.T) {
	if !NeedsIsolation("/video-trim") || !NeedsIsolation("/video-trim/") || !NeedsIsolation("/video-trim?id=3") {
		t.Fatalf("trim route must need isolation")
	}
	if NeedsIsolation("/") || NeedsIsolation("/videos") || NeedsIsolation("/video-trimmer") {
		t.Fatalf("other routes must not need isolation")
	}
}

func TestSameRequirementTwiceReloadsOnce(t *testing.T) {
	reg := &countingRegistrar{gate: NewHeaderGate()}
	reloads := 0
	m := NewManager(reg, ReloadFunc(func() { reloads++ }), false, nil)

	m.Sync("/video-trim")
	m.Sync("/video-trim")
	if reloads != 1 || reg.registers != 1 {
		t.Fatalf("expected exactly one reload and register, got reloads=%d registers=%d", reloads, reg.registers)
	}

	m.Sync("/videos")
	m.Sync("/settings")
	if reloads != 2 || reg.unregisters != 1 {
		t.Fatalf("expected one more reload on leave, got reloads=%d unregisters=%d", reloads, reg.unregisters)
	}
	if st := m.State(); st.Registered || st.LastKnownNeeded {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestRegistrarFailureKeepsState(t *testing.T) {
	reg := &countingRegistrar{gate: NewHeaderGate(), failRegister: true}
	reloads := 0
	m := NewManager(reg, ReloadFunc(func() { reloads++ }), false, nil)
	if _, err := m.Sync(TrimRoute); err == nil {
		t.Fatalf("expected error")
	}
	if reloads != 0 || m.State().Registered {
		t.Fatalf("failed registration must not reload or flip state")
	}
}

func TestFollowSubscription(t *testing.T) {
	gate := NewHeaderGate()
	reloaded := make(chan struct{}, 4)
	m := NewManager(gate, ReloadFunc(func() { reloaded <- struct{}{} }), false, nil)

	routes := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Follow(ctx, routes)
		close(done)
	}()

	routes <- "/video-trim"
	routes <- "/video-trim"
	close(routes)
	<-done

	if len(reloaded) != 1 {
		t.Fatalf("expected one reload, got %d", len(reloaded))
	}
	if !gate.Registered() {
		t.Fatalf("gate must be registered")
	}
	<-reloaded

	select {
	case <-time.After(10 * time.Millisecond):
	case <-reloaded:
		t.Fatalf("unexpected extra reload")
	}
}

func TestHeaderGateMiddleware(t *testing.T) {
	gate := NewHeaderGate()
	h := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Cross-Origin-Opener-Policy") != "" {
		t.Fatalf("headers must be absent while unregistered")
	}

	_ = gate.Register()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Cross-Origin-Opener-Policy") != "same-origin" ||
		rec.Header().Get("Cross-Origin-Embedder-Policy") != "require-corp" ||
		rec.Header().Get("Cross-Origin-Resource-Policy") != "same-origin" {
		t.Fatalf("missing isolation headers: %v", rec.Header())
	}
}
