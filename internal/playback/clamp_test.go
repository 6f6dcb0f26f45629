package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/mlihgenel/cliptrim/internal/timeline"
)

type fakeMedia struct {
	mu       sync.Mutex
	duration float64
	current  float64
	playing  bool
	pauses   int
	seeks    []float64
	calls    []string
}

func (m *fakeMedia) CurrentTime() float64 { m.mu.Lock(); defer m.mu.Unlock(); return m.current }
func (m *fakeMedia) Duration() float64    { m.mu.Lock(); defer m.mu.Unlock(); return m.duration }
func (m *fakeMedia) Paused() bool         { m.mu.Lock(); defer m.mu.Unlock(); return !m.playing }

func (m *fakeMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
	m.calls = append(m.calls, "play")
	return nil
}

func (m *fakeMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.pauses++
	m.calls = append(m.calls, "pause")
}

func (m *fakeMedia) Seek(s float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, s)
	m.calls = append(m.calls, "seek")
}

func (m *fakeMedia) Subscribe(func(Event)) func() { return func() {} }

func TestClampPausesAtRangeEnd(t *testing.T) {
	media := &fakeMedia{duration: 120, playing: true}
	c := NewClamp(media, timeline.Range{Start: 25, End: 75})

	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 60})
	if media.pauses != 0 {
		t.Fatalf("expected no pause inside range")
	}

	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 89.95})
	st := c.State()
	if !st.EndReached {
		t.Fatalf("expected endReached at 89.95s")
	}
	if media.pauses != 1 {
		t.Fatalf("expected one pause, got %d", media.pauses)
	}

	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 89.99})
	if media.pauses != 1 {
		t.Fatalf("expected pause only once while flagged, got %d", media.pauses)
	}
}

func TestClampSnapsForwardToStart(t *testing.T) {
	media := &fakeMedia{duration: 120}
	c := NewClamp(media, timeline.Range{Start: 25, End: 75})

	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 10})
	if len(media.seeks) != 1 || media.seeks[0] != 30 {
		t.Fatalf("expected snap to 30s, got %v", media.seeks)
	}
	if got := c.State().Progress; got < 8.33 || got > 8.34 {
		t.Fatalf("unexpected progress: %v", got)
	}
}

func TestClampSuppressesCorrectionWhileSeeking(t *testing.T) {
	media := &fakeMedia{duration: 120}
	now := time.Unix(1000, 0)
	c := NewClamp(media, timeline.Range{Start: 25, End: 75}, WithClock(func() time.Time { return now }))

	c.HandleEvent(Event{Type: EventSeeking})
	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 10})
	if len(media.seeks) != 0 {
		t.Fatalf("expected no correction while seeking, got %v", media.seeks)
	}

	c.HandleEvent(Event{Type: EventSeeked, CurrentTime: 10})
	now = now.Add(20 * time.Millisecond)
	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 10})
	if len(media.seeks) != 0 {
		t.Fatalf("expected trailing timeupdate to be absorbed, got %v", media.seeks)
	}

	now = now.Add(60 * time.Millisecond)
	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 10})
	if len(media.seeks) != 1 || media.seeks[0] != 30 {
		t.Fatalf("expected correction after settle window, got %v", media.seeks)
	}
}

func TestClampSeekInsideRangeClearsEndReached(t *testing.T) {
	media := &fakeMedia{duration: 120, playing: true}
	c := NewClamp(media, timeline.Range{Start: 25, End: 75})

	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 90})
	if !c.State().EndReached {
		t.Fatalf("expected endReached")
	}

	c.HandleEvent(Event{Type: EventSeeked, CurrentTime: 95})
	if !c.State().EndReached {
		t.Fatalf("expected endReached to stay set for a seek past the end")
	}

	c.HandleEvent(Event{Type: EventSeeked, CurrentTime: 50})
	if c.State().EndReached {
		t.Fatalf("expected endReached cleared by seek inside range")
	}
}

func TestClampRangeChangeInterruptsPlayback(t *testing.T) {
	media := &fakeMedia{duration: 120, playing: true}
	c := NewClamp(media, timeline.FullRange())
	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 119.95})
	media.playing = true
	media.calls = nil

	c.SetRange(timeline.Range{Start: 50, End: 60})

	if len(media.calls) != 2 || media.calls[0] != "pause" || media.calls[1] != "seek" {
		t.Fatalf("expected pause then seek, got %v", media.calls)
	}
	if media.seeks[len(media.seeks)-1] != 60 {
		t.Fatalf("expected seek to 60s, got %v", media.seeks)
	}
	st := c.State()
	if st.EndReached || st.Playing {
		t.Fatalf("expected cleared state after range change: %+v", st)
	}
}

func TestClampReplayFromStartAfterEnd(t *testing.T) {
	media := &fakeMedia{duration: 120, playing: true}
	c := NewClamp(media, timeline.Range{Start: 25, End: 75})
	c.HandleEvent(Event{Type: EventTimeUpdate, CurrentTime: 90})

	c.HandleEvent(Event{Type: EventPlay, CurrentTime: 90})
	if len(media.seeks) != 1 || media.seeks[0] != 30 {
		t.Fatalf("expected replay seek to start, got %v", media.seeks)
	}
	if c.State().EndReached {
		t.Fatalf("expected endReached cleared on replay")
	}
}

func TestClampWithVirtualPlayer(t *testing.T) {
	player := NewPlayer(120)
	c := NewClamp(player, timeline.FullRange())
	c.Attach()
	defer c.Detach()

	base := time.Unix(0, 0)
	player.Advance(base)

	c.SetRange(timeline.Range{Start: 25, End: 75})
	if player.CurrentTime() != 0 {
		t.Fatalf("seek must not complete synchronously")
	}
	player.Advance(base.Add(10 * time.Millisecond))
	if player.CurrentTime() != 30 {
		t.Fatalf("expected player at 30s after seeked, got %v", player.CurrentTime())
	}

	if err := player.Play(); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	player.Advance(base.Add(time.Second))
	player.Advance(base.Add(time.Second + 59950*time.Millisecond))

	if !c.State().EndReached {
		t.Fatalf("expected endReached, state=%+v", c.State())
	}
	player.Advance(base.Add(62 * time.Second))
	if !player.Paused() {
		t.Fatalf("expected player paused at range end")
	}
	if got := player.CurrentTime(); got > 90 {
		t.Fatalf("expected playback to stop near 90s, got %v", got)
	}
}
