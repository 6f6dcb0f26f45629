package timeline

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestPercentSecondsRoundTrip(t *testing.T) {
	durations := []float64{0.5, 1, 12.34, 120, 3600.5}
	for _, d := range durations {
		for p := 0.0; p <= 100; p += 2.5 {
			got := SecondsToPercent(PercentToSeconds(p, d), d)
			if math.Abs(got-p) > 1e-9 {
				t.Fatalf("round trip mismatch d=%v p=%v got=%v", d, p, got)
			}
		}
	}
}

func TestConversionsAreTotal(t *testing.T) {
	if got := PercentToSeconds(50, 0); got != 0 {
		t.Fatalf("expected 0 for zero duration, got %v", got)
	}
	if got := SecondsToPercent(10, -5); got != 0 {
		t.Fatalf("expected 0 for negative duration, got %v", got)
	}
	if got := SecondsToPercent(500, 100); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
	if got := SecondsToPercent(-3, 100); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestFormatDisplay(t *testing.T) {
	cases := map[float64]string{
		0:      "00:00",
		-4:     "00:00",
		59.9:   "00:59",
		90:     "01:30",
		3725.2: "62:05",
	}
	for in, want := range cases {
		if got := FormatDisplay(in); got != want {
			t.Fatalf("FormatDisplay(%v) = %s, want %s", in, got, want)
		}
	}
	if got := FormatDisplay(math.NaN()); got != "00:00" {
		t.Fatalf("expected zero display for NaN, got %s", got)
	}
}

func TestFormatTranscodeTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:        "00:00:00.000",
		30:       "00:00:30.000",
		90.5:     "00:01:30.500",
		3723.004: "01:02:03.004",
		-1:       "00:00:00.000",
	}
	for in, want := range cases {
		if got := FormatTranscodeTimestamp(in); got != want {
			t.Fatalf("FormatTranscodeTimestamp(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestRangeSecondsBoundary(t *testing.T) {
	start, end := Range{Start: 25, End: 75}.Seconds(120)
	if start != 30 || end != 90 {
		t.Fatalf("unexpected seconds: %v -> %v", start, end)
	}
}

func TestParseClock(t *testing.T) {
	sec, err := ParseClock("01:02:03")
	if err != nil || sec != 3723 {
		t.Fatalf("unexpected hh:mm:ss result: %v %v", sec, err)
	}
	sec, err = ParseClock("5,5")
	if err != nil || sec != 5.5 {
		t.Fatalf("unexpected comma decimal result: %v %v", sec, err)
	}
	if _, err := ParseClock("00:70"); err == nil {
		t.Fatalf("expected error for invalid seconds part")
	}
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("25%", 0)
	if err != nil || p != 25 {
		t.Fatalf("unexpected percent result: %v %v", p, err)
	}
	p, err = ParsePosition("00:01:30", 120)
	if err != nil || p != 75 {
		t.Fatalf("unexpected clock result: %v %v", p, err)
	}
	if _, err := ParsePosition("30", 0); err == nil {
		t.Fatalf("expected error without duration")
	}
	if _, err := ParsePosition("%120", 10); err == nil {
		t.Fatalf("expected error for percent > 100")
	}
}

func newTestController(t *testing.T) (*Model, *DragController, *PointerBus, *recordingCursor) {
	t.Helper()
	n := NewNotifier(time.Hour)
	t.Cleanup(n.Stop)
	model := NewModel(120, DefaultMinGap, n)
	bus := NewPointerBus()
	cursor := &recordingCursor{}
	ctrl := NewDragController(model, bus, cursor, Geometry{Left: 0, Width: 100})
	return model, ctrl, bus, cursor
}

type recordingCursor struct {
	mu     sync.Mutex
	styles []CursorStyle
}

func (c *recordingCursor) SetCursor(s CursorStyle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.styles = append(c.styles, s)
}

func TestDragStartClampsAgainstEnd(t *testing.T) {
	model, ctrl, bus, _ := newTestController(t)
	model.MoveHandle(HandleEnd, 75)

	if !ctrl.Press(HandleStart, 0) {
		t.Fatalf("expected press to start dragging")
	}
	bus.Dispatch(PointerEvent{Kind: PointerMove, X: 80})
	bus.Dispatch(PointerEvent{Kind: PointerUp, X: 80})

	r := model.Range()
	if r.Start != 74 || r.End != 75 {
		t.Fatalf("expected [74,75], got %v", r)
	}
	if ctrl.Dragging() {
		t.Fatalf("expected idle after release")
	}
	if !model.Custom() {
		t.Fatalf("expected range to be marked custom")
	}
}

func TestDragEndClampsAgainstStart(t *testing.T) {
	model, ctrl, bus, _ := newTestController(t)
	model.MoveHandle(HandleStart, 40)

	ctrl.Press(HandleEnd, 100)
	bus.Dispatch(PointerEvent{Kind: PointerMove, X: 10})
	bus.Dispatch(PointerEvent{Kind: PointerMove, X: 150})
	if got := model.Range().End; got != 100 {
		t.Fatalf("expected end clamped to 100, got %v", got)
	}
	bus.Dispatch(PointerEvent{Kind: PointerMove, X: 10})
	if got := model.Range().End; got != 41 {
		t.Fatalf("expected end clamped to 41, got %v", got)
	}
	bus.Dispatch(PointerEvent{Kind: PointerUp})
}

func TestDragInvariantHoldsForRandomSequences(t *testing.T) {
	model, ctrl, bus, _ := newTestController(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		h := HandleStart
		if rng.Intn(2) == 1 {
			h = HandleEnd
		}
		ctrl.Press(h, rng.Float64()*100)
		for j := 0; j < 5; j++ {
			bus.Dispatch(PointerEvent{Kind: PointerMove, X: rng.Float64()*140 - 20})
		}
		bus.Dispatch(PointerEvent{Kind: PointerUp})

		r := model.Range()
		if r.End-r.Start < DefaultMinGap || r.Start < 0 || r.End > 100 {
			t.Fatalf("invariant violated after drag %d: %v", i, r)
		}
	}
}

func TestDragEndToZeroKeepsMinimumGap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := NewNotifier(time.Hour)
	defer n.Stop()
	model := NewModel(120, DefaultMinGap, n)
	for i := 0; i < 10000; i++ {
		model.MoveHandle(HandleStart, rng.Float64()*100)
		model.MoveHandle(HandleEnd, 0)
		r := model.Range()
		if r.End-r.Start < DefaultMinGap || r.Start < 0 || r.End > 100 {
			t.Fatalf("gap shrank below minimum at step %d: %v (gap %v)", i, r, r.End-r.Start)
		}
	}
}

func TestReleaseTearsDownListenerAndCursor(t *testing.T) {
	_, ctrl, bus, cursor := newTestController(t)

	ctrl.Press(HandleStart, 0)
	if bus.Len() != 1 {
		t.Fatalf("expected one global listener while dragging, got %d", bus.Len())
	}
	if ctrl.Press(HandleEnd, 100) {
		t.Fatalf("expected second press to be ignored while dragging")
	}
	bus.Dispatch(PointerEvent{Kind: PointerUp})
	if bus.Len() != 0 {
		t.Fatalf("expected listener removed after release, got %d", bus.Len())
	}

	cursor.mu.Lock()
	defer cursor.mu.Unlock()
	if len(cursor.styles) != 2 || cursor.styles[0] != CursorResize || cursor.styles[1] != CursorDefault {
		t.Fatalf("unexpected cursor sequence: %v", cursor.styles)
	}
}

func TestCloseDuringDragRemovesListener(t *testing.T) {
	model, ctrl, bus, _ := newTestController(t)

	ctrl.Press(HandleEnd, 100)
	ctrl.Close()
	if bus.Len() != 0 {
		t.Fatalf("expected listener removed on close")
	}
	bus.Dispatch(PointerEvent{Kind: PointerMove, X: 10})
	if model.Range().End != 100 {
		t.Fatalf("expected no updates after close, got %v", model.Range())
	}
}

func TestHandleAt(t *testing.T) {
	model, ctrl, _, _ := newTestController(t)
	model.MoveHandle(HandleStart, 20)
	model.MoveHandle(HandleEnd, 60)

	if h := ctrl.HandleAt(21, 2); h != HandleStart {
		t.Fatalf("expected start handle, got %v", h)
	}
	if h := ctrl.HandleAt(59, 2); h != HandleEnd {
		t.Fatalf("expected end handle, got %v", h)
	}
	if h := ctrl.HandleAt(40, 2); h != HandleNone {
		t.Fatalf("expected no handle, got %v", h)
	}
}

func TestNotifierDebouncesBurst(t *testing.T) {
	n := NewNotifier(20 * time.Millisecond)
	defer n.Stop()

	got := make(chan Range, 10)
	n.Subscribe(func(r Range) { got <- r })

	for i := 0; i < 5; i++ {
		n.Publish(Range{Start: float64(i), End: 100})
	}

	select {
	case r := <-got:
		if r.Start != 4 {
			t.Fatalf("expected last published range, got %v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a debounced notification")
	}

	select {
	case r := <-got:
		t.Fatalf("expected a single notification, got extra %v", r)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestNotifierSuppressesIdenticalRange(t *testing.T) {
	n := NewNotifier(time.Hour)
	defer n.Stop()

	calls := 0
	unsubscribe := n.Subscribe(func(Range) { calls++ })

	n.Publish(Range{Start: 10, End: 90})
	if !n.Flush() {
		t.Fatalf("expected first flush to notify")
	}
	n.Publish(Range{Start: 10, End: 90})
	if n.Flush() {
		t.Fatalf("expected identical range to be suppressed")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	unsubscribe()
	n.Publish(Range{Start: 11, End: 90})
	n.Flush()
	if calls != 1 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}
