package timeline

import "sync"

// ========================================
// Sürükleme Durum Makinesi
// ========================================

// PointerKind işaretçi olay türleri.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent ekran koordinatında bir işaretçi olayıdır.
type PointerEvent struct {
	Kind PointerKind
	X    float64
}

// CursorStyle sürükleme sırasında gösterilen imleç biçimi.
type CursorStyle int

const (
	CursorDefault CursorStyle = iota
	CursorResize
)

// Cursor imleç görünümünü değiştirebilen yüzeydir.
type Cursor interface {
	SetCursor(CursorStyle)
}

// PointerSource sürükleme boyunca global işaretçi dinleyicisi kaydeder.
// Dönen fonksiyon dinleyiciyi kaldırır.
type PointerSource interface {
	Listen(func(PointerEvent)) func()
}

// Geometry zaman çizelgesinin ekrandaki yatay konumu.
type Geometry struct {
	Left  float64
	Width float64
}

// Percent ekran X koordinatını [0,100] yüzdesine çevirir.
func (g Geometry) Percent(x float64) float64 {
	if g.Width <= 0 {
		return 0
	}
	return Clamp((x-g.Left)/g.Width*100, 0, 100)
}

// X yüzdeyi ekran koordinatına çevirir.
func (g Geometry) X(p float64) float64 {
	return g.Left + Clamp(p, 0, 100)/100*g.Width
}

// DragSession yalnızca tutamaca basılıp bırakılana kadar yaşar.
type DragSession struct {
	Active  Handle
	OriginX float64
}

// DragController işaretçi olaylarından aralık güncellemeleri üretir.
// Idle --(down)--> Dragging(h) --(move)--> Dragging(h) --(up)--> Idle
type DragController struct {
	mu      sync.Mutex
	model   *Model
	source  PointerSource
	cursor  Cursor
	geom    Geometry
	session DragSession
	stop    func()
}

// NewDragController yeni bir controller oluşturur. cursor nil olabilir.
func NewDragController(model *Model, source PointerSource, cursor Cursor, geom Geometry) *DragController {
	return &DragController{
		model:  model,
		source: source,
		cursor: cursor,
		geom:   geom,
	}
}

// SetGeometry pencere boyutu değiştiğinde zaman çizelgesi konumunu günceller.
func (d *DragController) SetGeometry(g Geometry) {
	d.mu.Lock()
	d.geom = g
	d.mu.Unlock()
}

func (d *DragController) Geometry() Geometry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.geom
}

// Session aktif sürükleme oturumunu döner; boştaysa Active == HandleNone.
func (d *DragController) Session() DragSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

func (d *DragController) Dragging() bool {
	return d.Session().Active != HandleNone
}

// HandleAt x koordinatına tolerance içinde en yakın tutamacı döner.
func (d *DragController) HandleAt(x, tolerance float64) Handle {
	d.mu.Lock()
	geom := d.geom
	d.mu.Unlock()

	r := d.model.Range()
	startDist := absFloat(x - geom.X(r.Start))
	endDist := absFloat(x - geom.X(r.End))
	switch {
	case startDist > tolerance && endDist > tolerance:
		return HandleNone
	case startDist < endDist:
		return HandleStart
	case endDist < startDist:
		return HandleEnd
	case x < geom.X(r.Start):
		return HandleStart
	default:
		// Tutamaçlar üst üste: sağa doğru bitiş tutamacı tutulur.
		return HandleEnd
	}
}

// Press h tutamacına basıldığında sürüklemeyi başlatır.
// Zaten sürükleniyorsa veya h geçersizse false döner.
func (d *DragController) Press(h Handle, x float64) bool {
	if h != HandleStart && h != HandleEnd {
		return false
	}

	d.mu.Lock()
	if d.session.Active != HandleNone {
		d.mu.Unlock()
		return false
	}
	d.session = DragSession{Active: h, OriginX: x}
	d.mu.Unlock()

	// Dinleyici kilit dışında kaydedilir: kaynak olayları eşzamanlı iletebilir.
	var stop func()
	if d.source != nil {
		stop = d.source.Listen(d.onPointer)
	}
	d.mu.Lock()
	d.stop = stop
	d.mu.Unlock()

	if d.cursor != nil {
		d.cursor.SetCursor(CursorResize)
	}
	return true
}

// Move aktif tutamacı x konumuna taşır.
func (d *DragController) Move(x float64) (Range, bool) {
	d.mu.Lock()
	active := d.session.Active
	geom := d.geom
	d.mu.Unlock()

	if active == HandleNone {
		return d.model.Range(), false
	}
	return d.model.MoveHandle(active, geom.Percent(x)), true
}

// Release sürüklemeyi bitirir ve global dinleyiciyi koşulsuz kaldırır.
func (d *DragController) Release() {
	d.mu.Lock()
	wasActive := d.session.Active != HandleNone
	d.session = DragSession{}
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()

	if stop != nil {
		stop()
	}
	if wasActive && d.cursor != nil {
		d.cursor.SetCursor(CursorDefault)
	}
}

// Close ekran kapanırken çağrılır; yarım kalan sürüklemeyi temizler.
func (d *DragController) Close() {
	d.Release()
}

func (d *DragController) onPointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerMove:
		d.Move(ev.X)
	case PointerUp:
		d.Release()
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ========================================
// Basit olay yayıncısı
// ========================================

// PointerBus PointerSource'un eşzamanlı bir uygulamasıdır. Dispatch sırasında
// dinleyici eklenip çıkarılabilir.
type PointerBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(PointerEvent)
	order     []int
}

func NewPointerBus() *PointerBus {
	return &PointerBus{listeners: make(map[int]func(PointerEvent))}
}

func (b *PointerBus) Listen(fn func(PointerEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch olayı kayıtlı dinleyicilere iletir.
func (b *PointerBus) Dispatch(ev PointerEvent) {
	b.mu.Lock()
	fns := make([]func(PointerEvent), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len kayıtlı dinleyici sayısı.
func (b *PointerBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
