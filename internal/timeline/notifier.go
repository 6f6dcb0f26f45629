package timeline

import (
	"sync"
	"time"
)

// DefaultDebounce aralık bildirimleri için varsayılan sessizlik süresi.
const DefaultDebounce = 100 * time.Millisecond

// Observer aralık değişikliklerini dinleyen fonksiyondur.
type Observer func(Range)

// Notifier aralık değişikliklerini debounce ederek gözlemcilere iletir.
// Son bildirilen aralıkla bit düzeyinde aynı olan değişiklikler yutulur.
type Notifier struct {
	mu         sync.Mutex
	delay      time.Duration
	timer      *time.Timer
	pending    Range
	hasPending bool
	last       Range
	hasLast    bool
	stopped    bool

	nextID    int
	observers []observerEntry
}

type observerEntry struct {
	id int
	fn Observer
}

// NewNotifier yeni bir Notifier oluşturur. delay <= 0 ise DefaultDebounce kullanılır.
func NewNotifier(delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Notifier{delay: delay}
}

// Subscribe gözlemci ekler; dönen fonksiyon aboneliği kaldırır.
func (n *Notifier) Subscribe(fn Observer) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.observers = append(n.observers, observerEntry{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, o := range n.observers {
			if o.id == id {
				n.observers = append(n.observers[:i], n.observers[i+1:]...)
				return
			}
		}
	}
}

// Publish yeni aralığı bekleyen bildirim olarak kaydeder ve zamanlayıcıyı yeniden kurar.
func (n *Notifier) Publish(r Range) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.pending = r
	n.hasPending = true
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.delay, func() { n.fire() })
}

// Flush bekleyen bildirimi beklemeden hemen gönderir. Bildirim yapıldıysa true döner.
func (n *Notifier) Flush() bool {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()
	return n.fire()
}

// Stop bekleyen bildirimi iptal eder; sonraki Publish çağrıları yok sayılır.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	n.hasPending = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) fire() bool {
	n.mu.Lock()
	if !n.hasPending || n.stopped {
		n.mu.Unlock()
		return false
	}
	r := n.pending
	n.hasPending = false
	if n.hasLast && n.last.Identical(r) {
		n.mu.Unlock()
		return false
	}
	n.last = r
	n.hasLast = true
	observers := make([]Observer, 0, len(n.observers))
	for _, o := range n.observers {
		observers = append(observers, o.fn)
	}
	n.mu.Unlock()

	for _, fn := range observers {
		fn(r)
	}
	return true
}
