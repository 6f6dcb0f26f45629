package playback

import (
	"fmt"
	"sync"
	"time"
)

// Player terminal arayüzü için saat tabanlı sanal oynatıcıdır.
// Olaylar kuyruğa alınır ve yalnızca Advance çağrısında yayılır; böylece
// Seek hiçbir zaman eşzamanlı tamamlanmaz.
type Player struct {
	mu       sync.Mutex
	duration float64
	current  float64
	playing  bool
	lastTick time.Time
	seekTo   float64
	seekReq  bool
	queue    []Event

	nextID    int
	order     []int
	listeners map[int]func(Event)
}

// NewPlayer verilen süreyle yeni bir oynatıcı oluşturur.
func NewPlayer(duration float64) *Player {
	p := &Player{listeners: make(map[int]func(Event))}
	p.Load(duration)
	return p
}

// Load yeni bir kaynak yükler; konum sıfırlanır ve loadedmetadata kuyruğa alınır.
func (p *Player) Load(duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if duration < 0 {
		duration = 0
	}
	p.duration = duration
	p.current = 0
	p.playing = false
	p.seekReq = false
	p.lastTick = time.Time{}
	p.queue = append(p.queue, Event{Type: EventLoadedMetadata})
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing
}

// Seeking tamamlanmamış bir sarma isteği varsa true döner.
func (p *Player) Seeking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekReq
}

func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.duration <= 0 {
		return fmt.Errorf("oynatılacak medya yüklenmedi")
	}
	if p.playing {
		return nil
	}
	p.playing = true
	p.lastTick = time.Time{}
	p.queue = append(p.queue, Event{Type: EventPlay, CurrentTime: p.current})
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	p.queue = append(p.queue, Event{Type: EventPause, CurrentTime: p.current})
}

// Seek sarma isteğini kaydeder; seeked olayı sonraki Advance'te gelir.
func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if seconds > p.duration {
		seconds = p.duration
	}
	p.seekTo = seconds
	p.seekReq = true
	p.queue = append(p.queue, Event{Type: EventSeeking, CurrentTime: p.current})
}

func (p *Player) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	p.order = append(p.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners, id)
			for i, v := range p.order {
				if v == id {
					p.order = append(p.order[:i], p.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Advance oynatma saatini now anına ilerletir ve bekleyen olayları yayar.
func (p *Player) Advance(now time.Time) {
	p.mu.Lock()
	switch {
	case p.seekReq:
		p.current = p.seekTo
		p.seekReq = false
		p.queue = append(p.queue, Event{Type: EventSeeked, CurrentTime: p.current})
	case p.playing && !p.lastTick.IsZero():
		p.current += now.Sub(p.lastTick).Seconds()
		if p.current >= p.duration {
			p.current = p.duration
			p.playing = false
			p.queue = append(p.queue,
				Event{Type: EventTimeUpdate, CurrentTime: p.current},
				Event{Type: EventPause, CurrentTime: p.current},
			)
		} else {
			p.queue = append(p.queue, Event{Type: EventTimeUpdate, CurrentTime: p.current})
		}
	}
	p.lastTick = now

	events := p.queue
	p.queue = nil
	fns := make([]func(Event), 0, len(p.order))
	for _, id := range p.order {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
