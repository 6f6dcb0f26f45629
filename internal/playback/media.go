// Package playback ekrandaki oynatıcıyı seçili kırpma aralığı içinde tutar.
package playback

// EventType medya öğesinin yaydığı olay türleri.
type EventType int

const (
	EventLoadedMetadata EventType = iota
	EventTimeUpdate
	EventSeeking
	EventSeeked
	EventPlay
	EventPause
)

func (e EventType) String() string {
	switch e {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventSeeking:
		return "seeking"
	case EventSeeked:
		return "seeked"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	default:
		return "unknown"
	}
}

// Event medya öğesinden gelen tek bir olaydır.
type Event struct {
	Type        EventType
	CurrentTime float64
}

// Media oynatıcı arayüzüdür. Seek asenkron tamamlanır: tamamlanma
// EventSeeked ile bildirilir, Seek dönerken tamamlanmış sayılmamalıdır.
type Media interface {
	CurrentTime() float64
	Duration() float64
	Paused() bool
	Play() error
	Pause()
	Seek(seconds float64)
	Subscribe(func(Event)) (unsubscribe func())
}

// State ekranda gösterilen oynatma durumudur.
type State struct {
	CurrentTime float64
	Duration    float64
	Progress    float64
	Playing     bool
	EndReached  bool
}
