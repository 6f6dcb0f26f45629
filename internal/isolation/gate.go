package isolation

import (
	"net/http"
	"sync/atomic"
)

// HeaderGate kayıtlı olduğu sürece yanıtlara cross-origin izolasyon
// başlıklarını ekleyen http ara katmanıdır.
type HeaderGate struct {
	registered atomic.Bool
}

func NewHeaderGate() *HeaderGate { return &HeaderGate{} }

func (g *HeaderGate) Register() error {
	g.registered.Store(true)
	return nil
}

func (g *HeaderGate) Unregister() error {
	g.registered.Store(false)
	return nil
}

func (g *HeaderGate) Registered() bool { return g.registered.Load() }

// Middleware başlıkları işleyiciden önce ayarlar.
func (g *HeaderGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.registered.Load() {
			h := w.Header()
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Embedder-Policy", "require-corp")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
		}
		next.ServeHTTP(w, r)
	})
}
