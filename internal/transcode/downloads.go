package transcode

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrDownloadNotFound bilinmeyen veya iptal edilmiş bir referans istendiğinde döner.
var ErrDownloadNotFound = errors.New("indirme bulunamadı")

// DownloadRef indirilebilir bir çıktıya referanstır.
type DownloadRef struct {
	ID   string
	Name string
	Size int64
	URL  string
}

type download struct {
	ref  DownloadRef
	data []byte
}

// Downloads kırpılmış çıktıları bellekte tutar. Referanslar Revoke ile
// serbest bırakılana kadar geçerlidir.
type Downloads struct {
	mu      sync.RWMutex
	baseURL string
	items   map[string]download
}

// NewDownloads yeni bir depo oluşturur; baseURL referans adreslerinin önekidir.
func NewDownloads(baseURL string) *Downloads {
	return &Downloads{
		baseURL: strings.TrimRight(baseURL, "/"),
		items:   make(map[string]download),
	}
}

// SetBaseURL sonraki referanslar için adres önekini değiştirir. Sunucu
// adresi dinlemeye başladıktan sonra belli olduğunda kullanılır.
func (d *Downloads) SetBaseURL(baseURL string) {
	d.mu.Lock()
	d.baseURL = strings.TrimRight(baseURL, "/")
	d.mu.Unlock()
}

// Add veriyi depolar ve yeni bir referans döner.
func (d *Downloads) Add(name string, data []byte) DownloadRef {
	id := uuid.NewString()
	d.mu.Lock()
	ref := DownloadRef{
		ID:   id,
		Name: name,
		Size: int64(len(data)),
		URL:  d.baseURL + "/downloads/" + id,
	}
	d.items[id] = download{ref: ref, data: data}
	d.mu.Unlock()
	return ref
}

// Get referansın içeriğini döner.
func (d *Downloads) Get(id string) (DownloadRef, []byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	item, ok := d.items[id]
	if !ok {
		return DownloadRef{}, nil, ErrDownloadNotFound
	}
	return item.ref, item.data, nil
}

// Revoke referansı serbest bırakır. Bilinmeyen referanslar yok sayılır.
func (d *Downloads) Revoke(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[id]; !ok {
		return false
	}
	delete(d.items, id)
	return true
}

// RevokeAll tüm referansları serbest bırakır ve sayısını döner.
func (d *Downloads) RevokeAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	d.items = make(map[string]download)
	return n
}

func (d *Downloads) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// Save referansı dizine yazar. Aynı adlı dosya varsa _1, _2 ... eklenir.
func (d *Downloads) Save(id, dir string) (string, error) {
	ref, data, err := d.Get(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("çıktı dizini oluşturulamadı: %w", err)
	}
	target := nextFreePath(filepath.Join(dir, ref.Name))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("çıktı yazılamadı: %w", err)
	}
	return target, nil
}

// nextFreePath dosya yoksa yolu olduğu gibi, varsa sürümlü bir yol döner.
func nextFreePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// OutputName kaynak adından kırpma çıktısının adını türetir: clip.mp4 -> clip_trim.mp4
func OutputName(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && len(u.Scheme) > 1 {
		p = u.Path
	}
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." || stem == "/" {
		stem = "clip"
	}
	if ext == "" {
		ext = ".mp4"
	}
	return stem + "_trim" + ext
}
