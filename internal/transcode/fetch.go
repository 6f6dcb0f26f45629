package transcode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Fetcher kaynak adresinden medya baytlarını getirir.
type Fetcher func(ctx context.Context, source string) ([]byte, error)

// FetchSource http(s) adreslerini GET ile, file:// veya düz yolları diskten okur.
// İmzalı adresler olduğu gibi kullanılır.
func FetchSource(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return fetchHTTP(ctx, source)
		case "file":
			return os.ReadFile(u.Path)
		}
	}
	return os.ReadFile(source)
}

func fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kaynak indirilemedi: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kaynak indirilemedi: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
