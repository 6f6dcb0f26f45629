package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock "90", "5,5", "01:30" veya "00:01:30" biçimindeki değeri saniyeye çevirir.
func ParseClock(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return 0, fmt.Errorf("boş değer")
	}

	if strings.Contains(normalized, ":") {
		parts := strings.Split(normalized, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return 0, fmt.Errorf("zaman formatı hatalı")
		}

		parsed := make([]float64, len(parts))
		for i, part := range parts {
			p := strings.TrimSpace(part)
			if p == "" {
				return 0, fmt.Errorf("zaman formatı hatalı")
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("zaman formatı hatalı")
			}
			parsed[i] = v
		}

		if len(parsed) == 2 {
			if parsed[1] >= 60 {
				return 0, fmt.Errorf("saniye 60'tan küçük olmalı")
			}
			return parsed[0]*60 + parsed[1], nil
		}

		if parsed[1] >= 60 || parsed[2] >= 60 {
			return 0, fmt.Errorf("dakika/saniye 60'tan küçük olmalı")
		}
		return parsed[0]*3600 + parsed[1]*60 + parsed[2], nil
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("geçersiz sayı")
	}
	return v, nil
}

// ParsePosition bir konumu yüzde olarak çözer.
// Desteklenen biçimler: "25%", "%25", "30" (saniye), "00:00:30".
// Saniye cinsinden değerler için duration sıfırdan büyük olmalıdır.
func ParsePosition(raw string, duration float64) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("konum boş olamaz")
	}

	if strings.HasPrefix(value, "%") || strings.HasSuffix(value, "%") {
		percentStr := strings.Trim(value, "%")
		percent, err := strconv.ParseFloat(strings.ReplaceAll(percentStr, ",", "."), 64)
		if err != nil || percent < 0 || percent > 100 {
			return 0, fmt.Errorf("geçersiz yüzde değeri: %s (0-100 arası olmalı)", raw)
		}
		return percent, nil
	}

	seconds, err := ParseClock(value)
	if err != nil {
		return 0, fmt.Errorf("geçersiz zaman değeri: %s", raw)
	}
	if !validDuration(duration) {
		return 0, fmt.Errorf("saniye cinsinden konum için video süresi gerekli")
	}
	if seconds > duration {
		return 0, fmt.Errorf("konum video süresini aşıyor (%.2fs)", duration)
	}
	return SecondsToPercent(seconds, duration), nil
}
