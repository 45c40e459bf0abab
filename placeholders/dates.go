package placeholders

import (
	"fmt"
	"strings"
	"time"

	"github.com/hablullah/go-hijri"
)

var malayMonths = [12]string{
	"Januari", "Februari", "Mac", "April", "Mei", "Jun",
	"Julai", "Ogos", "September", "Oktober", "November", "Disember",
}

var hijriMonths = [12]string{
	"Muharam", "Safar", "Rabiul Awal", "Rabiul Akhir", "Jamadil Awal", "Jamadil Akhir",
	"Rejab", "Syaaban", "Ramadhan", "Syawal", "Zulkaedah", "Zulhijjah",
}

// FormatNumeric - Gregorian DD/MM/YYYY.
//
//	2025-01-02 → "02/01/2025"
func FormatNumeric(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatMalay - Malay long form.
//
//	2025-03-07 → "07 Mac 2025"
func FormatMalay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), malayMonths[t.Month()-1], t.Year())
}

// FormatHijri - Hijri long form on the Umm al-Qura calendar. Empty for the
// zero time and for days outside the calendar's 1937-2077 table.
//
//	2024-01-01 → "19 Jamadil Akhir 1445H"
func FormatHijri(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	y, m, d, err := HijriDate(t)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d %s %dH", d, hijriMonths[m-1], y)
}

// HijriDate - the Umm al-Qura date for the calendar day of t, read in t's
// own location.
func HijriDate(t time.Time) (year, month, day int, err error) {
	y, m, d := t.Date()
	h, err := hijri.CreateUmmAlQuraDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("hijri date %s: %w", t.Format("2006-01-02"), err)
	}
	return int(h.Year), int(h.Month), int(h.Day), nil
}

// ParseDate - read a form date. DD/MM/YYYY is tried first, then the other
// layouts seen in saved drafts and API payloads.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	tryFormats := []string{
		"02/01/2006",          // 14/10/2025
		"2/1/2006",            // 4/3/2025
		"2006-01-02",          // 2025-10-14
		time.RFC3339,          // 2025-10-14T22:15:00Z
		"02.01.2006",          // 14.10.2025
		"02-01-2006",          // 14-10-2025
		"2006-01-02 15:04:05", // 2025-10-14 22:15:00
	}
	for _, f := range tryFormats {
		if parsed, err := time.Parse(f, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
