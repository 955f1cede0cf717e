package dbtime

import (
	"strings"
	"time"
	_ "time/tzdata" // LoadLocation tetap jalan di image tanpa zoneinfo
)

const DateLayout = "2006-01-02"

// ParseDate: "YYYY-MM-DD" → tengah malam UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOnly membuang jam & zona, supaya kolom DATE bisa dibandingkan apa adanya.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDate(a, b time.Time) bool { return DateOnly(a).Equal(DateOnly(b)) }

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// SchoolLocation: timezone sekolah, fallback Asia/Jakarta lalu UTC.
func SchoolLocation(name string) *time.Location {
	if name = strings.TrimSpace(name); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		return loc
	}
	return time.UTC
}

// TodayIn: tanggal hari ini (DATE) menurut timezone sekolah.
func TodayIn(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
