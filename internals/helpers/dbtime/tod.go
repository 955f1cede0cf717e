package dbtime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tod = time-of-day untuk kolom Postgres TIME.
type Tod struct{ time.Time }

// ParseTod: "HH:MM" atau "HH:MM:SS"
func ParseTod(s string) (Tod, error) {
	var t Tod
	return t, t.parse(s)
}

// MustTod dipakai di seed/test.
func MustTod(s string) Tod {
	t, err := ParseTod(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Scan: terima time.Time atau string ("HH:MM[:SS]")
func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		t.Time = time.Date(0, 1, 1, x.Hour(), x.Minute(), x.Second(), 0, time.UTC)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 {
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("tod: invalid time %q (pakai HH:MM)", s)
	}
	t.Time = time.Date(0, 1, 1, tt.Hour(), tt.Minute(), tt.Second(), 0, time.UTC)
	return nil
}

// Value: kirim "HH:MM:SS" agar Postgres TIME paham
func (t Tod) Value() (driver.Value, error) {
	return t.Format("15:04:05"), nil
}

// String: "HH:MM"
func (t Tod) String() string { return t.Format("15:04") }

func (t Tod) Minutes() int { return t.Hour()*60 + t.Minute() }

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
