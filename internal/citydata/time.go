package citydata

import (
	"fmt"
	"strings"
	"time"
)

// Time wraps time.Time with a tolerant JSON decoder. The backend emits naive
// UTC timestamps ("2025-08-29T16:30:00.123456") for stored documents and
// RFC3339 elsewhere, so plain time.Time unmarshaling would reject half the
// responses.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON decodes a quoted timestamp, treating offset-less values as UTC.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

// MarshalJSON encodes the timestamp as RFC3339.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}
