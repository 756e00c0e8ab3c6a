package feed

import (
	"strings"
	"time"
)

// Timestamp layouts accepted from the backend. Offset-aware values are
// converted into the target zone; naive values are taken as wall-clock time
// already in that zone and get the zone attached, never reinterpreted
// through UTC.
var (
	awareLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// NormalizeTime converts a raw backend timestamp into the target zone.
// Empty or unparseable input yields nil, which callers treat as "this
// lesson has no resolvable time" and skip the record.
func NormalizeTime(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			local := t.In(loc)
			return &local
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}

	return nil
}
