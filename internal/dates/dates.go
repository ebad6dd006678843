// Package dates normalizes the closing-date encodings found in concorso
// documents. The ingestion pipeline has historically written dates as ISO
// strings, as Italian day-first strings, as epoch seconds, and as timestamp
// objects of the form {"seconds": N}. TryParse accepts all of them and
// reports failure instead of returning an error, since an unparsable date
// only means "no notification possible".
package dates

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

type timestampObject struct {
	Seconds *int64 `json:"seconds"`
}

// TryParse resolves a raw closing-date value to a time, reporting ok=false
// when the value is empty or matches no known encoding.
func TryParse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if strings.HasPrefix(raw, "{") {
		var obj timestampObject
		if err := json.Unmarshal([]byte(raw), &obj); err == nil && obj.Seconds != nil {
			return time.Unix(*obj.Seconds, 0).UTC(), true
		}
		return time.Time{}, false
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), true
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Midnight rebuilds the time's calendar date at midnight UTC. Dropping the
// original location matters: closing dates parse in UTC while "today" comes
// from the host clock, and differencing midnights across zones would leak
// the zone offset into the day count.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
