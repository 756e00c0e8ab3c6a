package feed

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// uidNamespace suffixes every UID so the identifiers are globally unique
// per iCalendar conventions.
const uidNamespace = "@pronote-ics"

// uidTimeLayout is an ISO-8601 timestamp including the numeric offset,
// e.g. "2024-03-04T08:00:00+01:00".
const uidTimeLayout = "2006-01-02T15:04:05-07:00"

// EventUID derives a stable identifier for a lesson occurrence. Pronote
// assigns no persistent lesson IDs, so the UID is a SHA-1 digest over the
// start instant and the display fields. The same occurrence therefore
// hashes to the same UID on every fetch, letting calendar clients apply a
// cancellation as an edit to the existing event instead of a duplicate.
//
// The canceled flag is intentionally not part of the input. Known
// limitation: a rescheduled lesson (different start, room or teacher) gets
// a new UID and the old event is orphaned.
func EventUID(start time.Time, title, room, teacher string) string {
	base := strings.Join([]string{start.Format(uidTimeLayout), title, room, teacher}, "|")
	sum := sha1.Sum([]byte(base))
	return hex.EncodeToString(sum[:]) + uidNamespace
}
