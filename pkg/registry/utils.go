package registry

import (
	"fmt"
	"strconv"
	"time"
)

// versionLayout renders the second-resolution part of a version id; the
// nanoseconds follow as a fixed-width suffix so ids sort lexicographically.
const versionLayout = "v_20060102_150405"

// FormatVersionID derives a version id from a creation timestamp.
func FormatVersionID(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s_%09d", t.Format(versionLayout), t.Nanosecond())
}

// ParseVersionID reads the timestamp encoded in a version id as UTC. Legacy
// ids without the nanosecond suffix are accepted.
func ParseVersionID(id string) (time.Time, error) {
	n := len(versionLayout)
	if len(id) < n {
		return time.Time{}, fmt.Errorf("invalid version id %q", id)
	}
	t, err := time.ParseInLocation(versionLayout, id[:n], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid version id %q: %w", id, err)
	}

	switch rest := id[n:]; {
	case rest == "":
		return t, nil
	case len(rest) == 10 && rest[0] == '_':
		nanos, err := strconv.Atoi(rest[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid version id %q: %w", id, err)
		}
		return t.Add(time.Duration(nanos)), nil
	default:
		return time.Time{}, fmt.Errorf("invalid version id %q", id)
	}
}

// NextVersion allocates the id and creation time for a new record. The
// timestamp is clamped strictly after both the last record's created_at and
// the time encoded in its id, so ids keep sorting upwards when the wall clock
// steps backwards or a migrated index carries ids written in local time.
func NextVersion(now time.Time, idx *Index) (string, time.Time, error) {
	created := now.UTC()
	last, ok := idx.Last()
	if ok {
		floor := last.CreatedAt.UTC()
		if encoded, err := ParseVersionID(last.VersionID); err == nil && encoded.After(floor) {
			floor = encoded
		}
		if !created.After(floor) {
			created = floor.Add(time.Nanosecond)
		}
	}

	id := FormatVersionID(created)
	if _, exists := idx.Find(id); exists {
		return "", time.Time{}, fmt.Errorf("%w: %s already registered", ErrVersionCollision, id)
	}
	if ok && id <= last.VersionID {
		return "", time.Time{}, fmt.Errorf("%w: %s does not sort after %s", ErrVersionCollision, id, last.VersionID)
	}
	return id, created, nil
}

// TruncateDigest shortens a hex digest for display.
func TruncateDigest(digest string, length int) string {
	if len(digest) <= length {
		return digest
	}
	return digest[:length]
}

// VersionIDs extracts the ids of records in order.
func VersionIDs(records []VersionRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.VersionID
	}
	return ids
}
