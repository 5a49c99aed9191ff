package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Ordered sequences are packed into delimited TEXT columns. The packing
// is private to this package; callers always see typed slices.
const listSep = ","

func packIDs(ids []string) string {
	return strings.Join(ids, listSep)
}

func unpackIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

func packResults(results []bool) string {
	parts := make([]string, len(results))
	for i, r := range results {
		if r {
			parts[i] = "1"
		} else {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, listSep)
}

func unpackResults(s string) ([]bool, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSep)
	results := make([]bool, len(parts))
	for i, p := range parts {
		switch p {
		case "1":
			results[i] = true
		case "0":
			results[i] = false
		default:
			return nil, fmt.Errorf("invalid result token %q at position %d", p, i)
		}
	}
	return results, nil
}

// ValidID reports whether id can be stored inside a packed sequence.
func ValidID(id string) bool {
	return id != "" && !strings.Contains(id, listSep)
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
