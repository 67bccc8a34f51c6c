package catalog

import (
	"fmt"

	"github.com/goccy/go-json"
)

// namedEntry is the shape shared by the genres, keywords, cast and
// production_companies columns: a JSON array of objects with a "name" key.
type namedEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// crewEntry is one element of the crew column.
type crewEntry struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// parseNames extracts the name of every entry from a string-encoded JSON list.
func parseNames(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var entries []namedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parsing name list: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// parseCast extracts at most limit cast names in billing order.
func parseCast(raw string, limit int) ([]string, error) {
	names, err := parseNames(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing cast: %w", err)
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// parseDirector scans crew entries in order and returns the name of the first
// whose job is exactly "Director". A movie with no such entry has no director;
// co-directors beyond the first are dropped.
func parseDirector(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	var entries []crewEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return "", fmt.Errorf("parsing crew: %w", err)
	}
	for _, e := range entries {
		if e.Job == "Director" {
			return e.Name, nil
		}
	}
	return "", nil
}
