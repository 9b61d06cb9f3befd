package api

import "sort"

// String returns field key as display text
func (r Row) String(key string) string {
	return scalarString(r[key])
}

// Columns returns the field names found in rows: the preferred ones that
// are present first, in the given order, then the rest alphabetically.
func Columns(rows []Row, preferred ...string) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			present[key] = true
		}
	}

	columns := make([]string, 0, len(present))
	for _, key := range preferred {
		if present[key] {
			columns = append(columns, key)
			delete(present, key)
		}
	}

	rest := make([]string, 0, len(present))
	for key := range present {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}
