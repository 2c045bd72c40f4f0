package schedule

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var ErrMalformedTable = errors.New("malformed substitution table")

// Entry is one substitution row as plain texts, leading group cell included.
type Entry []string

// Schedule holds the substitution entries of one weekday, keyed by group.
// It is built once per poll cycle and not modified afterwards.
type Schedule struct {
	Weekday Weekday            `json:"weekday"`
	Groups  map[string][]Entry `json:"groups"`
}

var headerLabels = []string{"klasse", "klasse(n)", "klassen", "class"}

// Build turns extracted tables into a Schedule.
//
// The leading cell of a row names its group; several groups may be listed
// separated by commas and the row is recorded under each of them. A row with
// an empty leading cell continues the previous row's groups within the same
// table. Blank rows and header rows are skipped.
func Build(weekday Weekday, tables []Table) (*Schedule, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: document contains no tables", ErrMalformedTable)
	}

	s := &Schedule{Weekday: weekday, Groups: make(map[string][]Entry)}
	for ti, table := range tables {
		if len(table) == 0 {
			return nil, fmt.Errorf("%w: table %d has no rows", ErrMalformedTable, ti)
		}

		var current []string
		for ri, row := range table {
			if len(row) == 0 {
				return nil, fmt.Errorf("%w: table %d row %d has no cells", ErrMalformedTable, ti, ri)
			}

			entry := normalize(row.Texts())
			if isBlank(entry) || isHeader(entry) {
				continue
			}

			if entry[0] != "" {
				current = splitGroups(entry[0])
			}
			for _, group := range current {
				s.Groups[group] = append(s.Groups[group], entry)
			}
		}
	}

	return s, nil
}

// Entries returns the entries recorded for group. The boolean is false when
// the group has no substitutions in this schedule, which is not an error.
func (s *Schedule) Entries(group string) ([]Entry, bool) {
	if s == nil {
		return nil, false
	}
	entries, ok := s.Groups[group]
	return entries, ok
}

// GroupNames returns all groups present, sorted.
func (s *Schedule) GroupNames() []string {
	names := make([]string, 0, len(s.Groups))
	for name := range s.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EqualEntries compares two entry sequences element-wise.
func EqualEntries(a, b []Entry) bool {
	return slices.EqualFunc(a, b, func(x, y Entry) bool {
		return slices.Equal(x, y)
	})
}

func normalize(texts []string) Entry {
	entry := make(Entry, len(texts))
	for i, t := range texts {
		entry[i] = strings.Join(strings.Fields(t), " ")
	}
	return entry
}

func isBlank(entry Entry) bool {
	for _, t := range entry {
		if t != "" {
			return false
		}
	}
	return true
}

func isHeader(entry Entry) bool {
	return slices.Contains(headerLabels, strings.ToLower(entry[0]))
}

func splitGroups(cell string) []string {
	var groups []string
	for _, part := range strings.Split(cell, ",") {
		if part = strings.TrimSpace(part); part != "" {
			groups = append(groups, part)
		}
	}
	return groups
}
