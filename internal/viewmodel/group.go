// Package viewmodel derives the render-ready segment matrix from a record set.
// Every function is pure; callers recompute on each snapshot.
package viewmodel

import (
	"sort"
	"strings"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// Group maps segment name -> part -> record, remembering the order in which
// names were first seen.
type Group struct {
	names  []string
	byName map[string]map[models.Part]models.SegmentRecord
}

// NewGroup builds the grouping in one pass. A repeated (name, part) keeps the
// later record.
func NewGroup(records []models.SegmentRecord) Group {
	g := Group{byName: make(map[string]map[models.Part]models.SegmentRecord)}
	for _, r := range records {
		parts, ok := g.byName[r.Name]
		if !ok {
			parts = make(map[models.Part]models.SegmentRecord)
			g.byName[r.Name] = parts
			g.names = append(g.names, r.Name)
		}
		parts[r.Part] = r
	}
	return g
}

// Names returns group names in encounter order.
func (g Group) Names() []string {
	return append([]string(nil), g.names...)
}

func (g Group) Len() int { return len(g.names) }

// Get returns the record of one cell.
func (g Group) Get(name string, part models.Part) (models.SegmentRecord, bool) {
	r, ok := g.byName[name][part]
	return r, ok
}

// Flatten turns the grouping back into a record list: names in encounter
// order, parts in column order.
func Flatten(g Group) []models.SegmentRecord {
	out := make([]models.SegmentRecord, 0, len(g.names)*len(models.AllParts()))
	for _, name := range g.names {
		parts := g.byName[name]
		keys := make([]models.Part, 0, len(parts))
		for p := range parts {
			keys = append(keys, p)
		}
		sort.Slice(keys, func(i, j int) bool {
			ii, jj := keys[i].Index(), keys[j].Index()
			if ii != jj {
				// unknown parts (-1) go last
				if ii < 0 {
					return false
				}
				if jj < 0 {
					return true
				}
				return ii < jj
			}
			return keys[i] < keys[j]
		})
		for _, p := range keys {
			out = append(out, parts[p])
		}
	}
	return out
}

// SortedGroupNames orders names by the number left after stripping every
// non-digit character. Names without digits count as 0. Ties keep encounter
// order.
func SortedGroupNames(g Group) []string {
	names := g.Names()
	keys := make(map[string]string, len(names))
	for _, n := range names {
		keys[n] = numericKey(n)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return lessNumeric(keys[names[i]], keys[names[j]])
	})
	return names
}

// Filter keeps names containing query, case-insensitively.
func Filter(names []string, query string) []string {
	if query == "" {
		return names
	}
	q := strings.ToLower(query)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			out = append(out, n)
		}
	}
	return out
}

// numericKey returns the digits of s without leading zeros. Comparing keys by
// length and then lexically compares the numbers without overflow.
func numericKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
