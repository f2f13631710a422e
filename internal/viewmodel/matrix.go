package viewmodel

import (
	"math"
	"regexp"
	"time"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

var segmentPrefix = regexp.MustCompile(`(?i)Segment\s?`)

// Cell is one segment x part position of the matrix. Empty cells have no ID
// and carry the defaults an implicit create would use.
type Cell struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Part        models.Part   `json:"part"`
	Empty       bool          `json:"empty"`
	Status      models.Status `json:"status"`
	Label       string        `json:"label"`
	Tone        string        `json:"tone"`
	State       string        `json:"state"` // display category or "done"
	Progress    int           `json:"progress"`
	Remarks     string        `json:"remarks"`
	LastUpdated *time.Time    `json:"lastUpdated,omitempty"`
}

// Row is one segment with a cell per part in column order.
type Row struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// Matrix is the filtered, naturally sorted segment matrix.
type Matrix struct {
	Parts []models.Part `json:"parts"`
	Rows  []Row         `json:"rows"`
	Query string        `json:"query"`
	Total int           `json:"total"` // segments before filtering
}

// Stats are the dashboard tiles.
type Stats struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	Active      int `json:"active"`
	InProgress  int `json:"inProgress"`
	Suspended   int `json:"suspended"`
	AvgProgress int `json:"avgProgress"`
}

// BuildMatrix groups, sorts and filters records into matrix rows.
func BuildMatrix(records []models.SegmentRecord, query string) Matrix {
	g := NewGroup(records)
	names := Filter(SortedGroupNames(g), query)
	parts := models.AllParts()

	m := Matrix{
		Parts: parts,
		Rows:  make([]Row, 0, len(names)),
		Query: query,
		Total: g.Len(),
	}
	for _, name := range names {
		row := Row{Name: name, Label: RowLabel(name), Cells: make([]Cell, 0, len(parts))}
		for _, p := range parts {
			if r, ok := g.Get(name, p); ok {
				row.Cells = append(row.Cells, cellOf(r))
			} else {
				row.Cells = append(row.Cells, emptyCell(name, p))
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// RowLabel drops the first "Segment" prefix, so "Segment 33" shows as "33".
func RowLabel(name string) string {
	loc := segmentPrefix.FindStringIndex(name)
	if loc == nil {
		return name
	}
	return name[:loc[0]] + name[loc[1]:]
}

func cellOf(r models.SegmentRecord) Cell {
	updated := r.LastUpdated
	return Cell{
		ID:          r.ID,
		Name:        r.Name,
		Part:        r.Part,
		Status:      r.Status,
		Label:       r.Status.Label(),
		Tone:        r.Status.Tone(),
		State:       r.DisplayState(),
		Progress:    r.Progress,
		Remarks:     r.Remarks,
		LastUpdated: &updated,
	}
}

func emptyCell(name string, part models.Part) Cell {
	return Cell{
		Name:     name,
		Part:     part,
		Empty:    true,
		Status:   models.StatusNotStarted,
		Label:    models.StatusNotStarted.Label(),
		Tone:     models.StatusNotStarted.Tone(),
		State:    string(models.CategoryIdle),
		Progress: 0,
	}
}

// Summarize computes the dashboard tiles over all records.
func Summarize(records []models.SegmentRecord) Stats {
	var s Stats
	s.Total = len(records)
	sum := 0
	for _, r := range records {
		sum += r.Progress
		switch r.Status {
		case models.StatusCompleted:
			s.Completed++
		case models.StatusSuspended:
			s.Suspended++
		case models.StatusNotStarted:
		default:
			s.Active++
		}
		if r.Status.InProgress() {
			s.InProgress++
		}
	}
	if s.Total > 0 {
		s.AvgProgress = int(math.Round(float64(sum) / float64(s.Total)))
	}
	return s
}
