package models

import (
	"fmt"
	"strings"
)

// Part is a physical sub-component of a segment
type Part string

// Part constants, in matrix column order
const (
	PartBlinding      Part = "Blinding"
	PartWaterproofing Part = "Waterproofing"
	PartBaseSlab      Part = "Base Slab"
	PartSideWall      Part = "Side Wall"
	PartTopSlab       Part = "Top Slab"
)

// AllParts returns every part in matrix column order.
func AllParts() []Part {
	return []Part{PartBlinding, PartWaterproofing, PartBaseSlab, PartSideWall, PartTopSlab}
}

// Valid reports whether p is one of the enumerated parts
func (p Part) Valid() bool {
	return p.Index() >= 0
}

// Index returns the column position of the part, or -1 if unknown
func (p Part) Index() int {
	for i, known := range AllParts() {
		if p == known {
			return i
		}
	}
	return -1
}

// ParsePart parses a part by display name, case-insensitive. "Bottom Slab" is
// accepted as an alias of Base Slab.
func ParsePart(s string) (Part, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch norm {
	case "blinding":
		return PartBlinding, nil
	case "waterproofing":
		return PartWaterproofing, nil
	case "base slab", "bottom slab":
		return PartBaseSlab, nil
	case "side wall":
		return PartSideWall, nil
	case "top slab":
		return PartTopSlab, nil
	default:
		return "", fmt.Errorf("invalid part: %q", s)
	}
}

// Status is the construction phase of a segment part
type Status string

const (
	StatusNotStarted  Status = "NOT_STARTED"
	StatusExcavation  Status = "EXCAVATION"
	StatusRebar       Status = "REBAR"
	StatusFormwork    Status = "FORMWORK"
	StatusScaffolding Status = "SCAFFOLDING"
	StatusPouring     Status = "POURING"
	StatusLaying      Status = "LAYING"
	StatusInspection  Status = "INSPECTION"
	StatusCuring      Status = "CURING"
	StatusCompleted   Status = "COMPLETED"
	StatusSuspended   Status = "SUSPENDED"
)

// AllStatuses returns every status in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusNotStarted, StatusExcavation, StatusRebar, StatusFormwork,
		StatusScaffolding, StatusPouring, StatusLaying, StatusInspection,
		StatusCuring, StatusCompleted, StatusSuspended,
	}
}

// ParseStatus parses a status code or label, case-insensitive.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "IN_PROGRESS" {
		return StatusPouring, nil
	}
	for _, st := range AllStatuses() {
		if string(st) == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// Valid reports whether s is one of the enumerated statuses
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusExcavation, StatusRebar, StatusFormwork,
		StatusScaffolding, StatusPouring, StatusLaying, StatusInspection,
		StatusCuring, StatusCompleted, StatusSuspended:
		return true
	default:
		return false
	}
}

// Label returns the human-readable status label shown on the dashboard
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not Started"
	case StatusExcavation:
		return "Excavation"
	case StatusRebar:
		return "Rebar"
	case StatusFormwork:
		return "Formwork"
	case StatusScaffolding:
		return "Scaffolding"
	case StatusPouring:
		return "In Progress"
	case StatusLaying:
		return "Laying"
	case StatusInspection:
		return "Inspection"
	case StatusCuring:
		return "Curing"
	case StatusCompleted:
		return "Completed"
	case StatusSuspended:
		return "Suspended"
	default:
		return string(s)
	}
}

// Tone returns the colour family clients use for the status badge
func (s Status) Tone() string {
	switch s {
	case StatusExcavation:
		return "amber"
	case StatusRebar:
		return "blue"
	case StatusFormwork:
		return "indigo"
	case StatusScaffolding:
		return "sky"
	case StatusPouring:
		return "purple"
	case StatusLaying:
		return "violet"
	case StatusInspection:
		return "cyan"
	case StatusCuring:
		return "teal"
	case StatusCompleted:
		return "emerald"
	case StatusSuspended:
		return "red"
	default:
		return "slate"
	}
}

// Category groups statuses for display
type Category string

const (
	CategoryIdle      Category = "idle"
	CategoryActive    Category = "active"
	CategoryReview    Category = "review"
	CategoryCompleted Category = "completed"
	CategoryBlocked   Category = "blocked"

	// DisplayDone is the display state of a Completed record at 100%
	DisplayDone = "done"
)

// Category maps the status to its display category. Unknown values fall into
// CategoryIdle so every status renders.
func (s Status) Category() Category {
	switch s {
	case StatusExcavation, StatusRebar, StatusFormwork, StatusScaffolding, StatusPouring, StatusLaying:
		return CategoryActive
	case StatusInspection, StatusCuring:
		return CategoryReview
	case StatusCompleted:
		return CategoryCompleted
	case StatusSuspended:
		return CategoryBlocked
	default:
		return CategoryIdle
	}
}

// InProgress reports whether the status counts as hands-on site work
func (s Status) InProgress() bool {
	switch s {
	case StatusExcavation, StatusRebar, StatusFormwork, StatusPouring, StatusLaying:
		return true
	default:
		return false
	}
}
