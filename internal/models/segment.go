package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SegmentRecord is the progress of one part of one segment
type SegmentRecord struct {
	ID string `json:"id"`

	// Identity, immutable once created
	Name string `json:"name"` // e.g. "Segment 33"
	Part Part   `json:"part"`

	// Mutable progress fields
	Status   Status `json:"status"`
	Progress int    `json:"progress"` // 0~100
	Remarks  string `json:"remarks"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Key returns the (name, part) identity of the record
func (r SegmentRecord) Key() RecordKey {
	return RecordKey{Name: r.Name, Part: r.Part}
}

// Done reports whether the record is in the distinct "done" display state
func (r SegmentRecord) Done() bool {
	return r.Status == StatusCompleted && r.Progress == 100
}

// DisplayState returns "done" for finished records and the status category otherwise
func (r SegmentRecord) DisplayState() string {
	if r.Done() {
		return DisplayDone
	}
	return string(r.Status.Category())
}

// Validate checks the record's identity and enumerated fields
func (r SegmentRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("segment name is required")
	}
	if !r.Part.Valid() {
		return fmt.Errorf("invalid part: %q", r.Part)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status: %q", r.Status)
	}
	return nil
}

// Normalized returns a copy with a trimmed name and the progress clamped to [0,100]
func (r SegmentRecord) Normalized() SegmentRecord {
	r.Name = strings.TrimSpace(r.Name)
	r.Progress = ClampProgress(r.Progress)
	if r.Status == "" {
		r.Status = StatusNotStarted
	}
	return r
}

// RecordKey is the unique (name, part) pair of a record
type RecordKey struct {
	Name string
	Part Part
}

// ClampProgress limits a progress value to [0,100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

var recordNamespace = uuid.MustParse("8f2b6a4e-3c1d-5e7f-9a0b-1c2d3e4f5a6b")

// NewRecordID derives the record id from its (name, part) identity.
// The same pair always yields the same id, so re-seeding overwrites.
func NewRecordID(name string, part Part) string {
	return uuid.NewSHA1(recordNamespace, []byte(strings.TrimSpace(name)+"\x00"+string(part))).String()
}

// NewSegmentRecord builds a record for an empty cell with default progress fields
func NewSegmentRecord(name string, part Part, now time.Time) SegmentRecord {
	return SegmentRecord{
		ID:          NewRecordID(name, part),
		Name:        strings.TrimSpace(name),
		Part:        part,
		Status:      StatusNotStarted,
		Progress:    0,
		LastUpdated: now.UTC(),
	}
}

// SegmentPatch carries the mutable fields of an update; nil fields are left unchanged
type SegmentPatch struct {
	Status   *Status `json:"status,omitempty"`
	Progress *int    `json:"progress,omitempty"`
	Remarks  *string `json:"remarks,omitempty"`
}

// Apply returns a copy of r with the patch applied and lastUpdated stamped
func (p SegmentPatch) Apply(r SegmentRecord, now time.Time) SegmentRecord {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Progress != nil {
		r.Progress = ClampProgress(*p.Progress)
	}
	if p.Remarks != nil {
		r.Remarks = *p.Remarks
	}
	r.LastUpdated = now.UTC()
	return r
}

// Mode tells clients whether records are synced remotely (live) or kept locally
type Mode string

const (
	ModeLive  Mode = "live"
	ModeLocal Mode = "local"
)
