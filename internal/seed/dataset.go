// Package seed holds the bundled site dataset used when no local or remote
// state exists yet.
package seed

import (
	"fmt"
	"time"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

const (
	firstSegment = 33
	lastSegment  = 79
	// segments after this one have no top slab
	lastTopSlab = 62

	waitingForSlab = "waiting for slab completion"
)

type cell struct {
	status   models.Status
	progress int
	remarks  string
}

type segmentLog struct {
	blinding      *cell
	waterproofing *cell
	baseSlab      *cell
	sideWall      *cell
}

func done(remarks string) *cell {
	return &cell{status: models.StatusCompleted, progress: 100, remarks: remarks}
}

func pending(remarks string) *cell {
	return &cell{status: models.StatusNotStarted, remarks: remarks}
}

func at(status models.Status, progress int, remarks string) *cell {
	return &cell{status: status, progress: progress, remarks: remarks}
}

// siteLog records every segment that differs from the default state of
// blinding and waterproofing done, slab and walls not started.
var siteLog = map[int]segmentLog{
	33: {baseSlab: at(models.StatusSuspended, 50, "1. 30 T delivered, installation completed, 180 T in waiting (Ultmost)\n2. site stopped > 3d")},
	34: {
		blinding:      at(models.StatusExcavation, 50, ""),
		waterproofing: pending(""),
		baseSlab:      pending("UAF piling work"),
	},
	35: {
		blinding:      at(models.StatusSuspended, 0, ""),
		waterproofing: pending(""),
		baseSlab:      pending("UAF blocking the access"),
	},
	36: {
		waterproofing: at(models.StatusPouring, 60, ""),
		baseSlab:      pending("1. waterproofing on-going\n2. 220 T rebar in waiting (Ultmost)"),
	},
	37: {baseSlab: pending("to start after seg 36, 38 slabs completion")},
	38: {
		waterproofing: at(models.StatusPouring, 60, ""),
		baseSlab:      pending("1. waterproofing on-going\n2. 220 T rebar fabrication done (CRIG), in transportation"),
	},
	39: {baseSlab: pending("to start after pump room completion")},
	40: {baseSlab: pending("to start after pump room completion (pump room location)")},
	41: {baseSlab: pending("to start after pump room completion")},
	42: {baseSlab: pending("within 2 days after access relocate")},
	43: {baseSlab: pending("to start after seg44 slab completion")},
	44: {baseSlab: at(models.StatusSuspended, 40, "1. 88 T delivered, installation completed, 130 T in waiting (Cicon)\n2. site stopped > 1d")},
	45: {baseSlab: pending("to start after seg44, 46 slab completion")},
	46: {baseSlab: at(models.StatusSuspended, 20, "1. all rebar delivered until 7th December\n2. site stopped > 4 days, to re-start today")},
	47: {baseSlab: pending("to start after 46 slab completion")},
	48: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 0, "no material")},
	49: {
		waterproofing: pending(""),
		baseSlab:      pending("1. to start waterproofing 8th of December\n2. 25th PO confirmed, request 9th of December to deliver (Cicon)"),
	},
	50: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 0, "no material")},
	51: {baseSlab: at(models.StatusRebar, 60, "1. 120 T delivered, installation on-going (delivered quantity gaps about 20 T)\n2. 80 T request to deliver 8th of December (Cicon)\n3. site stopped 0.5 day")},
	52: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 10, "1. PO sent 7th to CRIG")},
	53: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 0, "no material")},
	54: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 0, "no material")},
	55: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 20, "21st rebar PO confirmed, waiting for delivery (CRTG)")},
	56: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 50, "rebar works on-going")},
	57: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 20, "28th rebar PO confirmed, waiting for delivery (CRTG)")},
	58: {baseSlab: done("completion"), sideWall: at(models.StatusFormwork, 60, "formwork on-going, casting plan about 10th")},
	59: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 0, "MEP issue blocking rebar PO, in waiting")},
	60: {
		baseSlab: at(models.StatusSuspended, 80, "1. MEP issues blocking, stopped > 2days\n2. CRTG casting plan 6th of December overdue"),
		sideWall: pending("1. waiting for slab completion\n2. MEP issue blocking rebar PO"),
	},
	61: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 10, "1. Rebar PO 4th of December (CRIG), in waiting")},
	62: {
		waterproofing: pending(""),
		baseSlab:      pending("1. to start after seg 63 backfilling completion"),
	},
	63: {
		waterproofing: at(models.StatusPouring, 50, ""),
		baseSlab:      pending("1. AMC water proofing on-going;\n2. then backfilling\n3. to start after seg62, 64 completion."),
	},
	64: {
		waterproofing: pending(""),
		baseSlab:      pending("to start after seg 63 backfilling completion"),
	},
	65: {baseSlab: done("completion"), sideWall: at(models.StatusFormwork, 70, "formwork on-going, casting plan about 13rd of December")},
	66: {baseSlab: done("completion"), sideWall: at(models.StatusRebar, 50, "rebar works on-going")},
	67: {baseSlab: done("completion"), sideWall: at(models.StatusFormwork, 40, "1. in pushing CRTG, casting plan about 14th of December")},
	68: {baseSlab: done("completion"), sideWall: pending("1. waiting 67, 69 side wall completion\n2. rebar PO sent 17th of Nov, request to deliver 12th")},
	69: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 30, "1. scaffolding issue, site installation issue and mainly waiting for MEP\n2. East side casting plan 8th of December")},
	70: {baseSlab: done("completion"), sideWall: done("completion")},
	71: {baseSlab: done("completion"), sideWall: at(models.StatusSuspended, 90, "1. rebar completed apart from the ITS Gantry issue, drawing not fixed. Awaiting for around 45 days")},
}

// Dataset returns the bundled site records, stamped with now.
func Dataset(now time.Time) []models.SegmentRecord {
	now = now.UTC()
	var out []models.SegmentRecord
	for i := firstSegment; i <= lastSegment; i++ {
		name := fmt.Sprintf("Segment %d", i)
		log := siteLog[i]
		if i >= 72 {
			log = segmentLog{baseSlab: done("completion"), sideWall: done("completion")}
		}

		blinding := orDefault(log.blinding, done(""))
		waterproofing := orDefault(log.waterproofing, done(""))
		baseSlab := orDefault(log.baseSlab, pending(""))
		sideWall := orDefault(log.sideWall, pending(""))
		if baseSlab.status != models.StatusCompleted && sideWall.remarks == "" {
			sideWall.remarks = waitingForSlab
		}

		out = append(out,
			record(name, models.PartBlinding, blinding, now),
			record(name, models.PartWaterproofing, waterproofing, now),
			record(name, models.PartBaseSlab, baseSlab, now),
			record(name, models.PartSideWall, sideWall, now),
		)
		if i <= lastTopSlab {
			out = append(out, record(name, models.PartTopSlab, *pending(""), now))
		}
	}
	return out
}

func orDefault(c *cell, def *cell) cell {
	if c != nil {
		return *c
	}
	return *def
}

func record(name string, part models.Part, c cell, now time.Time) models.SegmentRecord {
	return models.SegmentRecord{
		ID:          models.NewRecordID(name, part),
		Name:        name,
		Part:        part,
		Status:      c.status,
		Progress:    c.progress,
		Remarks:     c.remarks,
		LastUpdated: now,
	}
}
