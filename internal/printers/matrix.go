package printers

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/viewmodel"
)

// MatrixPrinter renders the segment matrix as a terminal table
type MatrixPrinter struct {
	Out     io.Writer
	Remarks bool
}

// NewMatrixPrinter writes to color.Output, which handles Windows consoles
func NewMatrixPrinter() *MatrixPrinter {
	return &MatrixPrinter{Out: color.Output}
}

var stateColors = map[string]*color.Color{
	models.DisplayDone:               color.New(color.FgGreen, color.Bold),
	string(models.CategoryCompleted): color.New(color.FgGreen),
	string(models.CategoryActive):    color.New(color.FgYellow),
	string(models.CategoryReview):    color.New(color.FgCyan),
	string(models.CategoryBlocked):   color.New(color.FgRed, color.Bold),
	string(models.CategoryIdle):      color.New(color.Faint),
}

// Header prints the mode banner and dashboard tiles
func (p *MatrixPrinter) Header(mode models.Mode, stats viewmodel.Stats) {
	bold := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	badge := color.New(color.FgGreen).Sprint("● Live")
	if mode != models.ModeLive {
		badge = color.New(color.FgYellow).Sprint("● Local")
	}
	_, _ = fmt.Fprintf(p.Out, "%s  %s\n", bold.Sprint("Site progress"), badge)
	_, _ = faint.Fprintf(p.Out, "overall %d%%  |  %d/%d parts done  |  active %d  |  in progress %d  |  suspended %d\n\n",
		stats.AvgProgress, stats.Completed, stats.Total, stats.Active, stats.InProgress, stats.Suspended)
}

// Matrix prints one row per segment and one column per part
func (p *MatrixPrinter) Matrix(m viewmodel.Matrix) {
	if len(m.Rows) == 0 {
		f := color.New(color.Faint, color.Italic)
		if m.Query != "" {
			_, _ = f.Fprintf(p.Out, " no segments match %q\n", m.Query)
		} else {
			_, _ = f.Fprintln(p.Out, " none")
		}
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 24
	if p.Remarks {
		tbl.MaxColWidth = 48
		tbl.Wrap = true
	}

	header := []interface{}{bold("Segment")}
	for _, part := range m.Parts {
		header = append(header, bold(string(part)))
	}
	tbl.AddRow(header...)

	for _, row := range m.Rows {
		cells := []interface{}{row.Label}
		for _, cell := range row.Cells {
			cells = append(cells, p.cell(cell))
		}
		tbl.AddRow(cells...)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
}

func (p *MatrixPrinter) cell(c viewmodel.Cell) string {
	if c.Empty {
		return color.New(color.Faint).Sprint("-")
	}
	text := fmt.Sprintf("%s %d%%", c.Label, c.Progress)
	if c.State == models.DisplayDone {
		text = "✓ done"
	}
	if p.Remarks && c.Remarks != "" {
		text += " (" + c.Remarks + ")"
	}
	if col, ok := stateColors[c.State]; ok {
		return col.Sprint(text)
	}
	return text
}

func bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}
