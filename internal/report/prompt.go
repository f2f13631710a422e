package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// SummaryItem is the compact per-record view sent to the model.
type SummaryItem struct {
	Name     string `json:"name"`
	Part     string `json:"part"`
	Status   string `json:"status"`
	Progress string `json:"progress"`
	Remarks  string `json:"remarks"`
	Updated  string `json:"updated"`
}

// Summarize reduces records to the fields the report needs.
func Summarize(records []models.SegmentRecord) []SummaryItem {
	out := make([]SummaryItem, 0, len(records))
	for _, r := range records {
		item := SummaryItem{
			Name:     r.Name,
			Part:     string(r.Part),
			Status:   r.Status.Label(),
			Progress: fmt.Sprintf("%d%%", r.Progress),
			Remarks:  r.Remarks,
		}
		if !r.LastUpdated.IsZero() {
			item.Updated = r.LastUpdated.Format("2006-01-02")
		}
		out = append(out, item)
	}
	return out
}

const reportInstruction = `You are a senior construction project manager assistant.
Analyze the following construction site data and generate a professional Daily Progress Report in English.

The report should include:
1. **Overall Progress Summary**: High-level view of how many segments are active, completed, or suspended.
2. **Key Activities Today**: Highlight segments currently in 'In Progress'.
3. **Risk Analysis**: Identify potential issues based on 'Remarks' or 'Suspended' status (e.g. waiting for drawings, material delays).
4. **Recommendations**: Suggested next steps for the site manager.

Data:
%s

Format with Markdown. Keep it concise but professional.`

// ReportPrompt renders the daily report prompt for records.
func ReportPrompt(records []models.SegmentRecord) (string, error) {
	data, err := json.MarshalIndent(Summarize(records), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report data: %w", err)
	}
	return fmt.Sprintf(reportInstruction, data), nil
}

// RiskPrompt renders the one-sentence risk prompt for a single record.
func RiskPrompt(r models.SegmentRecord) string {
	var b strings.Builder
	b.WriteString("Analyze the risk for this specific construction segment:\n")
	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Part: %s\n", r.Part)
	fmt.Fprintf(&b, "Status: %s\n", r.Status.Label())
	fmt.Fprintf(&b, "Progress: %d%%\n", r.Progress)
	fmt.Fprintf(&b, "Remarks: %s\n\n", r.Remarks)
	b.WriteString("Provide a 1-sentence risk assessment or safety tip in English.")
	return b.String()
}
