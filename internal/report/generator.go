package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"filewarden/pkg/models"
)

// Generator renders a ScanReport for the command surface
type Generator struct{}

// NewGenerator creates a new report generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Text renders a human-readable summary
func (g *Generator) Text(r *models.ScanReport) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70) + "\n")
	sb.WriteString("  FILEWARDEN SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70) + "\n\n")

	sb.WriteString(fmt.Sprintf("Scan Path:        %s\n", r.ScanPath))
	sb.WriteString(fmt.Sprintf("Definitions:      %s\n", r.DefinitionVersion))
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", r.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(r.Duration)))
	sb.WriteString(fmt.Sprintf("Workers:          %d\n", r.WorkersUsed))
	if r.Cancelled {
		sb.WriteString("Status:           CANCELLED (partial results)\n")
	}
	sb.WriteString("\n")

	sb.WriteString("VERDICTS\n")
	sb.WriteString(strings.Repeat("-", 70) + "\n")
	sb.WriteString(fmt.Sprintf("  Total Files:    %d\n", r.TotalFiles))
	sb.WriteString(fmt.Sprintf("  Clean:          %d (%d from cache)\n", r.Clean, r.CacheHits))
	sb.WriteString(fmt.Sprintf("  Malicious:      %d\n", r.Malicious))
	sb.WriteString(fmt.Sprintf("  Suspicious:     %d\n", r.Suspicious))
	sb.WriteString(fmt.Sprintf("  Errors:         %d\n", r.Errors))
	sb.WriteString("\n")

	if len(r.Records) > 0 {
		sb.WriteString("QUARANTINED\n")
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		for _, record := range r.Records {
			sb.WriteString(fmt.Sprintf("  %s\n", record.OriginalPath))
			sb.WriteString(fmt.Sprintf("    id:     %s\n", record.ID))
			sb.WriteString(fmt.Sprintf("    reason: %s\n", record.Reason))
		}
		sb.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("FAILURES\n")
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		for _, failure := range r.Failures {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", failure.Path, failure.Cause))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSON renders the report as indented JSON
func (g *Generator) JSON(r *models.ScanReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FormatDuration formats a duration without sub-millisecond noise
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
