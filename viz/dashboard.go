// ABOUTME: ASCII pipeline dashboard for the terminal
package viz

import (
	"fmt"
	"strings"

	"github.com/calegray/revdeck/models"
)

// RenderDashboard draws a one-screen overview of the stats projection.
func RenderDashboard(stats *models.Stats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  REVDECK PIPELINE\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	renderStages(&out, stats.DealsByStage)

	out.WriteString("\n")
	out.WriteString(fmt.Sprintf("  %d contacts  %d companies  pipeline $%.0fK  win rate %.0f%%\n",
		stats.TotalContacts, stats.TotalCompanies, stats.PipelineValue/1000, stats.WinRate))

	return out.String()
}

func renderStages(out *strings.Builder, byStage map[string]models.StageStat) {
	maxCount := 1
	for _, s := range byStage {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	for _, stage := range models.StageOrder {
		s := byStage[stage]
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d ($%.0fK)\n", stage, bar, s.Count, s.Value/1000))
	}
}
