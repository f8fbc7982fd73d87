// ABOUTME: Kanban derivation and board rendering for the deals tab
// ABOUTME: Buckets the fetched deals per stage and drives the stage picker
package workspace

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/calegray/revdeck/models"
)

// StageBucket is one kanban column's worth of deals.
type StageBucket struct {
	Stage string
	Deals []models.Deal
}

// GroupByStage partitions deals into per-stage buckets, preserving fetch
// order within each. Buckets exist for every known stage even when empty;
// deals carrying an out-of-taxonomy stage land in trailing buckets in
// first-seen order, so the union always equals the input exactly.
func GroupByStage(deals []models.Deal) []StageBucket {
	index := make(map[string]int, len(models.StageOrder))
	buckets := make([]StageBucket, 0, len(models.StageOrder))
	for _, stage := range models.StageOrder {
		index[stage] = len(buckets)
		buckets = append(buckets, StageBucket{Stage: stage})
	}

	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			i = len(buckets)
			index[d.Stage] = i
			buckets = append(buckets, StageBucket{Stage: d.Stage})
		}
		buckets[i].Deals = append(buckets[i].Deals, d)
	}

	return buckets
}

// BoardStages are the columns the visible board renders. Closed deals are
// excluded from the board by design; they still count in the aggregates.
func BoardStages() []string {
	return models.OpenStages
}

// boardColumns filters the derived buckets down to the visible stages.
func (m Model) boardColumns() []StageBucket {
	all := GroupByStage(m.deals.Data)
	visible := make([]StageBucket, 0, len(BoardStages()))
	for _, b := range all {
		for _, stage := range BoardStages() {
			if b.Stage == stage {
				visible = append(visible, b)
			}
		}
	}
	return visible
}

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("REVDECK"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	s.WriteString(m.renderStatsStrip())
	s.WriteString("\n\n")

	cols := m.boardColumns()
	width := m.width/len(cols) - 4
	if width < 16 {
		width = 16
	}

	rendered := make([]string, 0, len(cols))
	for ci, col := range cols {
		var body strings.Builder
		body.WriteString(columnTitleStyle.Render(col.Stage))
		body.WriteString("\n")
		for ri, d := range col.Deals {
			line := truncate(d.Name, width) + "\n  " + formatValueK(d.Value) + " · " + dealProbability(d)
			if ci == m.boardCol && ri == m.boardRow {
				body.WriteString(cardSelectedStyle.Render(line))
			} else {
				body.WriteString(cardStyle.Render(line))
			}
			body.WriteString("\n")
		}
		if len(col.Deals) == 0 {
			body.WriteString(statsStyle.Render("empty"))
		}
		rendered = append(rendered, columnStyle.Width(width).Render(body.String()))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	s.WriteString("\n")

	if m.stagePicking {
		s.WriteString(m.renderStagePicker())
		s.WriteString("\n")
	}

	s.WriteString(m.renderNotice())
	s.WriteString(m.renderBoardHelp())
	return s.String()
}

func (m Model) renderStagePicker() string {
	var s strings.Builder
	s.WriteString(sectionStyle.Render("MOVE TO STAGE"))
	s.WriteString("\n")
	for i, stage := range models.StageOrder {
		marker := "  "
		if i == m.stagePickIdx {
			marker = "> "
		}
		s.WriteString(marker + stage + "\n")
	}
	return s.String()
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→: Column",
		"↑/↓: Card",
		"Enter: View",
		"m: Move stage",
		"n: New",
		"e: Edit",
		"d: Delete",
		"x: Export CSV",
		"v: List",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stagePicking {
		return m.handleStagePickerKeys(msg)
	}

	cols := m.boardColumns()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		if m.boardCol > 0 {
			m.boardCol--
			m.boardRow = 0
		}
	case "right", "l":
		if m.boardCol < len(cols)-1 {
			m.boardCol++
			m.boardRow = 0
		}
	case "up", "k":
		if m.boardRow > 0 {
			m.boardRow--
		}
	case "down", "j":
		if m.boardCol < len(cols) && m.boardRow < len(cols[m.boardCol].Deals)-1 {
			m.boardRow++
		}
	case "tab":
		return m.switchTab((m.tab + 1) % 3)
	case "shift+tab":
		return m.switchTab((m.tab + 2) % 3)
	case "enter":
		if d, ok := m.boardSelection(); ok {
			return m.openView(models.EntityDeal, d.ID)
		}
	case "m":
		if _, ok := m.boardSelection(); ok {
			m.stagePicking = true
			m.stagePickIdx = 0
		}
	case "n":
		return m.openCreate(models.EntityDeal)
	case "e":
		if d, ok := m.boardSelection(); ok {
			return m.openEdit(models.EntityDeal, d.ID)
		}
	case "d":
		if d, ok := m.boardSelection(); ok {
			return m.openConfirmDelete(models.EntityDeal, d.ID)
		}
	case "x":
		return m.exportActive()
	case "r":
		return m, tea.Batch(m.loadActiveList(), m.loadStats())
	case "v":
		m.boardView = false
	}
	return m, nil
}

func (m Model) handleStagePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stagePicking = false
	case "up", "k":
		if m.stagePickIdx > 0 {
			m.stagePickIdx--
		}
	case "down", "j":
		if m.stagePickIdx < len(models.StageOrder)-1 {
			m.stagePickIdx++
		}
	case "enter":
		m.stagePicking = false
		if d, ok := m.boardSelection(); ok {
			return m.changeStage(d.ID, models.StageOrder[m.stagePickIdx])
		}
	}
	return m, nil
}

func (m Model) boardSelection() (models.Deal, bool) {
	cols := m.boardColumns()
	if m.boardCol >= len(cols) {
		return models.Deal{}, false
	}
	col := cols[m.boardCol]
	if m.boardRow >= len(col.Deals) {
		return models.Deal{}, false
	}
	return col.Deals[m.boardRow], true
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func dealProbability(d models.Deal) string {
	return strconv.Itoa(d.Probability) + "%"
}
