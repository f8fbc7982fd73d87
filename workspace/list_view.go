// ABOUTME: List view rendering and key handling for the three entity tabs
// ABOUTME: Renders tables from the current page plus the stats strip and filters
package workspace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/calegray/revdeck/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("REVDECK"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")
	s.WriteString(m.renderStatsStrip())
	s.WriteString("\n\n")
	s.WriteString(m.renderFilterLine())
	s.WriteString("\n")
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderPagination())
	s.WriteString("\n")
	s.WriteString(m.renderNotice())
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Contacts", "Companies", "Deals"}
	var rendered []string

	for i, tab := range tabs {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatsStrip() string {
	if m.stats == nil {
		return statsStyle.Render("loading stats…")
	}
	return statsStyle.Render(fmt.Sprintf("%d contacts · %d companies · pipeline %s · win rate %.0f%%",
		m.stats.TotalContacts, m.stats.TotalCompanies,
		formatMoney(m.stats.PipelineValue), m.stats.WinRate))
}

func (m Model) renderFilterLine() string {
	if m.searching {
		return m.searchInput.View()
	}

	var parts []string
	if m.searchQuery != "" {
		parts = append(parts, "search: "+m.searchQuery)
	}
	if m.tab != TabDeals {
		parts = append(parts, "status: "+m.statusFilter)
	} else {
		parts = append(parts, "status: open")
	}
	return statsStyle.Render(strings.Join(parts, "  ·  "))
}

func (m Model) renderTable() string {
	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case TabContacts:
		columns = []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 26},
			{Title: "Company", Width: 20},
			{Title: "Status", Width: 10},
			{Title: "Score", Width: 6},
		}
		for _, c := range m.contacts.Data {
			rows = append(rows, table.Row(contactCells(c)))
		}
	case TabCompanies:
		columns = []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Domain", Width: 20},
			{Title: "Industry", Width: 16},
			{Title: "Status", Width: 10},
			{Title: "Contacts", Width: 8},
			{Title: "Deals", Width: 6},
		}
		for _, c := range m.companies.Data {
			rows = append(rows, table.Row(companyCells(c)))
		}
	case TabDeals:
		columns = []table.Column{
			{Title: "Name", Width: 26},
			{Title: "Company", Width: 20},
			{Title: "Stage", Width: 14},
			{Title: "Value", Width: 8},
			{Title: "Prob", Width: 5},
		}
		for _, d := range m.deals.Data {
			rows = append(rows, table.Row(dealCells(d)))
		}
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.cursor < len(rows) {
		t.SetCursor(m.cursor)
	}
	return t.View()
}

// contactCells maps a list row. Missing email renders "No email"; the
// company column is whatever the fetch joined, never a lookup.
func contactCells(c models.Contact) []string {
	email := c.Email
	if email == "" {
		email = "No email"
	}
	return []string{c.DisplayName(), email, c.CompanyName, c.Status, formatScore(c.Score)}
}

func companyCells(c models.Company) []string {
	return []string{c.Name, c.Domain, c.Industry, c.Status,
		strconv.Itoa(c.ContactCount), strconv.Itoa(c.DealCount)}
}

func dealCells(d models.Deal) []string {
	return []string{d.Name, d.CompanyName, d.Stage, formatValueK(d.Value),
		strconv.Itoa(d.Probability) + "%"}
}

// formatValueK renders a deal value in thousands, "—" when unset.
func formatValueK(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("$%.0fK", *v/1000)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.0fK", v/1000)
}

func formatScore(s *int) string {
	if s == nil {
		return ""
	}
	return strconv.Itoa(*s)
}

func (m Model) renderPagination() string {
	var p models.Pagination
	switch m.tab {
	case TabContacts:
		p = m.contacts.Pagination
	case TabCompanies:
		p = m.companies.Pagination
	case TabDeals:
		p = m.deals.Pagination
	}
	if p.Total == 0 {
		return statsStyle.Render("no records")
	}
	return statsStyle.Render(fmt.Sprintf("page %d/%d · %d total", p.Page, p.TotalPages, p.Total))
}

func (m Model) renderNotice() string {
	if m.notice == nil {
		return ""
	}
	if m.notice.failed {
		return noticeFailStyle.Render(m.notice.text) + "\n"
	}
	return noticeOKStyle.Render(m.notice.text) + "\n"
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View",
		"n: New",
		"e: Edit",
		"d: Delete",
		"/: Search",
		"s: Status filter",
		"x: Export CSV",
		"r: Refresh",
	}
	if m.tab == TabDeals {
		help = append(help, "v: Board")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.activeCount()-1 {
			m.cursor++
		}
	case "tab":
		return m.switchTab((m.tab + 1) % 3)
	case "shift+tab":
		return m.switchTab((m.tab + 2) % 3)
	case "enter":
		if id, ok := m.selectedID(); ok {
			return m.openView(m.tab.entity(), id)
		}
	case "n":
		return m.openCreate(m.tab.entity())
	case "e":
		if id, ok := m.selectedID(); ok {
			return m.openEdit(m.tab.entity(), id)
		}
	case "d":
		if id, ok := m.selectedID(); ok {
			return m.openConfirmDelete(m.tab.entity(), id)
		}
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.searchQuery)
		return m, m.searchInput.Focus()
	case "s":
		if m.tab != TabDeals {
			m.statusFilter = nextStatusFilter(m.tab, m.statusFilter)
			m.cursor = 0
			return m, m.loadActiveList()
		}
	case "x":
		return m.exportActive()
	case "r":
		return m, tea.Batch(m.loadActiveList(), m.loadStats())
	case "v":
		if m.tab == TabDeals {
			m.boardView = true
		}
	}
	return m, nil
}

func (m Model) switchTab(next Tab) (Model, tea.Cmd) {
	m.tab = next
	m.cursor = 0
	m.boardCol = 0
	m.boardRow = 0
	return m, m.loadActiveList()
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		m.searchInput.Blur()
		m.cursor = 0
		return m, m.loadActiveList()
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// nextStatusFilter cycles all → each status for the tab's taxonomy → all.
func nextStatusFilter(tab Tab, current string) string {
	statuses := models.ContactStatuses
	if tab == TabCompanies {
		statuses = models.CompanyStatuses
	}

	if current == models.StatusAll {
		return statuses[0]
	}
	for i, s := range statuses {
		if s == current {
			if i == len(statuses)-1 {
				return models.StatusAll
			}
			return statuses[i+1]
		}
	}
	return models.StatusAll
}

func (m Model) selectedID() (uuid.UUID, bool) {
	switch m.tab {
	case TabContacts:
		if m.cursor < len(m.contacts.Data) {
			return m.contacts.Data[m.cursor].ID, true
		}
	case TabCompanies:
		if m.cursor < len(m.companies.Data) {
			return m.companies.Data[m.cursor].ID, true
		}
	case TabDeals:
		if m.cursor < len(m.deals.Data) {
			return m.deals.Data[m.cursor].ID, true
		}
	}
	return uuid.UUID{}, false
}
