// ABOUTME: Delete confirmation prompt for the targeted record
package workspace

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderConfirmView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("DELETE " + strings.ToUpper(m.modal.entity.Label())))
	s.WriteString("\n\n")
	s.WriteString("Delete this " + string(m.modal.entity) + "? This cannot be undone.\n\n")
	s.WriteString(m.renderNotice())
	s.WriteString(helpStyle.Render("y: Delete • n/Esc: Cancel"))
	return s.String()
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		entity, id := m.modal.entity, m.modal.id
		m.modal = closedModal()
		return m, m.deleteCmd(entity, id)
	case "n", "esc":
		m.modal = closedModal()
		return m, nil
	}
	return m, nil
}
