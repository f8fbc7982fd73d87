// ABOUTME: Read-only detail panels for a single fetched entity
// ABOUTME: Renders relations plus cross-navigation into linked records
package workspace

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calegray/revdeck/models"
)

func (m Model) renderDetailView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.modal.entity.Label()) + " DETAIL"))
	s.WriteString("\n\n")

	switch m.modal.entity {
	case models.EntityCompany:
		s.WriteString(m.renderCompanyDetail())
	case models.EntityDeal:
		s.WriteString(m.renderDealDetail())
	default:
		s.WriteString(m.renderContactDetail())
	}

	s.WriteString("\n")
	s.WriteString(m.renderNotice())
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func detailRow(label, value string) string {
	if value == "" {
		value = "—"
	}
	return fieldLabelStyle.Render(label) + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderContactDetail() string {
	d := m.contactDetail
	if d == nil {
		return statsStyle.Render("Loading...") + "\n"
	}

	var s strings.Builder
	s.WriteString(detailRow("Name", d.DisplayName()))
	s.WriteString(detailRow("Email", d.Email))
	s.WriteString(detailRow("Phone", d.Phone))
	s.WriteString(detailRow("Title", d.Title))
	s.WriteString(detailRow("Company", d.CompanyName))
	s.WriteString(detailRow("Status", d.Status))
	s.WriteString(detailRow("Score", formatScore(d.Score)))
	s.WriteString(detailRow("LinkedIn", d.LinkedIn))

	s.WriteString("\n" + sectionStyle.Render("ENGAGEMENT") + "\n")
	s.WriteString(detailRow("Opens", fmt.Sprintf("%d", d.OpenCount)))
	s.WriteString(detailRow("Responses", fmt.Sprintf("%d", d.ResponseCount)))
	s.WriteString(detailRow("Clicks", fmt.Sprintf("%d", d.ClickCount)))
	return s.String()
}

func (m Model) renderCompanyDetail() string {
	d := m.companyDetail
	if d == nil {
		return statsStyle.Render("Loading...") + "\n"
	}

	var s strings.Builder
	s.WriteString(detailRow("Name", d.Name))
	s.WriteString(detailRow("Domain", d.Domain))
	s.WriteString(detailRow("Industry", d.Industry))
	s.WriteString(detailRow("Size", d.Size))
	s.WriteString(detailRow("Status", d.Status))
	s.WriteString(detailRow("Website", d.Website))
	s.WriteString(detailRow("Location", joinLocation(d.City, d.State)))
	s.WriteString(detailRow("Total deal value", formatMoney(d.TotalValue)))

	s.WriteString("\n" + sectionStyle.Render("CONTACTS") + "\n")
	if len(d.Contacts) == 0 {
		s.WriteString(statsStyle.Render("none") + "\n")
	}
	for i := range d.Contacts {
		c := &d.Contacts[i]
		s.WriteString("  " + c.DisplayName() + " · " + c.Status + "\n")
	}

	s.WriteString("\n" + sectionStyle.Render("DEALS") + "\n")
	if len(d.Deals) == 0 {
		s.WriteString(statsStyle.Render("none") + "\n")
	}
	for _, deal := range d.Deals {
		s.WriteString("  " + deal.Name + " · " + deal.Stage + " · " + formatValueK(deal.Value) + "\n")
	}
	return s.String()
}

func (m Model) renderDealDetail() string {
	d := m.dealDetail
	if d == nil {
		return statsStyle.Render("Loading...") + "\n"
	}

	var s strings.Builder
	s.WriteString(detailRow("Name", d.Name))
	s.WriteString(detailRow("Value", formatValueK(d.Value)))
	s.WriteString(detailRow("Stage", d.Stage))
	s.WriteString(detailRow("Probability", fmt.Sprintf("%d%%", d.Probability)))
	s.WriteString(detailRow("Status", d.Status))
	s.WriteString(detailRow("Company", d.CompanyName))
	if d.ExpectedCloseDate != nil {
		s.WriteString(detailRow("Expected close", d.ExpectedCloseDate.Format("2006-01-02")))
	} else {
		s.WriteString(detailRow("Expected close", ""))
	}
	if d.PrimaryContact != nil {
		s.WriteString(detailRow("Primary contact", d.PrimaryContact.DisplayName()))
	}
	return s.String()
}

func joinLocation(city, state string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	}
	return state
}

func (m Model) renderDetailHelp() string {
	help := []string{"e: Edit", "d: Delete"}
	switch m.modal.entity {
	case models.EntityContact:
		if d := m.contactDetail; d != nil && d.CompanyID != nil {
			help = append(help, "o: Company")
		}
	case models.EntityDeal:
		if d := m.dealDetail; d != nil {
			if d.CompanyID != nil {
				help = append(help, "o: Company")
			}
			if d.PrimaryContact != nil {
				help = append(help, "p: Contact")
			}
		}
	}
	help = append(help, "Esc: Back", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.modal = closedModal()
		m.contactDetail = nil
		m.companyDetail = nil
		m.dealDetail = nil
		return m, nil
	case "e":
		return m.openEdit(m.modal.entity, m.modal.id)
	case "d":
		return m.openConfirmDelete(m.modal.entity, m.modal.id)
	case "o":
		// Cross-navigate to the linked company.
		switch m.modal.entity {
		case models.EntityContact:
			if d := m.contactDetail; d != nil && d.CompanyID != nil {
				return m.openView(models.EntityCompany, *d.CompanyID)
			}
		case models.EntityDeal:
			if d := m.dealDetail; d != nil && d.CompanyID != nil {
				return m.openView(models.EntityCompany, *d.CompanyID)
			}
		}
	case "p":
		if m.modal.entity == models.EntityDeal {
			if d := m.dealDetail; d != nil && d.PrimaryContact != nil {
				return m.openView(models.EntityContact, d.PrimaryContact.ID)
			}
		}
	}
	return m, nil
}
