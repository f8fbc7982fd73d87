// ABOUTME: Polymorphic create/edit form keyed by entity type
// ABOUTME: Free-text fields are textinputs, enumerated fields cycle in place
package workspace

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/calegray/revdeck/models"
)

// formField is one form row. A non-nil options slice makes it a cycling
// select instead of a free-text input.
type formField struct {
	key     string
	label   string
	input   textinput.Model
	options []string
	optIdx  int
}

func (f *formField) value() string {
	if f.options != nil {
		return f.options[f.optIdx]
	}
	return strings.TrimSpace(f.input.Value())
}

type entityForm struct {
	entity  models.EntityKind
	fields  []formField
	focus   int
	busy    bool
	errText string

	// Weak references carried through edits so an update never clears a
	// link the form has no field for.
	companyRef *uuid.UUID
	contactRef *uuid.UUID
}

// formPrefill seeds field values and hidden references for an edit.
type formPrefill struct {
	values     map[string]string
	companyRef *uuid.UUID
	contactRef *uuid.UUID
}

func textField(key, label, value, placeholder string) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.SetValue(value)
	return formField{key: key, label: label, input: in}
}

func selectField(key, label string, options []string, value string) formField {
	idx := 0
	for i, opt := range options {
		if opt == value {
			idx = i
		}
	}
	return formField{key: key, label: label, options: options, optIdx: idx}
}

func newEntityForm(entity models.EntityKind, prefill formPrefill) entityForm {
	v := func(key string) string { return prefill.values[key] }

	var fields []formField
	switch entity {
	case models.EntityCompany:
		fields = []formField{
			textField("name", "Name", v("name"), "required"),
			textField("domain", "Domain", v("domain"), "example.com"),
			textField("industry", "Industry", v("industry"), ""),
			selectField("size", "Size", append([]string{""}, models.CompanySizes...), v("size")),
			selectField("status", "Status", models.CompanyStatuses, orDefault(v("status"), models.CompanyStatusProspect)),
			textField("website", "Website", v("website"), "https://"),
		}
	case models.EntityDeal:
		fields = []formField{
			textField("name", "Name", v("name"), "required"),
			textField("value", "Value", v("value"), "50000"),
			textField("probability", "Probability", v("probability"), "0-100"),
			selectField("stage", "Stage", models.OpenStages, orDefault(v("stage"), models.StageDiscovery)),
			textField("expectedCloseDate", "Expected close", v("expectedCloseDate"), "YYYY-MM-DD"),
		}
	default:
		fields = []formField{
			textField("firstName", "First name", v("firstName"), ""),
			textField("lastName", "Last name", v("lastName"), ""),
			textField("email", "Email", v("email"), "name@example.com"),
			textField("phone", "Phone", v("phone"), ""),
			textField("title", "Title", v("title"), ""),
			selectField("status", "Status", models.ContactStatuses, orDefault(v("status"), models.ContactStatusLead)),
		}
	}

	form := entityForm{
		entity:     entity,
		fields:     fields,
		companyRef: prefill.companyRef,
		contactRef: prefill.contactRef,
	}
	form.setFocus(0)
	return form
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (f *entityForm) setFocus(i int) {
	f.focus = i
	for j := range f.fields {
		if f.fields[j].options != nil {
			continue
		}
		if j == i {
			f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
}

// prefillFor seeds the form from the loaded detail when one matches the
// target, falling back to the fetched list row. A nil id means create.
func (m Model) prefillFor(entity models.EntityKind, id *uuid.UUID) formPrefill {
	if id == nil {
		return formPrefill{values: map[string]string{}}
	}

	switch entity {
	case models.EntityContact:
		if d := m.contactDetail; d != nil && d.ID == *id {
			return contactPrefill(&d.Contact)
		}
		for i := range m.contacts.Data {
			if m.contacts.Data[i].ID == *id {
				return contactPrefill(&m.contacts.Data[i])
			}
		}
	case models.EntityCompany:
		if d := m.companyDetail; d != nil && d.ID == *id {
			return companyPrefill(&d.Company)
		}
		for i := range m.companies.Data {
			if m.companies.Data[i].ID == *id {
				return companyPrefill(&m.companies.Data[i])
			}
		}
	case models.EntityDeal:
		if d := m.dealDetail; d != nil && d.ID == *id {
			return dealPrefill(&d.Deal)
		}
		for i := range m.deals.Data {
			if m.deals.Data[i].ID == *id {
				return dealPrefill(&m.deals.Data[i])
			}
		}
	}
	return formPrefill{values: map[string]string{}}
}

func contactPrefill(c *models.Contact) formPrefill {
	return formPrefill{
		values: map[string]string{
			"firstName": c.FirstName,
			"lastName":  c.LastName,
			"email":     c.Email,
			"phone":     c.Phone,
			"title":     c.Title,
			"status":    c.Status,
		},
		companyRef: c.CompanyID,
	}
}

func companyPrefill(c *models.Company) formPrefill {
	return formPrefill{
		values: map[string]string{
			"name":     c.Name,
			"domain":   c.Domain,
			"industry": c.Industry,
			"size":     c.Size,
			"status":   c.Status,
			"website":  c.Website,
		},
	}
}

func dealPrefill(d *models.Deal) formPrefill {
	values := map[string]string{
		"name":        d.Name,
		"probability": strconv.Itoa(d.Probability),
		"stage":       d.Stage,
	}
	if d.Value != nil {
		values["value"] = strconv.FormatFloat(*d.Value, 'f', -1, 64)
	}
	if d.ExpectedCloseDate != nil {
		values["expectedCloseDate"] = d.ExpectedCloseDate.Format("2006-01-02")
	}
	return formPrefill{
		values:     values,
		companyRef: d.CompanyID,
		contactRef: d.ContactID,
	}
}

func (m Model) renderFormView() string {
	var s strings.Builder

	mode := "NEW"
	if m.modal.target != nil {
		mode = "EDIT"
	}
	s.WriteString(titleStyle.Render(mode + " " + strings.ToUpper(m.modal.entity.Label())))
	s.WriteString("\n\n")

	for i, f := range m.form.fields {
		label := fieldLabelStyle.Render(f.label)
		var value string
		if f.options != nil {
			cursor := "  "
			if i == m.form.focus {
				cursor = "> "
			}
			opt := f.options[f.optIdx]
			if opt == "" {
				opt = "(none)"
			}
			value = cursor + "< " + opt + " >"
		} else {
			value = f.input.View()
		}
		s.WriteString(label + " " + value + "\n")
	}

	if m.form.errText != "" {
		s.WriteString("\n" + noticeFailStyle.Render(m.form.errText) + "\n")
	}
	if m.form.busy {
		s.WriteString("\n" + statsStyle.Render("Saving...") + "\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderNotice())
	s.WriteString(helpStyle.Render("↑/↓: Field • ←/→: Option • Enter: Next/Save • Esc: Cancel"))
	return s.String()
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Esc always works, including mid-flight; the in-flight result is then
	// ignored by the closed modal.
	if msg.String() == "esc" {
		m.modal = closedModal()
		return m, nil
	}
	if m.form.busy {
		return m, nil
	}

	switch msg.String() {
	case "up", "shift+tab":
		if m.form.focus > 0 {
			m.form.setFocus(m.form.focus - 1)
		}
		return m, nil
	case "down", "tab":
		if m.form.focus < len(m.form.fields)-1 {
			m.form.setFocus(m.form.focus + 1)
		}
		return m, nil
	case "left":
		if f := &m.form.fields[m.form.focus]; f.options != nil && f.optIdx > 0 {
			f.optIdx--
			return m, nil
		}
	case "right":
		if f := &m.form.fields[m.form.focus]; f.options != nil && f.optIdx < len(f.options)-1 {
			f.optIdx++
			return m, nil
		}
	case "enter":
		if m.form.focus < len(m.form.fields)-1 {
			m.form.setFocus(m.form.focus + 1)
			return m, nil
		}
		return m.submitForm()
	}

	f := &m.form.fields[m.form.focus]
	if f.options == nil {
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	cmd, errText := m.buildSubmit()
	if errText != "" {
		m.form.errText = errText
		return m, nil
	}
	m.form.errText = ""
	m.form.busy = true
	return m, cmd
}

// buildSubmit assembles the typed input, validates it at the boundary, and
// returns the create or update command depending on the edit target.
func (m Model) buildSubmit() (tea.Cmd, string) {
	repo := m.repo
	target := m.modal.target
	verb := "created"
	if target != nil {
		verb = "updated"
	}
	field := m.form.fieldValue

	switch m.modal.entity {
	case models.EntityCompany:
		in := models.CompanyInput{
			Name:     field("name"),
			Domain:   field("domain"),
			Industry: field("industry"),
			Size:     field("size"),
			Status:   field("status"),
			Website:  field("website"),
		}
		if err := in.Validate(); err != nil {
			return nil, err.Error()
		}
		return func() tea.Msg {
			var err error
			if target != nil {
				var updated *models.Company
				updated, err = repo.UpdateCompany(context.Background(), *target, in)
				// A nil result with no error means the record vanished.
				if err == nil && updated == nil {
					err = errNotFound
				}
			} else {
				_, err = repo.CreateCompany(context.Background(), in)
			}
			return mutationDoneMsg{entity: models.EntityCompany, verb: verb, err: err}
		}, ""

	case models.EntityDeal:
		value, err := parseOptionalFloat(field("value"))
		if err != nil {
			return nil, "value must be a number"
		}
		probability, err := parseOptionalInt(field("probability"))
		if err != nil {
			return nil, "probability must be a whole number"
		}
		closeDate, err := parseOptionalDate(field("expectedCloseDate"))
		if err != nil {
			return nil, "expected close must be YYYY-MM-DD"
		}
		in := models.DealInput{
			Name:              field("name"),
			Value:             value,
			Stage:             field("stage"),
			Probability:       probability,
			ExpectedCloseDate: closeDate,
			CompanyID:         m.form.companyRef,
			ContactID:         m.form.contactRef,
		}
		if err := in.Validate(); err != nil {
			return nil, err.Error()
		}
		return func() tea.Msg {
			var err error
			if target != nil {
				var updated *models.Deal
				updated, err = repo.UpdateDeal(context.Background(), *target, in)
				if err == nil && updated == nil {
					err = errNotFound
				}
			} else {
				_, err = repo.CreateDeal(context.Background(), in)
			}
			return mutationDoneMsg{entity: models.EntityDeal, verb: verb, err: err}
		}, ""
	}

	in := models.ContactInput{
		FirstName: field("firstName"),
		LastName:  field("lastName"),
		Email:     field("email"),
		Phone:     field("phone"),
		Title:     field("title"),
		Status:    field("status"),
		CompanyID: m.form.companyRef,
	}
	if err := in.Validate(); err != nil {
		return nil, err.Error()
	}
	return func() tea.Msg {
		var err error
		if target != nil {
			var updated *models.Contact
			updated, err = repo.UpdateContact(context.Background(), *target, in)
			if err == nil && updated == nil {
				err = errNotFound
			}
		} else {
			_, err = repo.CreateContact(context.Background(), in)
		}
		return mutationDoneMsg{entity: models.EntityContact, verb: verb, err: err}
	}, ""
}

func (f *entityForm) fieldValue(key string) string {
	for i := range f.fields {
		if f.fields[i].key == key {
			return f.fields[i].value()
		}
	}
	return ""
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
