// ABOUTME: Tests for the workspace orchestrator state machine
// ABOUTME: Drives Update with synthesized messages against a recording fake repository
package workspace

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/revdeck/models"
)

// fakeRepo records every call so tests can assert exactly which repository
// operations an orchestrator action dispatched.
type fakeRepo struct {
	calls []string

	contacts  models.ContactPage
	companies models.CompanyPage
	deals     models.DealPage

	contactDetail *models.ContactDetail
	dealDetail    *models.DealDetail

	// missing makes every update report an absent record: nil entity, nil
	// error, matching the store's behavior for an unknown id.
	missing bool

	lastContactInput models.ContactInput
}

func (f *fakeRepo) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeRepo) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeRepo) ListContacts(context.Context, models.ListFilter) (models.ContactPage, error) {
	f.record("ListContacts")
	return f.contacts, nil
}

func (f *fakeRepo) ContactDetail(context.Context, uuid.UUID) (*models.ContactDetail, error) {
	f.record("ContactDetail")
	return f.contactDetail, nil
}

func (f *fakeRepo) CreateContact(_ context.Context, in models.ContactInput) (*models.Contact, error) {
	f.record("CreateContact")
	return &models.Contact{ID: uuid.New(), FirstName: in.FirstName}, nil
}

func (f *fakeRepo) UpdateContact(_ context.Context, id uuid.UUID, in models.ContactInput) (*models.Contact, error) {
	f.record("UpdateContact")
	f.lastContactInput = in
	if f.missing {
		return nil, nil
	}
	return &models.Contact{ID: id, FirstName: in.FirstName}, nil
}

func (f *fakeRepo) DeleteContact(context.Context, uuid.UUID) error {
	f.record("DeleteContact")
	return nil
}

func (f *fakeRepo) ListCompanies(context.Context, models.ListFilter) (models.CompanyPage, error) {
	f.record("ListCompanies")
	return f.companies, nil
}

func (f *fakeRepo) CompanyDetail(context.Context, uuid.UUID) (*models.CompanyDetail, error) {
	f.record("CompanyDetail")
	return nil, nil
}

func (f *fakeRepo) CreateCompany(_ context.Context, in models.CompanyInput) (*models.Company, error) {
	f.record("CreateCompany")
	return &models.Company{ID: uuid.New(), Name: in.Name}, nil
}

func (f *fakeRepo) UpdateCompany(_ context.Context, id uuid.UUID, in models.CompanyInput) (*models.Company, error) {
	f.record("UpdateCompany")
	if f.missing {
		return nil, nil
	}
	return &models.Company{ID: id, Name: in.Name}, nil
}

func (f *fakeRepo) DeleteCompany(context.Context, uuid.UUID) error {
	f.record("DeleteCompany")
	return nil
}

func (f *fakeRepo) ListDeals(context.Context, models.ListFilter) (models.DealPage, error) {
	f.record("ListDeals")
	return f.deals, nil
}

func (f *fakeRepo) DealDetail(context.Context, uuid.UUID) (*models.DealDetail, error) {
	f.record("DealDetail")
	return f.dealDetail, nil
}

func (f *fakeRepo) CreateDeal(_ context.Context, in models.DealInput) (*models.Deal, error) {
	f.record("CreateDeal")
	return &models.Deal{ID: uuid.New(), Name: in.Name}, nil
}

func (f *fakeRepo) UpdateDeal(_ context.Context, id uuid.UUID, in models.DealInput) (*models.Deal, error) {
	f.record("UpdateDeal")
	if f.missing {
		return nil, nil
	}
	return &models.Deal{ID: id, Name: in.Name}, nil
}

func (f *fakeRepo) ChangeDealStage(_ context.Context, id uuid.UUID, stage string) (*models.Deal, error) {
	f.record("ChangeDealStage")
	return &models.Deal{ID: id, Stage: stage}, nil
}

func (f *fakeRepo) DeleteDeal(context.Context, uuid.UUID) error {
	f.record("DeleteDeal")
	return nil
}

func (f *fakeRepo) Stats(context.Context) (*models.Stats, error) {
	f.record("Stats")
	return &models.Stats{}, nil
}

// drain runs a command (and any batched sub-commands) synchronously, feeding
// each resulting message back into Update.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if msg == nil {
		return m
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			m = drain(t, m, sub)
		}
		return m
	}
	m, next := m.Update(msg)
	return drain(t, m, next)
}

func newTestModel(repo *fakeRepo) Model {
	m := New(repo, "")
	m.boardView = false
	m.noticeTTL = time.Millisecond
	return m
}

func TestEditThenSubmitCallsUpdateNeverCreate(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{
		contacts: models.ContactPage{Data: []models.Contact{
			{ID: id, FirstName: "Ada", LastName: "Lovelace", Status: "lead"},
		}},
	}
	m := newTestModel(repo)

	next, _ := m.openEdit(models.EntityContact, id)
	require.Equal(t, modalEditing, next.modal.kind)
	require.NotNil(t, next.modal.target)

	cmd, errText := next.buildSubmit()
	require.Empty(t, errText)
	cmd()

	assert.Equal(t, 1, repo.count("UpdateContact"))
	assert.Zero(t, repo.count("CreateContact"))
}

func TestCreateThenSubmitCallsCreateNeverUpdate(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)

	next, _ := m.openCreate(models.EntityCompany)
	require.Equal(t, modalEditing, next.modal.kind)
	require.Nil(t, next.modal.target)
	next.form.fields[0].input.SetValue("Acme Corp")

	cmd, errText := next.buildSubmit()
	require.Empty(t, errText)
	cmd()

	assert.Equal(t, 1, repo.count("CreateCompany"))
	assert.Zero(t, repo.count("UpdateCompany"))
}

func TestUpdateOfVanishedRecordIsFailure(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{
		missing: true,
		contacts: models.ContactPage{Data: []models.Contact{
			{ID: id, FirstName: "Ada", LastName: "Lovelace", Status: "lead"},
		}},
	}
	m := newTestModel(repo)
	m.contacts = repo.contacts

	opened, _ := m.openEdit(models.EntityContact, id)
	cmd, errText := opened.buildSubmit()
	require.Empty(t, errText)
	opened.form.busy = true

	msg, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	require.Error(t, msg.err)

	// The record disappeared under the edit: the modal stays open and the
	// user sees a failure, not a success.
	next, _ := opened.applyMutation(msg)
	assert.Equal(t, modalEditing, next.modal.kind)
	assert.False(t, next.form.busy)
	require.NotNil(t, next.notice)
	assert.True(t, next.notice.failed)
	assert.Equal(t, "Failed to update contact", next.notice.text)
}

func TestUpdateOfVanishedDealIsFailure(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{
		missing: true,
		deals: models.DealPage{Data: []models.Deal{
			{ID: id, Name: "Acme Renewal", Stage: models.StageProposal},
		}},
	}
	m := newTestModel(repo)
	m.tab = TabDeals
	m.deals = repo.deals

	opened, _ := m.openEdit(models.EntityDeal, id)
	cmd, errText := opened.buildSubmit()
	require.Empty(t, errText)

	msg, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	assert.Error(t, msg.err)
}

func TestEditPrefillsFormFromListRow(t *testing.T) {
	id := uuid.New()
	companyID := uuid.New()
	score := 82
	repo := &fakeRepo{}
	m := newTestModel(repo)
	m.contacts = models.ContactPage{Data: []models.Contact{
		{ID: id, FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.com",
			Phone: "+1 312 555 0100", Title: "VP Engineering", Status: "customer",
			Score: &score, CompanyID: &companyID},
	}}

	opened, _ := m.openEdit(models.EntityContact, id)

	assert.Equal(t, "Ada", opened.form.fieldValue("firstName"))
	assert.Equal(t, "Lovelace", opened.form.fieldValue("lastName"))
	assert.Equal(t, "ada@acme.com", opened.form.fieldValue("email"))
	assert.Equal(t, "+1 312 555 0100", opened.form.fieldValue("phone"))
	assert.Equal(t, "VP Engineering", opened.form.fieldValue("title"))
	assert.Equal(t, "customer", opened.form.fieldValue("status"))
	// The company link has no form field; it rides along on the form.
	require.NotNil(t, opened.form.companyRef)
	assert.Equal(t, companyID, *opened.form.companyRef)

	cmd, errText := opened.buildSubmit()
	require.Empty(t, errText)
	cmd()

	assert.Equal(t, "Ada", repo.lastContactInput.FirstName)
	assert.Equal(t, "customer", repo.lastContactInput.Status)
	require.NotNil(t, repo.lastContactInput.CompanyID)
	assert.Equal(t, companyID, *repo.lastContactInput.CompanyID)
}

func TestEditPrefillsFormFromLoadedDetail(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{}
	m := newTestModel(repo)
	m.contactDetail = &models.ContactDetail{Contact: models.Contact{
		ID: id, FirstName: "Grace", LastName: "Hopper", Status: "qualified",
	}}

	opened, _ := m.openEdit(models.EntityContact, id)

	assert.Equal(t, "Grace", opened.form.fieldValue("firstName"))
	assert.Equal(t, "Hopper", opened.form.fieldValue("lastName"))
	assert.Equal(t, "qualified", opened.form.fieldValue("status"))
}

func TestSubmitValidationFailureSkipsRepository(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)

	next, _ := m.openCreate(models.EntityDeal)
	cmd, errText := next.buildSubmit()

	assert.Nil(t, cmd)
	assert.NotEmpty(t, errText)
	assert.Empty(t, repo.calls)
}

func TestModalsAreMutuallyExclusive(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{}
	m := newTestModel(repo)

	viewing, _ := m.openView(models.EntityContact, id)
	assert.Equal(t, modalViewing, viewing.modal.kind)

	// Opening the edit modal replaces the detail modal outright.
	editing, _ := viewing.openEdit(models.EntityContact, id)
	assert.Equal(t, modalEditing, editing.modal.kind)

	confirming, _ := editing.openConfirmDelete(models.EntityContact, id)
	assert.Equal(t, modalConfirmDelete, confirming.modal.kind)
}

func TestStaleDetailResultIsDiscarded(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	repo := &fakeRepo{}
	m := newTestModel(repo)

	opened, _ := m.openView(models.EntityContact, first)
	staleToken := opened.detailToken

	// The user redirects to a different record before the first fetch lands.
	redirected, _ := opened.openView(models.EntityContact, second)

	stale := detailLoadedMsg{
		token:   staleToken,
		entity:  models.EntityContact,
		id:      first,
		contact: &models.ContactDetail{Contact: models.Contact{ID: first, FirstName: "Stale"}},
	}
	applied, _ := redirected.applyDetail(stale)
	assert.Nil(t, applied.contactDetail)

	// A result for the current target still applies.
	fresh := detailLoadedMsg{
		token:   redirected.detailToken,
		entity:  models.EntityContact,
		id:      second,
		contact: &models.ContactDetail{Contact: models.Contact{ID: second, FirstName: "Fresh"}},
	}
	applied, _ = redirected.applyDetail(fresh)
	require.NotNil(t, applied.contactDetail)
	assert.Equal(t, "Fresh", applied.contactDetail.FirstName)
}

func TestDetailResultAfterCloseIsDiscarded(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{}
	m := newTestModel(repo)

	opened, _ := m.openView(models.EntityContact, id)
	token := opened.detailToken
	opened.modal = closedModal()

	msg := detailLoadedMsg{
		token:   token,
		entity:  models.EntityContact,
		id:      id,
		contact: &models.ContactDetail{Contact: models.Contact{ID: id}},
	}
	applied, _ := opened.applyDetail(msg)
	assert.Nil(t, applied.contactDetail)
}

func TestInvalidStageChangeNeverReachesRepository(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)

	next, cmd := m.changeStage(uuid.New(), "imagined")
	drain(t, next, cmd)

	assert.Empty(t, repo.calls)
	require.NotNil(t, next.notice)
	assert.True(t, next.notice.failed)
}

func TestStageChangeCallsUpdateOnceThenStats(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)

	next, cmd := m.changeStage(uuid.New(), models.StageNegotiation)
	drain(t, next, cmd)

	assert.Equal(t, 1, repo.count("ChangeDealStage"))
	assert.Equal(t, 1, repo.count("Stats"))
	// The deal list keeps its own refresh cadence.
	assert.Zero(t, repo.count("ListDeals"))
}

func TestDeleteRefetchesListAndStats(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{}
	m := newTestModel(repo)
	m.modal = modalState{kind: modalConfirmDelete, entity: models.EntityContact, id: id}

	next, cmd := m.handleConfirmKeys(keyMsg("y"))
	drain(t, next, cmd)

	assert.Equal(t, 1, repo.count("DeleteContact"))
	assert.Equal(t, 1, repo.count("ListContacts"))
	assert.Equal(t, 1, repo.count("Stats"))
}

func TestContactUpdateDoesNotRefetchStats(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)

	next, cmd := m.applyMutation(mutationDoneMsg{entity: models.EntityContact, verb: "updated"})
	drain(t, next, cmd)

	assert.Equal(t, 1, repo.count("ListContacts"))
	assert.Zero(t, repo.count("Stats"))
}

func TestMutationFailureKeepsFormOpen(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)
	opened, _ := m.openCreate(models.EntityContact)
	opened.form.busy = true

	next, _ := opened.applyMutation(mutationDoneMsg{entity: models.EntityContact, verb: "created", err: errNotFound})

	assert.Equal(t, modalEditing, next.modal.kind)
	assert.False(t, next.form.busy)
	require.NotNil(t, next.notice)
	assert.True(t, next.notice.failed)
}

func TestContactCellsRenderNoEmail(t *testing.T) {
	c := models.Contact{FirstName: "Ada", LastName: "Lovelace", Status: "lead"}
	cells := contactCells(c)

	assert.Equal(t, "Ada Lovelace", cells[0])
	assert.Equal(t, "No email", cells[1])
	assert.Equal(t, "lead", cells[3])
}

func TestDealsTabAlwaysFiltersOpen(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(repo)
	m.tab = TabDeals
	m.statusFilter = "qualified"

	f := m.activeFilter()
	assert.Equal(t, models.DealStatusOpen, f.Status)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
