// ABOUTME: Relationship workspace orchestrator built on bubbletea
// ABOUTME: Owns tab/filter/modal state and mediates all repository access
package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/calegray/revdeck/models"
)

var errNotFound = errors.New("record not found")

// Repository is the data-access boundary the workspace coordinates.
// Implemented by db.Store; tests substitute a recording fake.
type Repository interface {
	ListContacts(ctx context.Context, f models.ListFilter) (models.ContactPage, error)
	ContactDetail(ctx context.Context, id uuid.UUID) (*models.ContactDetail, error)
	CreateContact(ctx context.Context, in models.ContactInput) (*models.Contact, error)
	UpdateContact(ctx context.Context, id uuid.UUID, in models.ContactInput) (*models.Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error

	ListCompanies(ctx context.Context, f models.ListFilter) (models.CompanyPage, error)
	CompanyDetail(ctx context.Context, id uuid.UUID) (*models.CompanyDetail, error)
	CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error)
	UpdateCompany(ctx context.Context, id uuid.UUID, in models.CompanyInput) (*models.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error

	ListDeals(ctx context.Context, f models.ListFilter) (models.DealPage, error)
	DealDetail(ctx context.Context, id uuid.UUID) (*models.DealDetail, error)
	CreateDeal(ctx context.Context, in models.DealInput) (*models.Deal, error)
	UpdateDeal(ctx context.Context, id uuid.UUID, in models.DealInput) (*models.Deal, error)
	ChangeDealStage(ctx context.Context, id uuid.UUID, stage string) (*models.Deal, error)
	DeleteDeal(ctx context.Context, id uuid.UUID) error

	Stats(ctx context.Context) (*models.Stats, error)
}

// Tab selects which entity collection is visible.
type Tab int

const (
	TabContacts Tab = iota
	TabCompanies
	TabDeals
)

func (t Tab) String() string {
	switch t {
	case TabContacts:
		return "contacts"
	case TabCompanies:
		return "companies"
	case TabDeals:
		return "deals"
	}
	return ""
}

func (t Tab) entity() models.EntityKind {
	switch t {
	case TabCompanies:
		return models.EntityCompany
	case TabDeals:
		return models.EntityDeal
	}
	return models.EntityContact
}

// Modal state. Exactly one field combination is meaningful per kind, and
// the single struct slot on Model makes overlapping modals unrepresentable.
type modalKind int

const (
	modalClosed modalKind = iota
	modalViewing
	modalEditing
	modalConfirmDelete
)

type modalState struct {
	kind   modalKind
	entity models.EntityKind
	id     uuid.UUID  // viewing / confirm target
	target *uuid.UUID // editing target; nil means create
}

func closedModal() modalState { return modalState{kind: modalClosed} }

type notice struct {
	text   string
	failed bool
}

// Messages delivered when suspended repository calls complete.
type (
	contactsLoadedMsg struct {
		page models.ContactPage
		err  error
	}
	companiesLoadedMsg struct {
		page models.CompanyPage
		err  error
	}
	dealsLoadedMsg struct {
		page models.DealPage
		err  error
	}
	statsLoadedMsg struct {
		stats *models.Stats
		err   error
	}
	detailLoadedMsg struct {
		token   string
		entity  models.EntityKind
		id      uuid.UUID
		contact *models.ContactDetail
		company *models.CompanyDetail
		deal    *models.DealDetail
		err     error
	}
	mutationDoneMsg struct {
		entity models.EntityKind
		verb   string // "created", "updated", "deleted"
		err    error
	}
	stageChangedMsg struct {
		err error
	}
	exportDoneMsg struct {
		path string
		rows int
		err  error
	}
	noticeExpiredMsg struct {
		seq int
	}
)

const defaultNoticeTTL = 4 * time.Second

// Model is the workspace orchestrator.
type Model struct {
	repo Repository

	tab          Tab
	searchInput  textinput.Model
	searching    bool
	searchQuery  string
	statusFilter string

	contacts  models.ContactPage
	companies models.CompanyPage
	deals     models.DealPage
	stats     *models.Stats

	modal       modalState
	detailToken string

	contactDetail *models.ContactDetail
	companyDetail *models.CompanyDetail
	dealDetail    *models.DealDetail

	form entityForm

	cursor int

	// Deals tab board state.
	boardView    bool
	boardCol     int
	boardRow     int
	stagePicking bool
	stagePickIdx int

	notice    *notice
	noticeSeq int
	noticeTTL time.Duration

	exportDir string
	now       func() time.Time

	width  int
	height int
}

// New builds a workspace over the given repository. Exports land in exportDir.
func New(repo Repository, exportDir string) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 64

	return Model{
		repo:         repo,
		tab:          TabContacts,
		searchInput:  search,
		statusFilter: models.StatusAll,
		noticeTTL:    defaultNoticeTTL,
		boardView:    true,
		exportDir:    exportDir,
		now:          time.Now,
		width:        80,
		height:       24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadActiveList(), m.loadStats())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case contactsLoadedMsg:
		// Last-resolved response wins; no reordering of in-flight fetches.
		if msg.err == nil {
			m.contacts = msg.page
			m.clampCursor()
		}
		return m, nil

	case companiesLoadedMsg:
		if msg.err == nil {
			m.companies = msg.page
			m.clampCursor()
		}
		return m, nil

	case dealsLoadedMsg:
		if msg.err == nil {
			m.deals = msg.page
			m.clampCursor()
		}
		return m, nil

	case statsLoadedMsg:
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, nil

	case detailLoadedMsg:
		return m.applyDetail(msg)

	case mutationDoneMsg:
		return m.applyMutation(msg)

	case stageChangedMsg:
		if msg.err != nil {
			return m.notify("Failed to update deal stage", true)
		}
		next, cmd := m.notify("Deal stage updated", false)
		// Stats depend on stage composition; the deal list keeps its own
		// refresh cadence.
		return next, tea.Batch(cmd, next.loadStats())

	case exportDoneMsg:
		if msg.err != nil {
			return m.notify("Failed to export "+m.tab.String(), true)
		}
		return m.notify("Exported "+m.tab.String()+" to "+msg.path, false)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.modal.kind {
		case modalViewing:
			return m.handleDetailKeys(msg)
		case modalEditing:
			return m.handleFormKeys(msg)
		case modalConfirmDelete:
			return m.handleConfirmKeys(msg)
		}
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		if m.tab == TabDeals && m.boardView {
			return m.handleBoardKeys(msg)
		}
		return m.handleListKeys(msg)
	}

	return m, nil
}

func (m Model) View() string {
	switch m.modal.kind {
	case modalViewing:
		return m.renderDetailView()
	case modalEditing:
		return m.renderFormView()
	case modalConfirmDelete:
		return m.renderConfirmView()
	}
	if m.tab == TabDeals && m.boardView {
		return m.renderBoardView()
	}
	return m.renderListView()
}

// openView opens the detail modal and dispatches the fetch. The result is
// only applied if the modal still targets the same record when it lands.
func (m Model) openView(entity models.EntityKind, id uuid.UUID) (Model, tea.Cmd) {
	m.modal = modalState{kind: modalViewing, entity: entity, id: id}
	m.contactDetail = nil
	m.companyDetail = nil
	m.dealDetail = nil
	m.detailToken = newRequestToken()
	return m, m.loadDetail(m.detailToken, entity, id)
}

func (m Model) openCreate(entity models.EntityKind) (Model, tea.Cmd) {
	m.modal = modalState{kind: modalEditing, entity: entity}
	m.form = newEntityForm(entity, m.prefillFor(entity, nil))
	return m, textinput.Blink
}

func (m Model) openEdit(entity models.EntityKind, id uuid.UUID) (Model, tea.Cmd) {
	target := id
	m.modal = modalState{kind: modalEditing, entity: entity, target: &target}
	m.form = newEntityForm(entity, m.prefillFor(entity, &id))
	return m, textinput.Blink
}

func (m Model) openConfirmDelete(entity models.EntityKind, id uuid.UUID) (Model, tea.Cmd) {
	m.modal = modalState{kind: modalConfirmDelete, entity: entity, id: id}
	return m, nil
}

func (m Model) applyDetail(msg detailLoadedMsg) (Model, tea.Cmd) {
	// Discard stale results: the fetch may resolve after the modal moved on.
	if msg.token != m.detailToken || m.modal.kind != modalViewing ||
		m.modal.entity != msg.entity || m.modal.id != msg.id {
		return m, nil
	}
	if msg.err != nil {
		return m.notify("Failed to load "+string(msg.entity)+" detail", true)
	}
	m.contactDetail = msg.contact
	m.companyDetail = msg.company
	m.dealDetail = msg.deal
	return m, nil
}

func (m Model) applyMutation(msg mutationDoneMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if m.modal.kind == modalEditing {
			m.form.busy = false
		}
		return m.notify("Failed to "+failVerb(msg.verb)+" "+string(msg.entity), true)
	}

	m.modal = closedModal()
	next, cmd := m.notify(msg.entity.Label()+" "+msg.verb, false)

	cmds := []tea.Cmd{cmd, next.loadActiveList()}
	if statsAffected(msg.entity, msg.verb) {
		cmds = append(cmds, next.loadStats())
	}
	return next, tea.Batch(cmds...)
}

// Stats only change when pipeline composition can: any deal mutation, or
// contact/company create/delete.
func statsAffected(entity models.EntityKind, verb string) bool {
	if entity == models.EntityDeal {
		return true
	}
	return verb == "created" || verb == "deleted"
}

func failVerb(verb string) string {
	switch verb {
	case "created":
		return "create"
	case "updated":
		return "update"
	case "deleted":
		return "delete"
	}
	return verb
}

func (m Model) notify(text string, failed bool) (Model, tea.Cmd) {
	m.notice = &notice{text: text, failed: failed}
	m.noticeSeq++
	seq := m.noticeSeq
	return m, tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// activeFilter builds the list filter for the current tab. The deals tab
// ignores the status filter and always requests open deals.
func (m Model) activeFilter() models.ListFilter {
	f := models.ListFilter{Search: m.searchQuery, Status: m.statusFilter}
	if m.tab == TabDeals {
		f.Status = models.DealStatusOpen
	}
	return f
}

func (m Model) loadActiveList() tea.Cmd {
	repo := m.repo
	f := m.activeFilter()
	switch m.tab {
	case TabCompanies:
		return func() tea.Msg {
			page, err := repo.ListCompanies(context.Background(), f)
			return companiesLoadedMsg{page: page, err: err}
		}
	case TabDeals:
		return func() tea.Msg {
			page, err := repo.ListDeals(context.Background(), f)
			return dealsLoadedMsg{page: page, err: err}
		}
	}
	return func() tea.Msg {
		page, err := repo.ListContacts(context.Background(), f)
		return contactsLoadedMsg{page: page, err: err}
	}
}

func (m Model) loadStats() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		stats, err := repo.Stats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func (m Model) loadDetail(token string, entity models.EntityKind, id uuid.UUID) tea.Cmd {
	repo := m.repo
	switch entity {
	case models.EntityCompany:
		return func() tea.Msg {
			d, err := repo.CompanyDetail(context.Background(), id)
			return detailLoadedMsg{token: token, entity: entity, id: id, company: d, err: err}
		}
	case models.EntityDeal:
		return func() tea.Msg {
			d, err := repo.DealDetail(context.Background(), id)
			return detailLoadedMsg{token: token, entity: entity, id: id, deal: d, err: err}
		}
	}
	return func() tea.Msg {
		d, err := repo.ContactDetail(context.Background(), id)
		return detailLoadedMsg{token: token, entity: entity, id: id, contact: d, err: err}
	}
}

func (m Model) deleteCmd(entity models.EntityKind, id uuid.UUID) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		var err error
		switch entity {
		case models.EntityContact:
			err = repo.DeleteContact(context.Background(), id)
		case models.EntityCompany:
			err = repo.DeleteCompany(context.Background(), id)
		case models.EntityDeal:
			err = repo.DeleteDeal(context.Background(), id)
		}
		return mutationDoneMsg{entity: entity, verb: "deleted", err: err}
	}
}

// changeStage guards the stage value before any repository call.
func (m Model) changeStage(id uuid.UUID, stage string) (Model, tea.Cmd) {
	if !models.IsValidStage(stage) {
		return m.notify("Failed to update deal stage", true)
	}
	repo := m.repo
	return m, func() tea.Msg {
		deal, err := repo.ChangeDealStage(context.Background(), id, stage)
		if err == nil && deal == nil {
			err = errNotFound
		}
		return stageChangedMsg{err: err}
	}
}

func (m *Model) clampCursor() {
	n := m.activeCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) activeCount() int {
	switch m.tab {
	case TabCompanies:
		return len(m.companies.Data)
	case TabDeals:
		return len(m.deals.Data)
	}
	return len(m.contacts.Data)
}

func newRequestToken() string {
	return ulid.Make().String()
}
