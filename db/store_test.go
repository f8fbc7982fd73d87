// ABOUTME: Integration tests for the sqlite-backed store
// ABOUTME: Exercises CRUD, filtering, pagination, detail projections, and stats
package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegray/revdeck/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreateCompany(t *testing.T, s *Store, name string) *models.Company {
	t.Helper()
	company, err := s.CreateCompany(context.Background(), models.CompanyInput{Name: name})
	require.NoError(t, err)
	require.NotNil(t, company)
	return company
}

func TestContactCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.CreateContact(ctx, models.ContactInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@acme.com",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "lead", created.Status)

	detail, err := store.ContactDetail(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Ada Lovelace", detail.DisplayName())

	updated, err := store.UpdateContact(ctx, created.ID, models.ContactInput{
		FirstName: "Ada",
		LastName:  "Byron",
		Status:    "customer",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Byron", updated.LastName)
	assert.Equal(t, "customer", updated.Status)

	require.NoError(t, store.DeleteContact(ctx, created.ID))

	gone, err := store.ContactDetail(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateMissingContactReturnsNil(t *testing.T) {
	store := setupTestStore(t)

	updated, err := store.UpdateContact(context.Background(), uuid.New(), models.ContactInput{FirstName: "Ghost"})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestContactListJoinsCompanyName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	company := mustCreateCompany(t, store, "Acme Corp")
	_, err := store.CreateContact(ctx, models.ContactInput{
		FirstName: "Ada",
		CompanyID: &company.ID,
	})
	require.NoError(t, err)

	page, err := store.ListContacts(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Acme Corp", page.Data[0].CompanyName)
}

func TestContactSearchAndStatusFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateContact(ctx, models.ContactInput{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	_, err = store.CreateContact(ctx, models.ContactInput{FirstName: "Grace", LastName: "Hopper", Status: "customer"})
	require.NoError(t, err)

	page, err := store.ListContacts(ctx, models.ListFilter{Search: "lovel"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ada", page.Data[0].FirstName)

	page, err = store.ListContacts(ctx, models.ListFilter{Status: "customer"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Grace", page.Data[0].FirstName)

	// "all" means no status filter.
	page, err = store.ListContacts(ctx, models.ListFilter{Status: models.StatusAll})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestContactPagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := store.CreateContact(ctx, models.ContactInput{FirstName: fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
	}

	page, err := store.ListContacts(ctx, models.ListFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, 7, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.Page)
}

func TestCompanyDetailPreviewsAndTotalValue(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	company := mustCreateCompany(t, store, "Acme Corp")
	for i := 0; i < 7; i++ {
		_, err := store.CreateContact(ctx, models.ContactInput{
			FirstName: fmt.Sprintf("c%d", i),
			CompanyID: &company.ID,
		})
		require.NoError(t, err)
	}
	for i, value := range []float64{10000, 25000} {
		v := value
		_, err := store.CreateDeal(ctx, models.DealInput{
			Name:      fmt.Sprintf("deal-%d", i),
			Value:     &v,
			CompanyID: &company.ID,
		})
		require.NoError(t, err)
	}

	detail, err := store.CompanyDetail(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)

	// Related previews are bounded; aggregates cover everything.
	assert.Len(t, detail.Contacts, 5)
	assert.Len(t, detail.Deals, 2)
	assert.InDelta(t, 35000, detail.TotalValue, 0.01)

	page, err := store.ListCompanies(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 7, page.Data[0].ContactCount)
	assert.Equal(t, 2, page.Data[0].DealCount)
}

func TestDeleteCompanyDetachesRelations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	company := mustCreateCompany(t, store, "Acme Corp")
	contact, err := store.CreateContact(ctx, models.ContactInput{FirstName: "Ada", CompanyID: &company.ID})
	require.NoError(t, err)
	deal, err := store.CreateDeal(ctx, models.DealInput{Name: "Renewal", CompanyID: &company.ID})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCompany(ctx, company.ID))

	cd, err := store.ContactDetail(ctx, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, cd)
	assert.Nil(t, cd.CompanyID)

	dd, err := store.DealDetail(ctx, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, dd)
	assert.Nil(t, dd.CompanyID)
}

func TestDealStatusFollowsStage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	deal, err := store.CreateDeal(ctx, models.DealInput{Name: "Renewal", Stage: models.StageProposal})
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusOpen, deal.Status)

	moved, err := store.ChangeDealStage(ctx, deal.ID, models.StageClosedWon)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, models.StageClosedWon, moved.Stage)
	assert.Equal(t, models.DealStatusWon, moved.Status)
}

func TestChangeStageRejectsUnknownStage(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.ChangeDealStage(context.Background(), uuid.New(), "handshake")
	assert.Error(t, err)
}

func TestDealDetailResolvesPrimaryContact(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	contact, err := store.CreateContact(ctx, models.ContactInput{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	deal, err := store.CreateDeal(ctx, models.DealInput{Name: "Renewal", ContactID: &contact.ID})
	require.NoError(t, err)

	detail, err := store.DealDetail(ctx, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.NotNil(t, detail.PrimaryContact)
	assert.Equal(t, "Ada Lovelace", detail.PrimaryContact.DisplayName())
}

func TestDealListFiltersOpenOnly(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateDeal(ctx, models.DealInput{Name: "Live", Stage: models.StageProposal})
	require.NoError(t, err)
	won, err := store.CreateDeal(ctx, models.DealInput{Name: "Done", Stage: models.StageProposal})
	require.NoError(t, err)
	_, err = store.ChangeDealStage(ctx, won.ID, models.StageClosedWon)
	require.NoError(t, err)

	page, err := store.ListDeals(ctx, models.ListFilter{Status: models.DealStatusOpen})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Live", page.Data[0].Name)
}

func TestDeleteMissingRecordsReturnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.DeleteContact(ctx, uuid.New()))
	assert.Error(t, store.DeleteCompany(ctx, uuid.New()))
	assert.Error(t, store.DeleteDeal(ctx, uuid.New()))
}

func TestDealListStageFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateDeal(ctx, models.DealInput{Name: "Early", Stage: models.StageDiscovery})
	require.NoError(t, err)
	_, err = store.CreateDeal(ctx, models.DealInput{Name: "Late", Stage: models.StageNegotiation})
	require.NoError(t, err)

	page, err := store.ListDeals(ctx, models.ListFilter{Stage: models.StageNegotiation})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Late", page.Data[0].Name)
	// The reported total reflects the stage filter, not the whole table.
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestStatsProjection(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	mustCreateCompany(t, store, "Acme Corp")
	_, err := store.CreateContact(ctx, models.ContactInput{FirstName: "Ada"})
	require.NoError(t, err)

	values := []struct {
		value float64
		stage string
	}{
		{50000, models.StageProposal},
		{30000, models.StageNegotiation},
		{20000, models.StageClosedWon},
		{10000, models.StageClosedLost},
	}
	for i, v := range values {
		val := v.value
		_, err := store.CreateDeal(ctx, models.DealInput{
			Name:  fmt.Sprintf("deal-%d", i),
			Value: &val,
			Stage: v.stage,
		})
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 1, stats.TotalContacts)
	assert.Equal(t, 1, stats.TotalCompanies)
	// Pipeline value counts open deals only.
	assert.InDelta(t, 80000, stats.PipelineValue, 0.01)
	// One won, one lost.
	assert.InDelta(t, 50.0, stats.WinRate, 0.01)

	proposal := stats.DealsByStage[models.StageProposal]
	assert.Equal(t, 1, proposal.Count)
	assert.InDelta(t, 50000, proposal.Value, 0.01)
}

func TestSeedRefusesNonEmptyStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx))
	assert.Error(t, store.Seed(ctx))

	page, err := store.ListContacts(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Data)
}
