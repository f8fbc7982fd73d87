// ABOUTME: Demo dataset loader
// ABOUTME: Populates an empty store with a small set of companies, contacts, and deals
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/calegray/revdeck/models"
)

// Seed inserts a demo dataset. It refuses to run on a non-empty store.
func (s *Store) Seed(ctx context.Context) error {
	var existing int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("store already has data, refusing to seed")
	}

	companies := []models.CompanyInput{
		{Name: "Acme Corp", Domain: "acme.com", Industry: "Manufacturing", Size: "201-1000", Status: models.CompanyStatusCustomer, Website: "https://acme.com", City: "Chicago", State: "IL"},
		{Name: "Northwind Traders", Domain: "northwind.io", Industry: "Logistics", Size: "51-200", Status: models.CompanyStatusQualified, City: "Seattle", State: "WA"},
		{Name: "Globex", Domain: "globex.dev", Industry: "Software", Size: "11-50", Status: models.CompanyStatusProspect, City: "Austin", State: "TX"},
	}

	ids := make(map[string]*models.Company)
	for _, in := range companies {
		c, err := s.CreateCompany(ctx, in)
		if err != nil {
			return fmt.Errorf("seed company %q: %w", in.Name, err)
		}
		ids[c.Name] = c
	}

	contacts := []models.ContactInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.com", Title: "VP Engineering", Status: models.ContactStatusCustomer, CompanyID: &ids["Acme Corp"].ID},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@northwind.io", Phone: "+1 206 555 0100", Title: "Director of Ops", Status: models.ContactStatusQualified, CompanyID: &ids["Northwind Traders"].ID},
		{FirstName: "Linus", LastName: "", Email: "linus@globex.dev", Title: "CTO", Status: models.ContactStatusLead, CompanyID: &ids["Globex"].ID},
	}

	var primary *models.Contact
	for i, in := range contacts {
		c, err := s.CreateContact(ctx, in)
		if err != nil {
			return fmt.Errorf("seed contact: %w", err)
		}
		if i == 0 {
			primary = c
		}
	}

	value := func(v float64) *float64 { return &v }
	close1 := time.Now().AddDate(0, 1, 0)
	deals := []models.DealInput{
		{Name: "Acme Renewal", Value: value(50000), Stage: models.StageProposal, Probability: 60, ExpectedCloseDate: &close1, CompanyID: &ids["Acme Corp"].ID, ContactID: &primary.ID},
		{Name: "Northwind Pilot", Value: value(12000), Stage: models.StageDiscovery, Probability: 20, CompanyID: &ids["Northwind Traders"].ID},
		{Name: "Globex Platform", Value: value(84000), Stage: models.StageNegotiation, Probability: 75, CompanyID: &ids["Globex"].ID},
	}
	for _, in := range deals {
		if _, err := s.CreateDeal(ctx, in); err != nil {
			return fmt.Errorf("seed deal %q: %w", in.Name, err)
		}
	}

	return nil
}
