// ABOUTME: Company database operations
// ABOUTME: Handles filtered list with summary counts, detail with related previews, and CRUD
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calegray/revdeck/models"
)

const companyListColumns = `co.id, co.name, co.domain, co.industry, co.size, co.status, co.website,
	co.city, co.state, co.score,
	(SELECT COUNT(*) FROM contacts c WHERE c.company_id = co.id),
	(SELECT COUNT(*) FROM deals d WHERE d.company_id = co.id),
	co.created_at, co.updated_at`

// ListCompanies returns one page of companies. Each row carries derived
// contact/deal counts as a summary, not a live relation.
func (s *Store) ListCompanies(ctx context.Context, f models.ListFilter) (models.CompanyPage, error) {
	page, size := clampPaging(f.Page, f.PageSize)

	where, args := companyFilterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies co`+where, args...).Scan(&total); err != nil {
		return models.CompanyPage{}, fmt.Errorf("count companies: %w", err)
	}

	query := `
		SELECT ` + companyListColumns + `
		FROM companies co` + where + `
		ORDER BY co.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		return models.CompanyPage{}, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return models.CompanyPage{}, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return models.CompanyPage{}, err
	}

	return models.CompanyPage{Data: companies, Pagination: paginationFor(page, size, total)}, nil
}

// CompanyDetail returns the company with bounded previews of its related
// contacts and deals plus the summed deal value, or nil when absent.
func (s *Store) CompanyDetail(ctx context.Context, id uuid.UUID) (*models.CompanyDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+companyListColumns+`
		FROM companies co WHERE co.id = ?`, id.String())

	company, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}

	d := models.CompanyDetail{Company: company}

	contactRows, err := s.db.QueryContext(ctx, `
		SELECT `+contactListColumns+`
		FROM contacts c
		LEFT JOIN companies co ON co.id = c.company_id
		WHERE c.company_id = ?
		ORDER BY c.created_at DESC
		LIMIT ?`, id.String(), relatedPreview)
	if err != nil {
		return nil, fmt.Errorf("query related contacts: %w", err)
	}
	defer contactRows.Close()
	for contactRows.Next() {
		c, err := scanContact(contactRows)
		if err != nil {
			return nil, err
		}
		d.Contacts = append(d.Contacts, c)
	}
	if err := contactRows.Err(); err != nil {
		return nil, err
	}

	dealRows, err := s.db.QueryContext(ctx, `
		SELECT `+dealListColumns+`
		FROM deals d
		LEFT JOIN companies co ON co.id = d.company_id
		WHERE d.company_id = ?
		ORDER BY d.created_at DESC
		LIMIT ?`, id.String(), relatedPreview)
	if err != nil {
		return nil, fmt.Errorf("query related deals: %w", err)
	}
	defer dealRows.Close()
	for dealRows.Next() {
		deal, err := scanDeal(dealRows)
		if err != nil {
			return nil, err
		}
		d.Deals = append(d.Deals, deal)
	}
	if err := dealRows.Err(); err != nil {
		return nil, err
	}

	var totalValue sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT SUM(value) FROM deals WHERE company_id = ?`, id.String()).Scan(&totalValue); err != nil {
		return nil, fmt.Errorf("sum deal value: %w", err)
	}
	d.TotalValue = totalValue.Float64

	return &d, nil
}

func (s *Store) CreateCompany(ctx context.Context, in models.CompanyInput) (*models.Company, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	c := models.Company{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Domain:    in.Domain,
		Industry:  in.Industry,
		Size:      in.Size,
		Status:    in.Status,
		Website:   in.Website,
		City:      in.City,
		State:     in.State,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, domain, industry, size, status, website, city, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.Name, c.Domain, c.Industry, c.Size, c.Status, c.Website, c.City, c.State, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert company: %w", err)
	}
	return &c, nil
}

// UpdateCompany overwrites the company's fields. Returns nil when the id is unknown.
func (s *Store) UpdateCompany(ctx context.Context, id uuid.UUID, in models.CompanyInput) (*models.Company, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, domain = ?, industry = ?, size = ?, status = ?, website = ?, city = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, strings.TrimSpace(in.Name), in.Domain, in.Industry, in.Size, in.Status, in.Website, in.City, in.State, now, id.String())
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	return &models.Company{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Domain:    in.Domain,
		Industry:  in.Industry,
		Size:      in.Size,
		Status:    in.Status,
		Website:   in.Website,
		City:      in.City,
		State:     in.State,
		UpdatedAt: now,
	}, nil
}

func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Contacts and deals survive with their weak reference cleared.
	if _, err := tx.ExecContext(ctx, `UPDATE contacts SET company_id = NULL WHERE company_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to update contacts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE deals SET company_id = NULL WHERE company_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to update deals: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("company %s not found", id)
	}

	return tx.Commit()
}

func companyFilterClause(f models.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `(LOWER(co.name) LIKE ? OR LOWER(co.domain) LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	if f.Status != "" && f.Status != models.StatusAll {
		conds = append(conds, `co.status = ?`)
		args = append(args, f.Status)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCompany(rs rowScanner) (models.Company, error) {
	var c models.Company
	var domain, industry, size, website, city, state sql.NullString
	var score sql.NullInt64

	if err := rs.Scan(&c.ID, &c.Name, &domain, &industry, &size, &c.Status, &website,
		&city, &state, &score, &c.ContactCount, &c.DealCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Company{}, err
	}

	c.Domain = domain.String
	c.Industry = industry.String
	c.Size = size.String
	c.Website = website.String
	c.City = city.String
	c.State = state.String
	c.Score = scanScore(score)
	return c, nil
}
