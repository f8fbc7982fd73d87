// ABOUTME: Contact database operations
// ABOUTME: Handles filtered list, detail projection, and CRUD for contacts
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

const contactListColumns = `c.id, c.first_name, c.last_name, c.email, c.phone, c.title, c.status,
	c.score, c.linkedin, c.company_id, co.name, c.created_at, c.updated_at`

// ListContacts returns one page of contacts with the company name joined
// when present. Search matches name and email; status "all" means no filter.
func (s *Store) ListContacts(ctx context.Context, f models.ListFilter) (models.ContactPage, error) {
	page, size := clampPaging(f.Page, f.PageSize)

	where, args := contactFilterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts c`+where, args...).Scan(&total); err != nil {
		return models.ContactPage{}, fmt.Errorf("count contacts: %w", err)
	}

	query := `
		SELECT ` + contactListColumns + `
		FROM contacts c
		LEFT JOIN companies co ON co.id = c.company_id` + where + `
		ORDER BY c.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		return models.ContactPage{}, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return models.ContactPage{}, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return models.ContactPage{}, err
	}

	return models.ContactPage{Data: contacts, Pagination: paginationFor(page, size, total)}, nil
}

// ContactDetail returns the richer projection including engagement counters,
// or nil when the contact does not exist.
func (s *Store) ContactDetail(ctx context.Context, id uuid.UUID) (*models.ContactDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+contactListColumns+`, c.open_count, c.response_count, c.click_count
		FROM contacts c
		LEFT JOIN companies co ON co.id = c.company_id
		WHERE c.id = ?`, id.String())

	var d models.ContactDetail
	var companyID, companyName, first, last, email, phone, title, linkedin sql.NullString
	var score sql.NullInt64
	err := row.Scan(&d.ID, &first, &last, &email, &phone, &title, &d.Status,
		&score, &linkedin, &companyID, &companyName, &d.CreatedAt, &d.UpdatedAt,
		&d.OpenCount, &d.ResponseCount, &d.ClickCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}

	d.FirstName = first.String
	d.LastName = last.String
	d.Email = email.String
	d.Phone = phone.String
	d.Title = title.String
	d.LinkedIn = linkedin.String
	d.Score = scanScore(score)
	d.CompanyID = scanID(companyID)
	d.CompanyName = companyName.String
	return &d, nil
}

func (s *Store) CreateContact(ctx context.Context, in models.ContactInput) (*models.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	c := models.Contact{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Phone:     in.Phone,
		Title:     in.Title,
		Status:    in.Status,
		LinkedIn:  in.LinkedIn,
		CompanyID: in.CompanyID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, first_name, last_name, email, phone, title, status, linkedin, company_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.FirstName, c.LastName, c.Email, c.Phone, c.Title, c.Status, c.LinkedIn,
		nullableID(c.CompanyID), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return &c, nil
}

// UpdateContact overwrites the contact's fields. Returns nil when the id is unknown.
func (s *Store) UpdateContact(ctx context.Context, id uuid.UUID, in models.ContactInput) (*models.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone = ?, title = ?, status = ?, linkedin = ?, company_id = ?, updated_at = ?
		WHERE id = ?
	`, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), in.Email, in.Phone, in.Title,
		in.Status, in.LinkedIn, nullableID(in.CompanyID), now, id.String())
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	return &models.Contact{
		ID:        id,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Phone:     in.Phone,
		Title:     in.Title,
		Status:    in.Status,
		LinkedIn:  in.LinkedIn,
		CompanyID: in.CompanyID,
		UpdatedAt: now,
	}, nil
}

func (s *Store) DeleteContact(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	// Deals keep their history; the primary contact reference just clears.
	if _, err := tx.ExecContext(ctx, `UPDATE deals SET contact_id = NULL WHERE contact_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to update deals: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s not found", id)
	}

	return tx.Commit()
}

func contactFilterClause(f models.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `(LOWER(c.first_name || ' ' || c.last_name) LIKE ? OR LOWER(c.email) LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	if f.Status != "" && f.Status != models.StatusAll {
		conds = append(conds, `c.status = ?`)
		args = append(args, f.Status)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(rs rowScanner) (models.Contact, error) {
	var c models.Contact
	var companyID, companyName, first, last, email, phone, title, linkedin sql.NullString
	var score sql.NullInt64

	if err := rs.Scan(&c.ID, &first, &last, &email, &phone, &title, &c.Status,
		&score, &linkedin, &companyID, &companyName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Contact{}, err
	}

	c.FirstName = first.String
	c.LastName = last.String
	c.Email = email.String
	c.Phone = phone.String
	c.Title = title.String
	c.LinkedIn = linkedin.String
	c.Score = scanScore(score)
	c.CompanyID = scanID(companyID)
	c.CompanyName = companyName.String
	return c, nil
}
