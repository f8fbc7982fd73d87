// ABOUTME: Deal database operations
// ABOUTME: Handles deal lifecycle, stage/status alignment, and the detail projection
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

const dealListColumns = `d.id, d.name, d.value, d.stage, d.probability, d.expected_close_date,
	d.status, d.company_id, co.name, d.contact_id, d.created_at, d.updated_at`

// ListDeals returns one page of deals. The workspace always passes
// Status "open"; stage-specific queries come from the web dashboard.
func (s *Store) ListDeals(ctx context.Context, f models.ListFilter) (models.DealPage, error) {
	page, size := clampPaging(f.Page, f.PageSize)

	where, args := dealFilterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals d`+where, args...).Scan(&total); err != nil {
		return models.DealPage{}, fmt.Errorf("count deals: %w", err)
	}

	query := `
		SELECT ` + dealListColumns + `
		FROM deals d
		LEFT JOIN companies co ON co.id = d.company_id` + where + `
		ORDER BY d.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		return models.DealPage{}, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return models.DealPage{}, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return models.DealPage{}, err
	}

	return models.DealPage{Data: deals, Pagination: paginationFor(page, size, total)}, nil
}

// DealDetail resolves the weak primary-contact reference, or returns nil
// when the deal does not exist.
func (s *Store) DealDetail(ctx context.Context, id uuid.UUID) (*models.DealDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+dealListColumns+`
		FROM deals d
		LEFT JOIN companies co ON co.id = d.company_id
		WHERE d.id = ?`, id.String())

	deal, err := scanDeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}

	d := models.DealDetail{Deal: deal}
	if deal.ContactID != nil {
		contactRow := s.db.QueryRowContext(ctx, `
			SELECT `+contactListColumns+`
			FROM contacts c
			LEFT JOIN companies co ON co.id = c.company_id
			WHERE c.id = ?`, deal.ContactID.String())
		contact, err := scanContact(contactRow)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("get primary contact: %w", err)
		}
		if err == nil {
			d.PrimaryContact = &contact
		}
	}

	return &d, nil
}

func (s *Store) CreateDeal(ctx context.Context, in models.DealInput) (*models.Deal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	d := models.Deal{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(in.Name),
		Value:             in.Value,
		Stage:             in.Stage,
		Probability:       in.Probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Status:            models.StatusForStage(in.Stage),
		CompanyID:         in.CompanyID,
		ContactID:         in.ContactID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deals (id, name, value, stage, probability, expected_close_date, status, company_id, contact_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.Name, nullableFloat(d.Value), d.Stage, d.Probability, d.ExpectedCloseDate,
		d.Status, nullableID(d.CompanyID), nullableID(d.ContactID), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert deal: %w", err)
	}
	return &d, nil
}

// UpdateDeal overwrites the deal's fields and re-aligns status with stage.
// Returns nil when the id is unknown.
func (s *Store) UpdateDeal(ctx context.Context, id uuid.UUID, in models.DealInput) (*models.Deal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	status := models.StatusForStage(in.Stage)
	res, err := s.db.ExecContext(ctx, `
		UPDATE deals
		SET name = ?, value = ?, stage = ?, probability = ?, expected_close_date = ?, status = ?, company_id = ?, contact_id = ?, updated_at = ?
		WHERE id = ?
	`, strings.TrimSpace(in.Name), nullableFloat(in.Value), in.Stage, in.Probability,
		in.ExpectedCloseDate, status, nullableID(in.CompanyID), nullableID(in.ContactID), now, id.String())
	if err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	return &models.Deal{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Value:             in.Value,
		Stage:             in.Stage,
		Probability:       in.Probability,
		ExpectedCloseDate: in.ExpectedCloseDate,
		Status:            status,
		CompanyID:         in.CompanyID,
		ContactID:         in.ContactID,
		UpdatedAt:         now,
	}, nil
}

// ChangeDealStage moves a deal to a new stage, touching nothing else.
// The aligned status column is rewritten in the same statement.
func (s *Store) ChangeDealStage(ctx context.Context, id uuid.UUID, stage string) (*models.Deal, error) {
	if !models.IsValidStage(stage) {
		return nil, fmt.Errorf("invalid stage: %s (valid: %s)", stage, strings.Join(models.StageOrder, ", "))
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE deals SET stage = ?, status = ?, updated_at = ? WHERE id = ?
	`, stage, models.StatusForStage(stage), time.Now(), id.String())
	if err != nil {
		return nil, fmt.Errorf("change deal stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	detail, err := s.DealDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, nil
	}
	return &detail.Deal, nil
}

// DeleteDeal removes the deal, reporting an error when the id is unknown.
func (s *Store) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s not found", id)
	}
	return nil
}

func dealFilterClause(f models.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `LOWER(d.name) LIKE ?`)
		args = append(args, pattern)
	}
	if f.Status != "" && f.Status != models.StatusAll {
		conds = append(conds, `d.status = ?`)
		args = append(args, f.Status)
	}
	if f.Stage != "" {
		conds = append(conds, `d.stage = ?`)
		args = append(args, f.Stage)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanDeal(rs rowScanner) (models.Deal, error) {
	var d models.Deal
	var value sql.NullFloat64
	var closeDate sql.NullTime
	var companyID, companyName, contactID sql.NullString

	if err := rs.Scan(&d.ID, &d.Name, &value, &d.Stage, &d.Probability, &closeDate,
		&d.Status, &companyID, &companyName, &contactID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Deal{}, err
	}

	if value.Valid {
		v := value.Float64
		d.Value = &v
	}
	if closeDate.Valid {
		t := closeDate.Time
		d.ExpectedCloseDate = &t
	}
	d.CompanyID = scanID(companyID)
	d.CompanyName = companyName.String
	d.ContactID = scanID(contactID)
	return d, nil
}
