// ABOUTME: Aggregate stats queries for the dashboard and workspace header
// ABOUTME: Computes totals, open pipeline value, win rate, and per-stage breakdown
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calegray/revdeck/models"
)

// Stats computes the read-only aggregate projection in one pass over the
// deals table plus two counts. Pipeline value covers open deals only; win
// rate is won / (won + lost) over closed deals, zero when nothing closed.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{DealsByStage: make(map[string]models.StageStat)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&stats.TotalContacts); err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&stats.TotalCompanies); err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, status, COUNT(*), SUM(value)
		FROM deals
		GROUP BY stage, status`)
	if err != nil {
		return nil, fmt.Errorf("query deal stats: %w", err)
	}
	defer rows.Close()

	var won, lost int
	for rows.Next() {
		var stage, status string
		var count int
		var value sql.NullFloat64
		if err := rows.Scan(&stage, &status, &count, &value); err != nil {
			return nil, fmt.Errorf("scan deal stats: %w", err)
		}

		entry := stats.DealsByStage[stage]
		entry.Count += count
		entry.Value += value.Float64
		stats.DealsByStage[stage] = entry

		switch status {
		case models.DealStatusOpen:
			stats.PipelineValue += value.Float64
		case models.DealStatusWon:
			won += count
		case models.DealStatusLost:
			lost += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if won+lost > 0 {
		stats.WinRate = float64(won) / float64(won+lost) * 100
	}

	return stats, nil
}
