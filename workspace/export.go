// ABOUTME: CSV export of the currently visible, filtered collection
// ABOUTME: One row per entity with a fixed header per tab
package workspace

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calegray/revdeck/models"
)

var csvHeaders = map[Tab][]string{
	TabContacts:  {"Name", "Email", "Phone", "Title", "Company", "Status", "Score"},
	TabCompanies: {"Name", "Industry", "Size", "Status", "Score", "Website"},
	TabDeals:     {"Name", "Value", "Stage", "Probability", "Status", "Company", "Expected Close Date"},
}

// exportFilename names the artifact after the tab and the current epoch in
// milliseconds, e.g. contacts-export-1756400000000.csv.
func exportFilename(tab Tab, now time.Time) string {
	return fmt.Sprintf("%s-export-%d.csv", tab, now.UnixMilli())
}

// exportActive writes the current tab's fetched rows to a CSV file. An empty
// collection is a deterministic failure and never touches the filesystem.
func (m Model) exportActive() (tea.Model, tea.Cmd) {
	rows := m.exportRows()
	if len(rows) == 0 {
		return m.notify("No data to export", true)
	}

	path := filepath.Join(m.exportDir, exportFilename(m.tab, m.now()))
	header := csvHeaders[m.tab]
	return m, func() tea.Msg {
		if err := writeCSV(path, header, rows); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, rows: len(rows)}
	}
}

func (m Model) exportRows() [][]string {
	switch m.tab {
	case TabContacts:
		rows := make([][]string, 0, len(m.contacts.Data))
		for _, c := range m.contacts.Data {
			rows = append(rows, contactCSVRow(c))
		}
		return rows
	case TabCompanies:
		rows := make([][]string, 0, len(m.companies.Data))
		for _, c := range m.companies.Data {
			rows = append(rows, companyCSVRow(c))
		}
		return rows
	case TabDeals:
		rows := make([][]string, 0, len(m.deals.Data))
		for _, d := range m.deals.Data {
			rows = append(rows, dealCSVRow(d))
		}
		return rows
	}
	return nil
}

// Absent optional fields serialize as empty strings; absent numerics as "0".

func contactCSVRow(c models.Contact) []string {
	return []string{
		c.DisplayName(),
		c.Email,
		c.Phone,
		c.Title,
		c.CompanyName,
		c.Status,
		csvInt(c.Score),
	}
}

func companyCSVRow(c models.Company) []string {
	return []string{
		c.Name,
		c.Industry,
		c.Size,
		c.Status,
		csvInt(c.Score),
		c.Website,
	}
}

func dealCSVRow(d models.Deal) []string {
	closeDate := ""
	if d.ExpectedCloseDate != nil {
		closeDate = d.ExpectedCloseDate.Format("2006-01-02")
	}
	return []string{
		d.Name,
		csvFloat(d.Value),
		d.Stage,
		strconv.Itoa(d.Probability),
		d.Status,
		d.CompanyName,
		closeDate,
	}
}

func csvInt(n *int) string {
	if n == nil {
		return "0"
	}
	return strconv.Itoa(*n)
}

func csvFloat(f *float64) string {
	if f == nil {
		return "0"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}
	return nil
}
