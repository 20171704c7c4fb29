package exporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

// SheetName is the worksheet holding the registry rows in xlsx exports.
const SheetName = "Licenses"

// Header is the column layout shared by the CSV and xlsx exports.
func Header() []string {
	return []string{"License Key", "Status", "Expires At", "HWID", "Last Seen", "Created At"}
}

// LicenseExporter renders license registry snapshots as CSV files or
// xlsx workbooks.
type LicenseExporter struct {
	csvWriter *CSVWriter
}

// NewLicenseExporter creates a new license registry exporter.
func NewLicenseExporter() *LicenseExporter {
	return &LicenseExporter{
		csvWriter: NewCSVWriter(),
	}
}

// ExportCSV writes records as CSV onto out, oldest first so batch
// imports keep issue order.
func (e *LicenseExporter) ExportCSV(out io.Writer, records []*store.LicenseRecord) error {
	return e.csvWriter.WriteCSV(out, WriteOptions{
		Headers: Header(),
		Records: e.rows(records),
	})
}

// ExportFile writes records as a BOM-prefixed CSV file so spreadsheet
// tools pick up the encoding.
func (e *LicenseExporter) ExportFile(path string, records []*store.LicenseRecord) error {
	return e.csvWriter.WriteFile(path, WriteOptions{
		Headers:   Header(),
		Records:   e.rows(records),
		BOMPrefix: true,
	})
}

// ExportWorkbook renders records as an xlsx workbook. Callers own
// closing the returned file.
func (e *LicenseExporter) ExportWorkbook(records []*store.LicenseRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, title := range Header() {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(SheetName, cell, title)
	}

	for i, row := range e.rows(records) {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(SheetName, cell, v)
		}
	}

	return f, nil
}

// rows converts records to the shared column layout, sorted oldest
// first by creation time.
func (e *LicenseExporter) rows(records []*store.LicenseRecord) [][]string {
	sorted := make([]*store.LicenseRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, rec := range sorted {
		rows = append(rows, []string{
			rec.LicenseKey,
			rec.Status,
			formatTime(rec.ExpiresAt),
			rec.HWID,
			formatTime(rec.LastSeen),
			formatStamp(rec.CreatedAt),
		})
	}
	return rows
}
