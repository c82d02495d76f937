// Package export turns report rows into downloadable documents.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Exporter encodes a header row followed by data rows into a document.
type Exporter interface {
	Export(headers []string, rows [][]any) ([]byte, error)
	// Extension is the file extension without the dot.
	Extension() string
}

// New returns the exporter for format.
func New(format string) (Exporter, error) {
	switch format {
	case "", "xlsx":
		return NewXLSXExporter("Report"), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// XLSXExporter writes a single-sheet workbook.
type XLSXExporter struct {
	sheet string
}

// NewXLSXExporter builds an exporter writing into a sheet named sheet.
func NewXLSXExporter(sheet string) *XLSXExporter {
	if sheet == "" {
		sheet = "Report"
	}
	return &XLSXExporter{sheet: sheet}
}

// Extension implements Exporter.
func (x *XLSXExporter) Extension() string {
	return "xlsx"
}

// Sheet returns the worksheet name rows are written to.
func (x *XLSXExporter) Sheet() string {
	return x.sheet
}

// Export implements Exporter.
func (x *XLSXExporter) Export(headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), x.sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(x.sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(x.sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
