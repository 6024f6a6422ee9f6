// Package export renders a user's yearly summary as PDF or XLSX.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"salarydash/internal/metrics"
	"salarydash/internal/services"
)

type Format string

const (
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PDF, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q: must be pdf or xlsx", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename is the attachment name of the export of user for year.
func Filename(f Format, userID int64, year int) string {
	return fmt.Sprintf("salarydash-%d-%d.%s", userID, year, f)
}

// Render encodes report in format f.
func Render(f Format, report services.YearReport) ([]byte, error) {
	start := time.Now()
	var (
		out []byte
		err error
	)
	switch f {
	case PDF:
		out, err = BuildSummaryPDF(report)
	case XLSX:
		out, err = BuildSummaryXLSX(report)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
	metrics.ObserveExport(string(f), err, time.Since(start))
	return out, err
}

// BuildSummaryPDF renders the monthly table and the category totals on one page.
func BuildSummaryPDF(report services.YearReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Yearly Summary %d", report.Year))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("User: %s (#%d)", report.User.Name, report.User.ID)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Earning: %s", report.Totals.YearEarning))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Expenses: %s", report.Totals.YearExpenses))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Balance: %s", report.Totals.YearBalance))
	pdf.Ln(8)

	headers := []string{"Month", "Earning", "Expenses", "Cum. Earning", "Cum. Expenses"}
	widths := []float64{30, 35, 35, 40, 40}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, b := range report.Buckets {
		pdf.CellFormat(widths[0], 6, b.Key().String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, b.TotalEarning.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, b.TotalExpenses.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, b.CumulativeEarning.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, b.CumulativeExpenses.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(report.Categories) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, "Category", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, c := range report.Categories {
			pdf.CellFormat(70, 6, tr(c.Name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, c.Amount.String(), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

const (
	summarySheet    = "summary"
	categoriesSheet = "categories"
)

// BuildSummaryXLSX writes the buckets to the summary sheet and the category
// totals to the categories sheet. Amounts are numeric cells.
func BuildSummaryXLSX(report services.YearReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	header := []any{"Month", "Earning", "Expenses", "Cumulative Earning", "Cumulative Expenses"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, b := range report.Buckets {
		row := []any{
			b.Key().String(),
			b.TotalEarning.Float(),
			b.TotalExpenses.Float(),
			b.CumulativeEarning.Float(),
			b.CumulativeExpenses.Float(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write month %s: %w", b.Key(), err)
		}
	}
	if n := len(report.Buckets); n > 0 {
		last, _ := excelize.CoordinatesToCellName(5, n+1)
		_ = f.SetCellStyle(summarySheet, "B2", last, money)
	}

	_ = f.SetCellValue(categoriesSheet, "A1", "Category")
	_ = f.SetCellValue(categoriesSheet, "B1", "Amount")
	for i, c := range report.Categories {
		row := i + 2
		_ = f.SetCellValue(categoriesSheet, fmt.Sprintf("A%d", row), c.Name)
		_ = f.SetCellValue(categoriesSheet, fmt.Sprintf("B%d", row), c.Amount.Float())
		_ = f.SetCellStyle(categoriesSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), money)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
