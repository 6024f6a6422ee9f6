package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"salarydash/internal/core"
)

var ErrInvalidCSV = errors.New("invalid csv")

// CSV columns. The category is given either by id or by name.
const (
	colCategoryID = "cate_id"
	colCategory   = "category"
	colAmount     = "amount"
	colDate       = "expense_date"
)

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func categoryIndex(list []core.Category) map[string]int64 {
	idx := make(map[string]int64, len(list))
	for _, c := range list {
		idx[normalizeCategory(c.Name)] = c.ID
	}
	return idx
}

// parseExpenseCSV reads a header row followed by one expense per row. Line
// numbers in errors are 1-based and count the header.
func parseExpenseCSV(r io.Reader, userID int64, resolve func(name string) (int64, error)) ([]core.ExpenseRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, required := range []string{colAmount, colDate} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, required)
		}
	}
	idCol, hasID := cols[colCategoryID]
	nameCol, hasName := cols[colCategory]
	if !hasID && !hasName {
		return nil, fmt.Errorf("%w: missing column %q or %q", ErrInvalidCSV, colCategoryID, colCategory)
	}

	var items []core.ExpenseRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		if len(items) == MaxExpensesPerRequest {
			return nil, ErrTooManyExpenses
		}

		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		cents, err := core.ParseDecimalToCents(cell(cols[colAmount]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %s: %w", ErrInvalidCSV, line, colAmount, err)
		}
		date, err := core.ParseDate(cell(cols[colDate]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %s: %w", ErrInvalidCSV, line, colDate, err)
		}

		var categoryID int64
		if hasID && cell(idCol) != "" {
			categoryID, err = strconv.ParseInt(cell(idCol), 10, 64)
			if err != nil || categoryID <= 0 {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrInvalidCSV, line, colCategoryID, core.ErrInvalidCategory)
			}
		} else if hasName {
			categoryID, err = resolve(cell(nameCol))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrInvalidCSV, line, colCategory, err)
			}
		} else {
			return nil, fmt.Errorf("%w: line %d column %s: %w", ErrInvalidCSV, line, colCategoryID, core.ErrInvalidCategory)
		}

		items = append(items, core.ExpenseRecord{
			UserID:     userID,
			CategoryID: categoryID,
			Amount:     core.Money{Cents: cents},
			Date:       date,
		})
	}

	if len(items) == 0 {
		return nil, ErrNoExpenses
	}
	return items, nil
}
