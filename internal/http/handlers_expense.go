package http

import (
	"errors"
	"fmt"
	"net/http"

	"salarydash/internal/core"
	applog "salarydash/internal/log"
)

type addExpensesRequest struct {
	UserID   int64         `json:"user_id"`
	Expenses []expenseItem `json:"expenses"`
}

type expenseItem struct {
	UserID     int64       `json:"user_id"`
	CategoryID int64       `json:"cate_id"`
	Amount     *core.Money `json:"amount"`
	Date       core.Date   `json:"expense_date"`
}

// records converts the items, rejecting any without an amount.
func (req addExpensesRequest) records() ([]core.ExpenseRecord, error) {
	out := make([]core.ExpenseRecord, len(req.Expenses))
	for i, item := range req.Expenses {
		if item.Amount == nil {
			return nil, fmt.Errorf("expenses[%d]: amount: %w (required)", i, core.ErrInvalidAmount)
		}
		out[i] = core.ExpenseRecord{
			UserID:     item.UserID,
			CategoryID: item.CategoryID,
			Amount:     *item.Amount,
			Date:       item.Date,
		}
	}
	return out, nil
}

func (s *Server) handleAddExpenses(w http.ResponseWriter, r *http.Request) {
	var req addExpensesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.ComponentExpense, "add_expenses", err)
		return
	}
	if req.UserID <= 0 {
		s.writeError(w, r, applog.ComponentExpense, "add_expenses",
			fmt.Errorf("%w: user_id must be a positive integer", core.ErrInvalidUser))
		return
	}
	items, err := req.records()
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "add_expenses", err)
		return
	}

	stored, err := s.deps.Expenses.AddBatch(r.Context(), req.UserID, items)
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "add_expenses", err)
		return
	}
	s.logExpensesAdded(r, req.UserID, len(stored), "json")
	NewJSONResponse().Status(http.StatusCreated).Field("count", len(stored)).Field("expenses", stored).Write(w)
}

// handleUploadExpenses imports a multipart CSV file sent as "file" together
// with a "user_id" form field.
func (s *Server) handleUploadExpenses(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, applog.ComponentExpense, "upload_expenses", err)
			return
		}
		s.writeError(w, r, applog.ComponentExpense, "upload_expenses",
			fmt.Errorf("%w: expected multipart/form-data", errInvalidBody))
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID, err := ParseUserID(r.FormValue("user_id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "upload_expenses", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "upload_expenses",
			fmt.Errorf("%w: missing file field", errInvalidBody))
		return
	}
	defer file.Close()

	stored, err := s.deps.Expenses.ImportCSV(r.Context(), userID, file)
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "upload_expenses", err)
		return
	}
	s.logExpensesAdded(r, userID, len(stored), "csv")
	NewJSONResponse().Status(http.StatusCreated).Field("count", len(stored)).Field("expenses", stored).Write(w)
}

func (s *Server) handleExpensesByMonth(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := ParseUserID(query.Get("user_id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "expenses_by_month", err)
		return
	}
	period, err := ParsePeriodParams(query, s.now())
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "expenses_by_month", err)
		return
	}

	list, err := s.deps.Expenses.ByMonth(r.Context(), userID, period.Year, period.Month)
	if err != nil {
		s.writeError(w, r, applog.ComponentExpense, "expenses_by_month", err)
		return
	}
	if list == nil {
		list = []core.ExpenseRecord{}
	}
	NewJSONResponse().
		Field("year", period.Year).
		Field("month", period.Month).
		Field("expenses", list).
		Write(w)
}

func (s *Server) logExpensesAdded(r *http.Request, userID int64, n int, source string) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentExpense).InfoContext(r.Context(),
		"Expenses added",
		applog.FieldUserID, userID,
		"count", n,
		"source", source,
	)
}
