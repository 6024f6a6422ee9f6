package http

import (
	"fmt"
	"net/http"

	"salarydash/internal/core"
	applog "salarydash/internal/log"
)

// earningRequest keeps Amount as a pointer so that a missing amount is told
// apart from an explicit zero.
type earningRequest struct {
	UserID int64       `json:"user_id"`
	Amount *core.Money `json:"amount"`
	Date   core.Date   `json:"earning_date"`
}

// handleSaveEarning stores the monthly salary. A second earning in the same
// month replaces the first and is answered with 200 instead of 201.
func (s *Server) handleSaveEarning(w http.ResponseWriter, r *http.Request) {
	var req earningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.ComponentEarning, "save_earning", err)
		return
	}
	if req.Amount == nil {
		s.writeError(w, r, applog.ComponentEarning, "save_earning",
			fmt.Errorf("amount: %w (required)", core.ErrInvalidAmount))
		return
	}

	stored, created, err := s.deps.Earnings.Save(r.Context(), core.EarningRecord{
		UserID: req.UserID,
		Amount: *req.Amount,
		Date:   req.Date,
	})
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "save_earning", err)
		return
	}

	fields := applog.NewFields().
		WithRecord(string(core.EarningKind), stored.ID, stored.UserID, stored.Amount.Cents).
		WithOperation("save_earning")
	applog.FromContext(r.Context()).WithComponent(applog.ComponentEarning).
		InfoContext(r.Context(), "Earning saved", append(fields.ToSlice(), "created", created)...)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Field("earning", stored).Field("created", created).Write(w)
}

func (s *Server) handleListEarnings(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "list_earnings", err)
		return
	}
	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "list_earnings", err)
		return
	}

	list, err := s.deps.Earnings.List(r.Context(), userID, period.Year)
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "list_earnings", err)
		return
	}
	if list == nil {
		list = []core.EarningRecord{}
	}
	NewJSONResponse().Field("year", period.Year).Field("earnings", list).Write(w)
}

func (s *Server) handleLatestEarning(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "latest_earning", err)
		return
	}
	e, err := s.deps.Earnings.Latest(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "latest_earning", err)
		return
	}
	NewJSONResponse().Field("earning", e).Write(w)
}

func (s *Server) handleDeleteEarnings(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "delete_earnings", err)
		return
	}
	n, err := s.deps.Earnings.DeleteAll(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, applog.ComponentEarning, "delete_earnings", err)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentEarning).
		InfoContext(r.Context(), "Earnings deleted", applog.FieldUserID, userID, "deleted", n)
	NewJSONResponse().Field("deleted", n).Write(w)
}
