package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"salarydash/internal/export"
	applog "salarydash/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "summary", err)
		return
	}
	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "summary", err)
		return
	}

	summary, err := s.deps.Dashboard.MonthlySummary(r.Context(), userID, period.Year, period.Month)
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "summary", err)
		return
	}

	fields := applog.NewFields().WithPeriod(userID, period.Year, period.Month).WithOperation("summary")
	fields[applog.FieldBuckets] = len(summary.Buckets)
	applog.FromContext(r.Context()).WithComponent(applog.ComponentDashboard).
		DebugContext(r.Context(), "Monthly summary computed", fields.ToSlice()...)

	NewJSONResponse().
		Field("user_id", summary.UserID).
		Field("year", summary.Year).
		Field("month", summary.Month).
		Field("summary", summary.Buckets).
		Field("breakdown", summary.Breakdown).
		Field("totals", summary.Totals).
		Write(w)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.PathValue("user_id"))
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "charts", err)
		return
	}
	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "charts", err)
		return
	}

	charts, err := s.deps.Dashboard.ChartData(r.Context(), userID, period.Year)
	if err != nil {
		s.writeError(w, r, applog.ComponentDashboard, "charts", err)
		return
	}
	NewJSONResponse().Field("user_id", userID).Field("year", period.Year).Field("charts", charts).Write(w)
}

// handleExport serves /dashboard/export/{user_id}.{pdf|xlsx}.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, format, err := parseExportFile(r.PathValue("file"))
	if err != nil {
		s.writeError(w, r, applog.ComponentExport, "export", err)
		return
	}
	period, err := ParsePeriodParams(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, applog.ComponentExport, "export", err)
		return
	}

	report, err := s.deps.Dashboard.YearReport(r.Context(), userID, period.Year)
	if err != nil {
		s.writeError(w, r, applog.ComponentExport, "export", err)
		return
	}
	body, err := export.Render(format, report)
	if err != nil {
		s.writeError(w, r, applog.ComponentExport, "export", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format, userID, period.Year)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func parseExportFile(file string) (int64, export.Format, error) {
	idPart, ext, ok := strings.Cut(file, ".")
	if !ok {
		return 0, "", fmt.Errorf("%w: expected <user_id>.pdf or <user_id>.xlsx", export.ErrUnknownFormat)
	}
	userID, err := ParseUserID(idPart)
	if err != nil {
		return 0, "", err
	}
	format, err := export.ParseFormat(ext)
	if err != nil {
		return 0, "", err
	}
	return userID, format, nil
}
