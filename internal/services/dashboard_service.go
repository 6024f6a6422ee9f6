package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"salarydash/internal/core"
	"salarydash/internal/metrics"
	"salarydash/internal/ports"
)

const DefaultQueryTimeout = 7 * time.Second

// DashboardStore is the read side the dashboard needs.
type DashboardStore interface {
	ports.UserStore
	ports.EarningStore
	ports.ExpenseStore
}

type (
	// Totals summarizes the selected month and the whole year.
	Totals struct {
		MonthEarning  core.Money `json:"month_earning"`
		MonthExpenses core.Money `json:"month_expenses"`
		MonthBalance  core.Money `json:"month_balance"`
		YearEarning   core.Money `json:"year_earning"`
		YearExpenses  core.Money `json:"year_expenses"`
		YearBalance   core.Money `json:"year_balance"`
	}

	// Summary is the monthly summary of one user: a zero-filled bucket per
	// month of Year and the category breakdown of Month.
	Summary struct {
		UserID    int64                 `json:"user_id"`
		Year      int                   `json:"year"`
		Month     int                   `json:"month"`
		Buckets   []core.MonthlyBucket  `json:"summary"`
		Breakdown []core.CategoryAmount `json:"breakdown"`
		Totals    Totals                `json:"totals"`
	}

	Series struct {
		X []string     `json:"x"`
		Y []core.Money `json:"y"`
	}

	Slices struct {
		Labels []string     `json:"labels"`
		Values []core.Money `json:"values"`
	}

	Comparison struct {
		X        []string     `json:"x"`
		Earning  []core.Money `json:"earning"`
		Expenses []core.Money `json:"expenses"`
	}

	// Charts holds the series behind the dashboard charts of one year.
	Charts struct {
		EarningTrend         Series     `json:"earning_trend"`
		ExpenseTrend         Series     `json:"expense_trend"`
		ExpenseByCategoryPie Slices     `json:"expense_by_category_pie"`
		ExpenseByCategoryBar Slices     `json:"expense_by_category_bar"`
		EarningVsExpense     Comparison `json:"earning_vs_expense"`
	}

	// YearReport is the input of the PDF and spreadsheet exports.
	YearReport struct {
		User        core.User
		Year        int
		Buckets     []core.MonthlyBucket
		Categories  []core.CategoryAmount
		Totals      Totals
		GeneratedAt time.Time
	}
)

type DashboardService struct {
	store   DashboardStore
	timeout time.Duration
	now     func() time.Time
}

func NewDashboardService(store DashboardStore, timeout time.Duration) *DashboardService {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &DashboardService{store: store, timeout: timeout, now: time.Now}
}

// MonthlySummary aggregates the user's records of year and breaks down the
// expenses of month by category.
func (s *DashboardService) MonthlySummary(ctx context.Context, userID int64, year, month int) (Summary, error) {
	start := time.Now()
	summary, err := s.monthlySummary(ctx, userID, year, month)
	metrics.ObserveAggregation("summary", aggregationResult(err), time.Since(start))
	return summary, err
}

func (s *DashboardService) monthlySummary(ctx context.Context, userID int64, year, month int) (Summary, error) {
	if err := validatePeriod(userID, year); err != nil {
		return Summary{}, err
	}
	if month < 1 || month > 12 {
		return Summary{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidMonth)
	}

	earnings, expenses, err := s.load(ctx, userID, year)
	if err != nil {
		return Summary{}, err
	}

	buckets, err := core.Aggregate(earnings, expenses, core.AggregateOptions{TargetYear: year, ZeroFill: true})
	if err != nil {
		return Summary{}, err
	}
	breakdown, err := core.Breakdown(expenses, year, month)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		UserID:    userID,
		Year:      year,
		Month:     month,
		Buckets:   buckets,
		Breakdown: core.SortedCategories(breakdown),
		Totals:    totalsOf(buckets, core.MonthKey{Year: year, Month: month}),
	}, nil
}

// ChartData builds the chart series of the user's records of year.
func (s *DashboardService) ChartData(ctx context.Context, userID int64, year int) (Charts, error) {
	start := time.Now()
	charts, err := s.chartData(ctx, userID, year)
	metrics.ObserveAggregation("charts", aggregationResult(err), time.Since(start))
	return charts, err
}

func (s *DashboardService) chartData(ctx context.Context, userID int64, year int) (Charts, error) {
	if err := validatePeriod(userID, year); err != nil {
		return Charts{}, err
	}
	earnings, expenses, err := s.load(ctx, userID, year)
	if err != nil {
		return Charts{}, err
	}

	buckets, err := core.Aggregate(earnings, expenses, core.AggregateOptions{TargetYear: year, ZeroFill: true})
	if err != nil {
		return Charts{}, err
	}
	byCategory, err := core.TotalsByCategory(expenses)
	if err != nil {
		return Charts{}, err
	}

	charts := Charts{
		EarningTrend: Series{X: []string{}, Y: []core.Money{}},
		ExpenseTrend: Series{X: []string{}, Y: []core.Money{}},
		EarningVsExpense: Comparison{
			X:        make([]string, 0, len(buckets)),
			Earning:  make([]core.Money, 0, len(buckets)),
			Expenses: make([]core.Money, 0, len(buckets)),
		},
	}

	// the store returns earnings newest first
	for i := len(earnings) - 1; i >= 0; i-- {
		charts.EarningTrend.X = append(charts.EarningTrend.X, earnings[i].Date.String())
		charts.EarningTrend.Y = append(charts.EarningTrend.Y, earnings[i].Amount)
	}
	for _, e := range expenses {
		charts.ExpenseTrend.X = append(charts.ExpenseTrend.X, e.Date.String())
		charts.ExpenseTrend.Y = append(charts.ExpenseTrend.Y, e.Amount)
	}

	pie := Slices{Labels: []string{}, Values: []core.Money{}}
	for _, c := range core.SortedCategories(byCategory) {
		pie.Labels = append(pie.Labels, c.Name)
		pie.Values = append(pie.Values, c.Amount)
	}
	charts.ExpenseByCategoryPie = pie
	charts.ExpenseByCategoryBar = Slices{
		Labels: append([]string{}, pie.Labels...),
		Values: append([]core.Money{}, pie.Values...),
	}

	for _, b := range buckets {
		charts.EarningVsExpense.X = append(charts.EarningVsExpense.X, b.Key().String())
		charts.EarningVsExpense.Earning = append(charts.EarningVsExpense.Earning, b.TotalEarning)
		charts.EarningVsExpense.Expenses = append(charts.EarningVsExpense.Expenses, b.TotalExpenses)
	}
	return charts, nil
}

// YearReport collects everything the yearly export renders.
func (s *DashboardService) YearReport(ctx context.Context, userID int64, year int) (YearReport, error) {
	start := time.Now()
	report, err := s.yearReport(ctx, userID, year)
	metrics.ObserveAggregation("report", aggregationResult(err), time.Since(start))
	return report, err
}

func (s *DashboardService) yearReport(ctx context.Context, userID int64, year int) (YearReport, error) {
	if err := validatePeriod(userID, year); err != nil {
		return YearReport{}, err
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return YearReport{}, err
	}
	earnings, expenses, err := s.load(ctx, userID, year)
	if err != nil {
		return YearReport{}, err
	}
	buckets, err := core.Aggregate(earnings, expenses, core.AggregateOptions{TargetYear: year, ZeroFill: true})
	if err != nil {
		return YearReport{}, err
	}
	byCategory, err := core.TotalsByCategory(expenses)
	if err != nil {
		return YearReport{}, err
	}
	return YearReport{
		User:        user,
		Year:        year,
		Buckets:     buckets,
		Categories:  core.SortedCategories(byCategory),
		Totals:      totalsOf(buckets, core.MonthKey{}),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *DashboardService) user(ctx context.Context, userID int64) (core.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// load checks that the user exists and fetches both series of year
// concurrently. The first store error cancels the other fetch.
func (s *DashboardService) load(ctx context.Context, userID int64, year int) ([]core.EarningRecord, []core.ExpenseRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	var (
		earnings []core.EarningRecord
		expenses []core.ExpenseRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		earnings, err = s.store.ListEarnings(gctx, userID, year)
		if err != nil {
			return fmt.Errorf("list earnings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, userID, year, 0)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return earnings, expenses, nil
}

// totalsOf reads the year totals from the last bucket and the month totals
// from the bucket of month, when month is set.
func totalsOf(buckets []core.MonthlyBucket, month core.MonthKey) Totals {
	var t Totals
	if n := len(buckets); n > 0 {
		t.YearEarning = buckets[n-1].CumulativeEarning
		t.YearExpenses = buckets[n-1].CumulativeExpenses
		t.YearBalance = core.Money{Cents: t.YearEarning.Cents - t.YearExpenses.Cents}
	}
	for _, b := range buckets {
		if b.Key() == month {
			t.MonthEarning = b.TotalEarning
			t.MonthExpenses = b.TotalExpenses
			t.MonthBalance = core.Money{Cents: b.TotalEarning.Cents - b.TotalExpenses.Cents}
			break
		}
	}
	return t
}

func validatePeriod(userID int64, year int) error {
	if userID <= 0 {
		return fmt.Errorf("user %d: %w", userID, core.ErrInvalidUser)
	}
	if year < 1000 || year > 9999 {
		return fmt.Errorf("year %d: %w", year, core.ErrInvalidYear)
	}
	return nil
}

func aggregationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, core.ErrInvalidRecord):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
