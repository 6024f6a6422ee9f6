package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"salarydash/internal/core"
	"salarydash/internal/ports"
)

// SQLRepository implements ports.Store on top of database/sql. The same
// queries serve sqlite and postgres; placeholders are rebound per dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ ports.Store = (*SQLRepository)(nil)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Open connects to the database. The schema must already exist, see
// EnsureSchema.
func Open(ctx context.Context, dialect Dialect, source string, opts Options) (*SQLRepository, error) {
	db, err := dialect.openDB(source)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLRepository{db: db, dialect: dialect}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the pool for instrumentation.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) q(query string) string {
	return r.dialect.rebind(query)
}

// Users

func (r *SQLRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	var email sql.NullString
	if u.Email != "" {
		email = sql.NullString{String: strings.ToLower(u.Email), Valid: true}
	}
	now := time.Now().UTC().Truncate(time.Second)
	err := r.db.QueryRowContext(ctx,
		r.q(`INSERT INTO users (name, email, phone, occupation, bio, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		strings.TrimSpace(u.Name), email, u.Phone, u.Occupation, u.Bio, now,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrDuplicate)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = email.String
	u.CreatedAt = now
	return u, nil
}

func (r *SQLRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var (
		u       core.User
		email   sql.NullString
		created dbTime
	)
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT id, name, email, phone, occupation, bio, created_at FROM users WHERE id = ?`), id,
	).Scan(&u.ID, &u.Name, &email, &u.Phone, &u.Occupation, &u.Bio, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Email = email.String
	u.CreatedAt = created.Time
	return u, nil
}

// Categories

func (r *SQLRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM category ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c := core.Category{ID: id}
	err := r.db.QueryRowContext(ctx, r.q(`SELECT name FROM category WHERE id = ?`), id).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	err := r.db.QueryRowContext(ctx, r.q(`INSERT INTO category (name) VALUES (?) RETURNING id`), c.Name).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ports.ErrDuplicate)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// Earnings

const earningColumns = `id, user_id, amount_cents, earning_date`

func (r *SQLRepository) UpsertMonthlyEarning(ctx context.Context, e core.EarningRecord) (core.EarningRecord, bool, error) {
	if err := e.Validate(); err != nil {
		return core.EarningRecord{}, false, err
	}
	from, to := monthRange(e.Date.Year(), e.Date.Month())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.EarningRecord{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		r.q(`SELECT id FROM earning WHERE user_id = ? AND earning_date >= ? AND earning_date < ? ORDER BY id LIMIT 1`),
		e.UserID, from, to,
	).Scan(&existing)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx,
			r.q(`INSERT INTO earning (user_id, amount_cents, earning_date, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
			e.UserID, e.Amount.Cents, e.Date, time.Now().UTC(),
		).Scan(&e.ID)
		if err != nil {
			return core.EarningRecord{}, false, fmt.Errorf("insert earning: %w", err)
		}
		created = true
	case err != nil:
		return core.EarningRecord{}, false, fmt.Errorf("find monthly earning: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			r.q(`UPDATE earning SET amount_cents = ?, earning_date = ? WHERE id = ?`),
			e.Amount.Cents, e.Date, existing,
		); err != nil {
			return core.EarningRecord{}, false, fmt.Errorf("update earning: %w", err)
		}
		e.ID = existing
	}

	if err := tx.Commit(); err != nil {
		return core.EarningRecord{}, false, fmt.Errorf("commit earning: %w", err)
	}

	slog.DebugContext(ctx, "Earning stored",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"created", created)

	return e, created, nil
}

func (r *SQLRepository) GetEarning(ctx context.Context, id int64) (core.EarningRecord, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+earningColumns+` FROM earning WHERE id = ?`), id)
	e, err := scanEarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EarningRecord{}, fmt.Errorf("earning %d: %w", id, ports.ErrNotFound)
	}
	return e, err
}

func (r *SQLRepository) ListEarnings(ctx context.Context, userID int64, year int) ([]core.EarningRecord, error) {
	from, to := yearRange(year)
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT `+earningColumns+` FROM earning WHERE user_id = ? AND earning_date >= ? AND earning_date < ? ORDER BY earning_date DESC, id DESC`),
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	defer rows.Close()

	out := []core.EarningRecord{}
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate earnings: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) LatestEarning(ctx context.Context, userID int64) (core.EarningRecord, error) {
	row := r.db.QueryRowContext(ctx,
		r.q(`SELECT `+earningColumns+` FROM earning WHERE user_id = ? ORDER BY earning_date DESC, id DESC LIMIT 1`), userID)
	e, err := scanEarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EarningRecord{}, fmt.Errorf("latest earning of user %d: %w", userID, ports.ErrNotFound)
	}
	return e, err
}

func (r *SQLRepository) DeleteEarnings(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM earning WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("delete earnings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete earnings: %w", err)
	}
	return n, nil
}

// Expenses

const expenseSelect = `SELECT e.id, e.user_id, e.cate_id, c.name, e.amount_cents, e.expense_date
FROM expense e JOIN category c ON c.id = e.cate_id`

func (r *SQLRepository) AddExpenses(ctx context.Context, items []core.ExpenseRecord) ([]core.ExpenseRecord, error) {
	for i, it := range items {
		if err := it.ValidateInput(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	names := make(map[int64]string)
	out := make([]core.ExpenseRecord, 0, len(items))
	now := time.Now().UTC()
	for i, it := range items {
		name, ok := names[it.CategoryID]
		if !ok {
			err := tx.QueryRowContext(ctx, r.q(`SELECT name FROM category WHERE id = ?`), it.CategoryID).Scan(&name)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("expense %d: category %d: %w", i, it.CategoryID, ports.ErrUnknownCategory)
			}
			if err != nil {
				return nil, fmt.Errorf("expense %d: lookup category: %w", i, err)
			}
			names[it.CategoryID] = name
		}

		err := tx.QueryRowContext(ctx,
			r.q(`INSERT INTO expense (user_id, cate_id, amount_cents, expense_date, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			it.UserID, it.CategoryID, it.Amount.Cents, it.Date, now,
		).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("expense %d: insert: %w", i, err)
		}
		it.CategoryName = name
		out = append(out, it)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expenses: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx, r.q(expenseSelect+` WHERE e.id = ?`), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, fmt.Errorf("expense %d: %w", id, ports.ErrNotFound)
	}
	return e, err
}

func (r *SQLRepository) ListExpenses(ctx context.Context, userID int64, year, month int) ([]core.ExpenseRecord, error) {
	from, to := yearRange(year)
	if month >= 1 && month <= 12 {
		from, to = monthRange(year, month)
	}
	rows, err := r.db.QueryContext(ctx,
		r.q(expenseSelect+` WHERE e.user_id = ? AND e.expense_date >= ? AND e.expense_date < ? ORDER BY e.expense_date, e.id`),
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.ExpenseRecord{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
