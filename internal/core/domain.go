package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		Email      string    `json:"email,omitempty"`
		Phone      string    `json:"phone,omitempty"`
		Occupation string    `json:"occupation,omitempty"`
		Bio        string    `json:"bio,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// EarningRecord is one salary entry of a user.
	EarningRecord struct {
		ID     int64 `json:"id"`
		UserID int64 `json:"user_id"`
		Amount Money `json:"amount"`
		Date   Date  `json:"earning_date"`
	}

	// ExpenseRecord is one categorized expense of a user. CategoryName is
	// resolved from the category table when the record is loaded.
	ExpenseRecord struct {
		ID           int64  `json:"id"`
		UserID       int64  `json:"user_id"`
		CategoryID   int64  `json:"cate_id"`
		CategoryName string `json:"category_name"`
		Amount       Money  `json:"amount"`
		Date         Date   `json:"expense_date"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrInvalidCategory = errors.New("invalid category id")
	ErrEmptyCategory   = errors.New("empty category name")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrTooLong         = errors.New("value too long")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp; only the
// calendar day is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if y := d.Time.Year(); y < 1000 || y > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores a Date as YYYY-MM-DD, which both sqlite TEXT columns and
// postgres DATE columns accept.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, ErrInvalidDate
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		return ErrInvalidDate
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, src)
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (u User) Validate() error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return fmt.Errorf("name: %w (max 100 characters)", ErrTooLong)
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	if err := validatePhone(u.Phone); err != nil {
		return err
	}
	if len(u.Bio) > 500 {
		return fmt.Errorf("bio: %w (max 500 characters)", ErrTooLong)
	}
	return nil
}

// validatePhone accepts digits with an optional leading + and the usual
// separators. Empty means no phone.
func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if len(phone) > 30 {
		return fmt.Errorf("phone: %w (max 30 characters)", ErrTooLong)
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return ErrInvalidPhone
		}
	}
	if digits < 5 {
		return ErrInvalidPhone
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyCategory
	}
	if len(name) > 100 {
		return fmt.Errorf("category name: %w (max 100 characters)", ErrTooLong)
	}
	return nil
}

// check returns the offending field together with the error so that the
// aggregator can report it.
func (e EarningRecord) check() (string, error) {
	if e.UserID <= 0 {
		return "user_id", ErrInvalidUser
	}
	if err := e.Date.Validate(); err != nil {
		return "earning_date", err
	}
	if err := e.Amount.Validate(); err != nil {
		return "amount", err
	}
	return "", nil
}

func (e EarningRecord) Validate() error {
	if field, err := e.check(); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func (e ExpenseRecord) check() (string, error) {
	if e.UserID <= 0 {
		return "user_id", ErrInvalidUser
	}
	if err := e.Date.Validate(); err != nil {
		return "expense_date", err
	}
	if err := e.Amount.Validate(); err != nil {
		return "amount", err
	}
	if strings.TrimSpace(e.CategoryName) == "" {
		return "category_name", ErrEmptyCategory
	}
	return "", nil
}

func (e ExpenseRecord) Validate() error {
	if field, err := e.check(); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ValidateInput checks an expense before it is stored: the category is
// referenced by id since the name is only known after the lookup.
func (e ExpenseRecord) ValidateInput() error {
	if e.UserID <= 0 {
		return fmt.Errorf("user_id: %w", ErrInvalidUser)
	}
	if e.CategoryID <= 0 {
		return fmt.Errorf("cate_id: %w", ErrInvalidCategory)
	}
	if err := e.Date.Validate(); err != nil {
		return fmt.Errorf("expense_date: %w", err)
	}
	if err := e.Amount.Validate(); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return nil
}
