package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salarydash/internal/core"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

var errInvalidBody = errors.New("invalid request body")

// PeriodParams holds the year and month selected by query parameters.
type PeriodParams struct {
	Year  int
	Month int
}

// ParsePeriodParams reads year and month from query, defaulting to the
// month of now. The year must have four digits and the month be 1-12.
func ParsePeriodParams(query url.Values, now time.Time) (PeriodParams, error) {
	params := PeriodParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1000 || y > 9999 {
			return PeriodParams{}, fmt.Errorf("%w: year %q must have four digits", core.ErrInvalidYear, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return PeriodParams{}, fmt.Errorf("%w: month %q must be between 1 and 12", core.ErrInvalidMonth, v)
		}
		params.Month = m
	}
	return params, nil
}

// ParseUserID parses a positive user id.
func ParseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: user_id is required", core.ErrInvalidUser)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: user_id %q must be a positive integer", core.ErrInvalidUser, raw)
	}
	return id, nil
}

// decodeJSON reads one JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON value", errInvalidBody)
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
