package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed/categories.yaml
var categorySeed []byte

type seedFile struct {
	Categories []string `yaml:"categories"`
}

// DefaultCategories returns the category names every installation starts with.
func DefaultCategories() ([]string, error) {
	var f seedFile
	if err := yaml.Unmarshal(categorySeed, &f); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	out := make([]string, 0, len(f.Categories))
	for _, name := range f.Categories {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func seedCategories(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	names, err := DefaultCategories()
	if err != nil {
		return 0, err
	}
	q := dialect.rebind(`INSERT INTO category (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	var inserted int64
	for _, name := range names {
		res, err := db.ExecContext(ctx, q, name)
		if err != nil {
			return inserted, fmt.Errorf("seed category %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}
	return inserted, nil
}
