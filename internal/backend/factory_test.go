package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"salarydash/internal/config"
	"salarydash/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://localhost/db", DBMaxOpenConns: 4})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.MaxOpenConns != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "database URL"},
		{"unknown", Config{Type: "sheets"}, "invalid backend type"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "AMQP exchange and queue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
	if got := strings.Join(GetBackendTypeStrings(), ","); got != "sqlite,postgres,memory" {
		t.Fatalf("unexpected backend types %s", got)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()
		if res.DB != nil || res.Events != nil {
			t.Fatalf("memory backend should have no pool or events: %+v", res)
		}
		cats, err := res.Store.ListCategories(ctx)
		if err != nil || len(cats) == 0 {
			t.Fatalf("expected default categories, got %v err=%v", cats, err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "app.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path, MaxOpenConns: 2})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()
		if res.DB == nil {
			t.Fatal("expected a SQL pool")
		}
		u, err := res.Store.CreateUser(ctx, core.User{Name: "Asha"})
		if err != nil || u.ID == 0 {
			t.Fatalf("CreateUser: %+v err=%v", u, err)
		}
	})
}
