package backend

import (
	"context"
	"database/sql"
	"time"

	"salarydash/internal/amqp"
	"salarydash/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and the optional event client.
type BackendResult struct {
	Store ports.Store
	// DB is the SQL pool behind Store, nil for the memory backend.
	DB *sql.DB
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string
	MaxOpenConns int
	ConnMaxIdle  time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a storage implementation.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (t BackendType) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	}
	return false
}

func (t BackendType) String() string {
	return string(t)
}
