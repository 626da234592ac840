package health

import (
	"context"
	"database/sql"
	"time"

	"triage-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. A nil database reports memory mode.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Mode reports which storage backend is active.
func (s *Service) Mode() string {
	if s == nil || s.DB == nil {
		return "memory"
	}
	return "postgres"
}

// Status pings the database when one is configured.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{OK: true, Database: s.Mode()}
	if s == nil || s.DB == nil {
		return out
	}
	if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
		out.OK = false
		out.Error = "database unreachable"
		return out
	}
	return out
}
