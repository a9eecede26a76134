// Package runctx carries per-run correlation metadata. Components receive
// it once at construction instead of re-deriving identifiers ad hoc.
package runctx

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Context identifies one export run.
type Context struct {
	RunID     string
	Branch    string
	StartedAt time.Time
}

// New returns a Context with a fresh run ID.
func New(branch string) Context {
	return Context{
		RunID:     uuid.NewString(),
		Branch:    branch,
		StartedAt: time.Now().UTC(),
	}
}

// Logger returns base annotated with the run's correlation attributes.
func (c Context) Logger(base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("run_id", c.RunID, "branch", c.Branch)
}
