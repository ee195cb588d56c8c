package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aqualedger/aqualedger/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Database defines the interface for persisting household state between
// restarts.
type Database interface {
	// Settings
	GetSettings(ctx context.Context) (types.Settings, int, error)
	SetSettings(ctx context.Context, settings types.Settings, version int) error

	// Manual ledger
	GetManualEntries(ctx context.Context) (map[string]types.ManualEntry, error)
	UpsertManualEntry(ctx context.Context, date string, entry types.ManualEntry) error
	// DeleteManualEntry removes the entry for date. Deleting a missing date
	// is not an error.
	DeleteManualEntry(ctx context.Context, date string) error

	// Reports
	GetLatestReport(ctx context.Context) ([]string, error)
	SetLatestReport(ctx context.Context, lines []string) error

	// History
	InsertCycle(ctx context.Context, record types.CycleRecord) error
	GetCycleHistory(ctx context.Context, start, end time.Time) ([]types.CycleRecord, error)

	// Lifecycle
	Close() error
}
