package contracts

import (
	"context"
	"errors"
)

// ErrUnavailable signals a valid empty outcome: the source answered but
// has no data to give (option chain outside market hours, for example).
// Retry policies must pass it through without retrying, and callers must
// not treat it as a fetch error.
var ErrUnavailable = errors.New("source data unavailable")

// SourceAdapter is one external indicator source. Implementations never
// let an error escape as a panic; "could not fetch" is (nil, err) and a
// valid empty result is (nil, ErrUnavailable).
type SourceAdapter interface {
	// Name identifies the source in the fetch log.
	Name() string

	// Critical reports whether this source's absence degrades the
	// snapshot (clears data_complete) rather than defaulting to neutral.
	Critical() bool

	// Fetch retrieves the source's fields for the current trading day.
	Fetch(ctx context.Context) (*SourceRecord, error)
}

// Store is the durable, idempotent persistence layer keyed by date.
type Store interface {
	// UpsertRow inserts or fully replaces the row for row.Date().
	// Callers always supply the complete row; there are no partial updates.
	UpsertRow(ctx context.Context, row *DailyRow) error

	// AppendFetchLog inserts an audit entry. Insert-only, never deduplicated.
	AppendFetchLog(ctx context.Context, entry *FetchLogEntry) error

	// ReadHistory returns the last n rows in ascending date order,
	// silently returning fewer if history is shorter.
	ReadHistory(ctx context.Context, n int) ([]*DailyRow, error)

	// ReadLatest returns the most recent row, or ErrNoRows if the table
	// is empty.
	ReadLatest(ctx context.Context) (*DailyRow, error)

	// Exists reports whether a row for the date is already persisted.
	Exists(ctx context.Context, date string) (bool, error)
}

// ErrNoRows is returned by ReadLatest on an empty table.
var ErrNoRows = errors.New("no rows persisted")
