package storage

import (
	"context"

	"github.com/Yrd980/starsearch/pkg/types"
)

// UpsertResult reports what an Upsert call did.
type UpsertResult int

const (
	// Skipped means the stored content fingerprint matched and the row was
	// left untouched, including last_indexed.
	Skipped UpsertResult = iota
	// Written means the row and its full-text shadow entry were replaced.
	Written
)

func (r UpsertResult) String() string {
	if r == Written {
		return "written"
	}
	return "skipped"
}

// Store defines the interface for persisting and querying repository records.
// Implementations must keep the full-text shadow in lockstep with the record
// table: after Upsert or Delete returns, a full-text query reflects exactly
// the current store contents.
type Store interface {
	// Upsert writes record and its shadow entry, or skips both when the
	// content fingerprint is unchanged. The record's ContentHash is set
	// either way.
	Upsert(ctx context.Context, repo *types.Repository) (UpsertResult, error)
	Get(ctx context.Context, fullName string) (*types.Repository, error)
	// Delete removes the row and its shadow entry as a single unit.
	Delete(ctx context.Context, fullName string) error
	// ListAll returns records ordered by stars descending. limit <= 0
	// returns everything.
	ListAll(ctx context.Context, limit int) ([]types.Repository, error)
	// SearchFTS runs an FTS5 MATCH query against the shadow table and
	// returns the joined records ordered by stars descending. limit <= 0
	// returns every match.
	SearchFTS(ctx context.Context, match string, limit int) ([]types.Repository, error)
	// SuggestRows returns (name, topics) pairs whose name or topics contain
	// substr, ordered by stars descending.
	SuggestRows(ctx context.Context, substr string, limit int) ([]SuggestRow, error)
	Stats(ctx context.Context) (*types.IndexStats, error)
	// Counts returns the row counts of the record table and the shadow
	// table, for consistency checks.
	Counts(ctx context.Context) (repoRows, shadowRows int, err error)
	Close() error
}

// SuggestRow is the projection used for suggestion lookups.
type SuggestRow struct {
	Name   string
	Topics []string
}
