// Package storage persists indexed repositories in SQLite and keeps a
// standalone FTS5 shadow table in sync with every write. Shadow entries are
// maintained explicitly inside the same transaction as the record they mirror,
// never via triggers.
package storage
