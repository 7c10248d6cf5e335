package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Yrd980/starsearch/internal/fingerprint"
	"github.com/Yrd980/starsearch/pkg/types"
)

// ErrNotFound is returned when a requested record doesn't exist
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer: upsert serialization per full_name falls out of the
	// connection pool, and index throughput is bounded by remote fetches
	// anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (creating if needed) the index database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const repoColumns = `full_name, name, description, language, stars, updated_at,
       html_url, owner_login, owner_avatar, archived, readme_content,
       topics, last_indexed, content_hash`

// Upsert writes repo and its shadow entry in one transaction, or skips both
// when the stored content fingerprint matches. The shadow write is always a
// delete-then-insert relative to the previous content so the index can never
// hold duplicate or stale fragments for a key.
func (s *SQLiteStore) Upsert(ctx context.Context, repo *types.Repository) (UpsertResult, error) {
	repo.ContentHash = fingerprint.Compute(repo.Description, repo.ReadmeContent, repo.UpdatedAt)

	topicsJSON, err := json.Marshal(repo.Topics)
	if err != nil {
		return Skipped, fmt.Errorf("failed to encode topics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Skipped, err
	}
	defer func() { _ = tx.Rollback() }()

	var storedHash string
	err = tx.QueryRowContext(ctx,
		"SELECT content_hash FROM repos WHERE full_name = ?", repo.FullName,
	).Scan(&storedHash)
	if err != nil && err != sql.ErrNoRows {
		return Skipped, fmt.Errorf("failed to read stored fingerprint: %w", err)
	}
	if err == nil && !fingerprint.Changed(storedHash, repo.ContentHash) {
		// No content change: leave the row, including last_indexed, alone.
		return Skipped, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO repos (`+repoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			language = excluded.language,
			stars = excluded.stars,
			updated_at = excluded.updated_at,
			html_url = excluded.html_url,
			owner_login = excluded.owner_login,
			owner_avatar = excluded.owner_avatar,
			archived = excluded.archived,
			readme_content = excluded.readme_content,
			topics = excluded.topics,
			last_indexed = excluded.last_indexed,
			content_hash = excluded.content_hash
	`,
		repo.FullName, repo.Name, repo.Description, repo.Language, repo.Stars,
		repo.UpdatedAt, repo.HTMLURL, repo.OwnerLogin, repo.OwnerAvatar,
		repo.Archived, repo.ReadmeContent, string(topicsJSON),
		repo.LastIndexed, repo.ContentHash)
	if err != nil {
		return Skipped, fmt.Errorf("failed to upsert repo: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM repo_fts WHERE full_name = ?", repo.FullName); err != nil {
		return Skipped, fmt.Errorf("failed to clear shadow entry: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO repo_fts (full_name, name, description, readme_content, topics)
		VALUES (?, ?, ?, ?, ?)
	`, repo.FullName, repo.Name, repo.Description, repo.ReadmeContent,
		strings.Join(repo.Topics, " ")); err != nil {
		return Skipped, fmt.Errorf("failed to write shadow entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Skipped, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return Written, nil
}

// Delete removes the record and its shadow entry as a single unit.
func (s *SQLiteStore) Delete(ctx context.Context, fullName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, "DELETE FROM repos WHERE full_name = ?", fullName)
	if err != nil {
		return fmt.Errorf("failed to delete repo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM repo_fts WHERE full_name = ?", fullName); err != nil {
		return fmt.Errorf("failed to delete shadow entry: %w", err)
	}

	return tx.Commit()
}

// Get returns the record for fullName or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, fullName string) (*types.Repository, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+repoColumns+" FROM repos WHERE full_name = ?", fullName)

	repo, err := scanRepo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// ListAll returns records ordered by stars descending. limit <= 0 returns
// every record.
func (s *SQLiteStore) ListAll(ctx context.Context, limit int) ([]types.Repository, error) {
	query := "SELECT " + repoColumns + " FROM repos ORDER BY stars DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectRepos(rows)
}

// SearchFTS runs match against the shadow table and returns the joined
// records, most-starred first. limit <= 0 returns every match so relevance
// scoring upstream sees the full candidate set, not a star-ordered window.
func (s *SQLiteStore) SearchFTS(ctx context.Context, match string, limit int) ([]types.Repository, error) {
	query := `
		SELECT ` + prefixColumns("r") + `
		FROM repo_fts f
		JOIN repos r ON r.full_name = f.full_name
		WHERE repo_fts MATCH ?
		ORDER BY r.stars DESC
	`
	args := []interface{}{match}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRepos(rows)
}

// SuggestRows returns (name, topics) pairs whose name or topics column
// contains substr, ordered by stars descending.
func (s *SQLiteStore) SuggestRows(ctx context.Context, substr string, limit int) ([]SuggestRow, error) {
	like := "%" + substr + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, topics FROM repos
		WHERE name LIKE ? OR topics LIKE ?
		ORDER BY stars DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	suggestions := make([]SuggestRow, 0)
	for rows.Next() {
		var sr SuggestRow
		var topicsJSON string
		if err := rows.Scan(&sr.Name, &topicsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topicsJSON), &sr.Topics); err != nil {
			sr.Topics = []string{}
		}
		suggestions = append(suggestions, sr)
	}
	return suggestions, rows.Err()
}

// Stats summarizes the index contents.
func (s *SQLiteStore) Stats(ctx context.Context) (*types.IndexStats, error) {
	stats := &types.IndexStats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM repos").Scan(&stats.TotalRepositories)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM repos WHERE readme_content != ''").Scan(&stats.WithReadme)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT language) FROM repos WHERE language != ''").Scan(&stats.UniqueLanguages)
	if err != nil {
		return nil, err
	}

	if stats.TotalRepositories > 0 {
		stats.ReadmeCoverage = float64(stats.WithReadme) / float64(stats.TotalRepositories) * 100
	}
	return stats, nil
}

// Counts returns the record and shadow row counts.
func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var repoRows, shadowRows int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM repos").Scan(&repoRows); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM repo_fts").Scan(&shadowRows); err != nil {
		return 0, 0, err
	}
	return repoRows, shadowRows, nil
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRepo(sc scanner) (*types.Repository, error) {
	var repo types.Repository
	var topicsJSON string
	var lastIndexed sql.NullTime

	err := sc.Scan(
		&repo.FullName, &repo.Name, &repo.Description, &repo.Language,
		&repo.Stars, &repo.UpdatedAt, &repo.HTMLURL, &repo.OwnerLogin,
		&repo.OwnerAvatar, &repo.Archived, &repo.ReadmeContent,
		&topicsJSON, &lastIndexed, &repo.ContentHash,
	)
	if err != nil {
		return nil, err
	}

	if lastIndexed.Valid {
		repo.LastIndexed = lastIndexed.Time
	}
	if err := json.Unmarshal([]byte(topicsJSON), &repo.Topics); err != nil || repo.Topics == nil {
		repo.Topics = []string{}
	}
	return &repo, nil
}

func collectRepos(rows *sql.Rows) ([]types.Repository, error) {
	repos := make([]types.Repository, 0)
	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}
	return repos, rows.Err()
}

func prefixColumns(alias string) string {
	cols := strings.Split(repoColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
