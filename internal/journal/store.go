package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/temirov/repocopier/internal/gitrepo"
)

const (
	sqliteDriverNameConstant         = "sqlite"
	inMemoryPathConstant             = ":memory:"
	timestampLayoutConstant          = "2006-01-02T15:04:05.000000000Z07:00"
	bootstrapTimeoutConstant         = 5 * time.Second
	defaultListLimitConstant         = 50
	databaseDirectoryPermissions     = 0o755
	pathNotConfiguredMessageConstant = "journal path not configured"
	entryNotFoundMessageConstant     = "journal entry not found"
	identifierMissingMessageConstant = "journal entry identifier is empty"
	createDirectoryErrorTemplate     = "create journal directory: %w"
	openDatabaseErrorTemplate        = "open journal database: %w"
	configureDatabaseErrorTemplate   = "configure journal database: %w"
	bootstrapErrorTemplate           = "bootstrap journal schema: %w"
	insertEntryErrorTemplate         = "record copy %s: %w"
	finishEntryErrorTemplate         = "finish copy %s: %w"
	listEntriesErrorTemplate         = "list copies: %w"
	parseTimestampErrorTemplate      = "parse %s timestamp of copy %s: %w"
	finishedAtColumnDescription      = "finished"
	startedAtColumnDescription       = "started"
	busyTimeoutStatementConstant     = "PRAGMA busy_timeout = 5000;"
)

const createTableStatementConstant = `CREATE TABLE IF NOT EXISTS copy_journal (
  id                     TEXT PRIMARY KEY,
  source_url             TEXT NOT NULL,
  destination_url        TEXT NOT NULL,
  author                 TEXT NOT NULL,
  status                 TEXT NOT NULL,
  error                  TEXT NOT NULL DEFAULT '',
  default_branch_renamed INTEGER NOT NULL DEFAULT 0,
  started_at             TEXT NOT NULL,
  finished_at            TEXT
);`

const (
	createIndexStatementConstant = `CREATE INDEX IF NOT EXISTS copy_journal_started_at_idx ON copy_journal(started_at);`
	insertEntryStatementConstant = `INSERT INTO copy_journal (id, source_url, destination_url, author, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`
	finishEntryStatementConstant = `UPDATE copy_journal SET status = ?, error = ?, default_branch_renamed = ?, finished_at = ? WHERE id = ?`
)

const listEntriesStatementConstant = `SELECT id, source_url, destination_url, author, status, error, default_branch_renamed, started_at, finished_at
FROM copy_journal ORDER BY started_at DESC, rowid DESC LIMIT ?`

// Status is the lifecycle state of a journal entry.
type Status string

// Journal entry states.
const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	// ErrPathNotConfigured indicates Open received an empty database path.
	ErrPathNotConfigured = errors.New(pathNotConfiguredMessageConstant)
	// ErrEntryNotFound indicates Finish referenced an unknown copy.
	ErrEntryNotFound = errors.New(entryNotFoundMessageConstant)
	// ErrIdentifierMissing indicates an entry without an identifier.
	ErrIdentifierMissing = errors.New(identifierMissingMessageConstant)
)

// Entry is one recorded copy attempt.
type Entry struct {
	Identifier           string     `json:"id"`
	SourceURL            string     `json:"sourceUrl"`
	DestinationURL       string     `json:"destinationUrl"`
	Author               string     `json:"author"`
	Status               Status     `json:"status"`
	ErrorMessage         string     `json:"error,omitempty"`
	DefaultBranchRenamed bool       `json:"defaultBranchRenamed"`
	StartedAt            time.Time  `json:"startedAt"`
	FinishedAt           *time.Time `json:"finishedAt,omitempty"`
}

// Outcome completes an entry.
type Outcome struct {
	Status               Status
	ErrorMessage         string
	DefaultBranchRenamed bool
	FinishedAt           time.Time
}

// Store persists journal entries.
type Store struct {
	database *sql.DB
}

// Open opens or creates the journal database at databasePath. ":memory:" keeps the journal in process.
func Open(executionContext context.Context, databasePath string) (*Store, error) {
	trimmedPath := strings.TrimSpace(databasePath)
	if len(trimmedPath) == 0 {
		return nil, ErrPathNotConfigured
	}

	inMemory := trimmedPath == inMemoryPathConstant
	if !inMemory {
		if mkdirError := os.MkdirAll(filepath.Dir(trimmedPath), databaseDirectoryPermissions); mkdirError != nil {
			return nil, fmt.Errorf(createDirectoryErrorTemplate, mkdirError)
		}
	}

	database, openError := sql.Open(sqliteDriverNameConstant, trimmedPath)
	if openError != nil {
		return nil, fmt.Errorf(openDatabaseErrorTemplate, openError)
	}
	if inMemory {
		// every pooled connection would otherwise see its own empty database
		database.SetMaxOpenConns(1)
	}

	bootstrapContext, cancel := context.WithTimeout(executionContext, bootstrapTimeoutConstant)
	defer cancel()

	if _, pragmaError := database.ExecContext(bootstrapContext, busyTimeoutStatementConstant); pragmaError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(configureDatabaseErrorTemplate, pragmaError)
	}
	for _, statement := range []string{createTableStatementConstant, createIndexStatementConstant} {
		if _, bootstrapError := database.ExecContext(bootstrapContext, statement); bootstrapError != nil {
			_ = database.Close()
			return nil, fmt.Errorf(bootstrapErrorTemplate, bootstrapError)
		}
	}

	return &Store{database: database}, nil
}

// Close releases the database.
func (store *Store) Close() error {
	return store.database.Close()
}

// Begin records a running copy. URLs are redacted before they are stored.
func (store *Store) Begin(executionContext context.Context, entry Entry) error {
	if len(strings.TrimSpace(entry.Identifier)) == 0 {
		return ErrIdentifierMissing
	}
	startedAt := entry.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	_, insertError := store.database.ExecContext(
		executionContext,
		insertEntryStatementConstant,
		entry.Identifier,
		gitrepo.RedactRemoteURL(entry.SourceURL),
		gitrepo.RedactRemoteURL(entry.DestinationURL),
		entry.Author,
		string(StatusRunning),
		formatTimestamp(startedAt),
	)
	if insertError != nil {
		return fmt.Errorf(insertEntryErrorTemplate, entry.Identifier, insertError)
	}
	return nil
}

// Finish stores the outcome of a copy previously passed to Begin.
func (store *Store) Finish(executionContext context.Context, identifier string, outcome Outcome) error {
	finishedAt := outcome.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	updateResult, updateError := store.database.ExecContext(
		executionContext,
		finishEntryStatementConstant,
		string(outcome.Status),
		outcome.ErrorMessage,
		outcome.DefaultBranchRenamed,
		formatTimestamp(finishedAt),
		identifier,
	)
	if updateError != nil {
		return fmt.Errorf(finishEntryErrorTemplate, identifier, updateError)
	}

	affectedRows, affectedError := updateResult.RowsAffected()
	if affectedError != nil {
		return fmt.Errorf(finishEntryErrorTemplate, identifier, affectedError)
	}
	if affectedRows == 0 {
		return fmt.Errorf(finishEntryErrorTemplate, identifier, ErrEntryNotFound)
	}
	return nil
}

// List returns up to limit entries, most recently started first. A non-positive limit selects the default of 50.
func (store *Store) List(executionContext context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimitConstant
	}

	rows, queryError := store.database.QueryContext(executionContext, listEntriesStatementConstant, limit)
	if queryError != nil {
		return nil, fmt.Errorf(listEntriesErrorTemplate, queryError)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry             Entry
			status            string
			startedAtText     string
			finishedAtText    sql.NullString
			defaultBranchFlag bool
		)
		if scanError := rows.Scan(
			&entry.Identifier,
			&entry.SourceURL,
			&entry.DestinationURL,
			&entry.Author,
			&status,
			&entry.ErrorMessage,
			&defaultBranchFlag,
			&startedAtText,
			&finishedAtText,
		); scanError != nil {
			return nil, fmt.Errorf(listEntriesErrorTemplate, scanError)
		}
		entry.Status = Status(status)
		entry.DefaultBranchRenamed = defaultBranchFlag

		startedAt, parseError := time.Parse(timestampLayoutConstant, startedAtText)
		if parseError != nil {
			return nil, fmt.Errorf(parseTimestampErrorTemplate, startedAtColumnDescription, entry.Identifier, parseError)
		}
		entry.StartedAt = startedAt

		if finishedAtText.Valid {
			finishedAt, finishedParseError := time.Parse(timestampLayoutConstant, finishedAtText.String)
			if finishedParseError != nil {
				return nil, fmt.Errorf(parseTimestampErrorTemplate, finishedAtColumnDescription, entry.Identifier, finishedParseError)
			}
			entry.FinishedAt = &finishedAt
		}

		entries = append(entries, entry)
	}
	if iterationError := rows.Err(); iterationError != nil {
		return nil, fmt.Errorf(listEntriesErrorTemplate, iterationError)
	}
	return entries, nil
}

func formatTimestamp(moment time.Time) string {
	return moment.UTC().Format(timestampLayoutConstant)
}
