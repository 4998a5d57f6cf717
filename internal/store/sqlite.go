// File: internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db         *sql.DB
	config     *StoreConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(config *StoreConfig) *SQLiteStore {
	return &SQLiteStore{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetSQLiteMigrations(),
	}
}

// Connect establishes the database connection
func (s *SQLiteStore) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite database connected")

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStore) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}

	for _, migration := range s.migrations {
		s.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
	}

	return nil
}

// SaveIntegration inserts or replaces an integration record
func (s *SQLiteStore) SaveIntegration(ctx context.Context, record *models.Integration) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := `INSERT OR REPLACE INTO integrations (
		id, name, type, event, enabled, channel, urls, username,
		impersonate_user, target_room, trigger_words, trigger_word_anywhere,
		run_on_edits, retry_failed_calls, retry_count, retry_delay,
		alias, avatar, emoji, token, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Name, record.Type, string(record.Event), record.Enabled,
		marshalStrings(record.Channel), marshalStrings(record.URLs), record.Username,
		record.ImpersonateUser, record.TargetRoom, marshalStrings(record.TriggerWords),
		record.TriggerWordAnywhere, record.RunOnEdits, record.RetryFailedCalls,
		record.RetryCount, string(record.RetryDelay), record.Alias, record.Avatar,
		record.Emoji, record.Token, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save integration", err.Error())
	}
	return nil
}

// GetIntegration fetches one integration by id
func (s *SQLiteStore) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	query := integrationSelectColumns + ` FROM integrations WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	record, err := scanIntegration(row)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "Integration not found", id)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get integration", err.Error())
	}
	return record, nil
}

// GetIntegrations lists integrations, optionally filtered by enabled state
func (s *SQLiteStore) GetIntegrations(ctx context.Context, enabled *bool) ([]*models.Integration, error) {
	query := integrationSelectColumns + ` FROM integrations`
	args := []interface{}{}
	if enabled != nil {
		query += ` WHERE enabled = ?`
		args = append(args, *enabled)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to list integrations", err.Error())
	}
	defer rows.Close()

	var records []*models.Integration
	for rows.Next() {
		record, err := scanIntegration(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan integration", err.Error())
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DisableIntegration flips the enabled flag off
func (s *SQLiteStore) DisableIntegration(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE integrations SET enabled = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to disable integration", err.Error())
	}
	return nil
}

// DeleteIntegration removes an integration record
func (s *SQLiteStore) DeleteIntegration(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM integrations WHERE id = ?`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete integration", err.Error())
	}
	return nil
}

// SaveHistory inserts or replaces a history entry
func (s *SQLiteStore) SaveHistory(ctx context.Context, entry *models.HistoryEntry) error {
	query := `INSERT OR REPLACE INTO integration_history (
		id, integration_id, integration_name, event, step, url, trigger_word,
		data, http_call_data, http_result, http_error, error_stack, error,
		finished, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.IntegrationID, entry.IntegrationName, string(entry.Event),
		entry.Step, entry.URL, entry.TriggerWord, marshalPayload(entry.Data),
		entry.HTTPCallData, entry.HTTPResult, entry.HTTPError, entry.ErrorStack,
		entry.Error, entry.Finished, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save history entry", err.Error())
	}
	return nil
}

// GetHistory fetches one history entry by id
func (s *SQLiteStore) GetHistory(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := historySelectColumns + ` FROM integration_history WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	entry, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "History entry not found", id)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get history entry", err.Error())
	}
	return entry, nil
}

// GetHistoriesByIntegration lists recent history entries of an integration
func (s *SQLiteStore) GetHistoriesByIntegration(ctx context.Context, integrationID string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := historySelectColumns + ` FROM integration_history
		WHERE integration_id = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, integrationID, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to list history entries", err.Error())
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan history entry", err.Error())
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetStoreStats returns storage statistics
func (s *SQLiteStore) GetStoreStats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM integrations`).Scan(&stats.TotalIntegrations); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count integrations", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM integrations WHERE enabled = 1`).Scan(&stats.EnabledIntegrations); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count enabled integrations", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM integration_history`).Scan(&stats.TotalHistories); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count history entries", err.Error())
	}

	var latest sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM integration_history`).Scan(&latest); err == nil && latest.Valid {
		stats.LatestHistoryAt = &latest.Time
	}

	return stats, nil
}
