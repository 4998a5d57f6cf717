// File: internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db         *sql.DB
	config     *StoreConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewPostgresStore creates a new PostgreSQL store instance
func NewPostgresStore(config *StoreConfig) *PostgresStore {
	return &PostgresStore{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetPostgresMigrations(),
	}
}

// Connect establishes the database connection
func (s *PostgresStore) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to connect to PostgreSQL", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL database connected")

	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("PostgreSQL database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate() error {
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

// SaveIntegration inserts or updates an integration record
func (s *PostgresStore) SaveIntegration(ctx context.Context, record *models.Integration) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := `INSERT INTO integrations (
		id, name, type, event, enabled, channel, urls, username,
		impersonate_user, target_room, trigger_words, trigger_word_anywhere,
		run_on_edits, retry_failed_calls, retry_count, retry_delay,
		alias, avatar, emoji, token, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, type = EXCLUDED.type, event = EXCLUDED.event,
		enabled = EXCLUDED.enabled, channel = EXCLUDED.channel,
		urls = EXCLUDED.urls, username = EXCLUDED.username,
		impersonate_user = EXCLUDED.impersonate_user,
		target_room = EXCLUDED.target_room,
		trigger_words = EXCLUDED.trigger_words,
		trigger_word_anywhere = EXCLUDED.trigger_word_anywhere,
		run_on_edits = EXCLUDED.run_on_edits,
		retry_failed_calls = EXCLUDED.retry_failed_calls,
		retry_count = EXCLUDED.retry_count, retry_delay = EXCLUDED.retry_delay,
		alias = EXCLUDED.alias, avatar = EXCLUDED.avatar,
		emoji = EXCLUDED.emoji, token = EXCLUDED.token,
		updated_at = EXCLUDED.updated_at`

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
func (s *PostgresStore) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	query := integrationSelectColumns + ` FROM integrations WHERE id = $1`
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
func (s *PostgresStore) GetIntegrations(ctx context.Context, enabled *bool) ([]*models.Integration, error) {
	query := integrationSelectColumns + ` FROM integrations`
	args := []interface{}{}
	if enabled != nil {
		query += ` WHERE enabled = $1`
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
func (s *PostgresStore) DisableIntegration(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE integrations SET enabled = FALSE, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to disable integration", err.Error())
	}
	return nil
}

// DeleteIntegration removes an integration record
func (s *PostgresStore) DeleteIntegration(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM integrations WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to delete integration", err.Error())
	}
	return nil
}

// SaveHistory inserts or updates a history entry
func (s *PostgresStore) SaveHistory(ctx context.Context, entry *models.HistoryEntry) error {
	query := `INSERT INTO integration_history (
		id, integration_id, integration_name, event, step, url, trigger_word,
		data, http_call_data, http_result, http_error, error_stack, error,
		finished, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		step = EXCLUDED.step, url = EXCLUDED.url,
		trigger_word = EXCLUDED.trigger_word, data = EXCLUDED.data,
		http_call_data = EXCLUDED.http_call_data,
		http_result = EXCLUDED.http_result, http_error = EXCLUDED.http_error,
		error_stack = EXCLUDED.error_stack, error = EXCLUDED.error,
		finished = EXCLUDED.finished, updated_at = EXCLUDED.updated_at`

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
func (s *PostgresStore) GetHistory(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := historySelectColumns + ` FROM integration_history WHERE id = $1`
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
func (s *PostgresStore) GetHistoriesByIntegration(ctx context.Context, integrationID string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := historySelectColumns + ` FROM integration_history
		WHERE integration_id = $1 ORDER BY created_at DESC LIMIT $2`

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
func (s *PostgresStore) GetStoreStats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM integrations`).Scan(&stats.TotalIntegrations); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count integrations", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM integrations WHERE enabled = TRUE`).Scan(&stats.EnabledIntegrations); err != nil {
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
