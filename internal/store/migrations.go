// File: internal/store/migrations.go
package store

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// GetSQLiteMigrations returns migrations for SQLite
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create integrations table",
			SQL: `CREATE TABLE IF NOT EXISTS integrations (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL,
				event TEXT NOT NULL,
				enabled INTEGER NOT NULL DEFAULT 1,
				channel TEXT NOT NULL DEFAULT '[]',
				urls TEXT NOT NULL DEFAULT '[]',
				username TEXT NOT NULL DEFAULT '',
				impersonate_user INTEGER NOT NULL DEFAULT 0,
				target_room TEXT NOT NULL DEFAULT '',
				trigger_words TEXT NOT NULL DEFAULT '[]',
				trigger_word_anywhere INTEGER NOT NULL DEFAULT 0,
				run_on_edits INTEGER NOT NULL DEFAULT 0,
				retry_failed_calls INTEGER NOT NULL DEFAULT 0,
				retry_count INTEGER NOT NULL DEFAULT 0,
				retry_delay TEXT NOT NULL DEFAULT '',
				alias TEXT NOT NULL DEFAULT '',
				avatar TEXT NOT NULL DEFAULT '',
				emoji TEXT NOT NULL DEFAULT '',
				token TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
		{
			Version:     "002",
			Description: "Create integration_history table",
			SQL: `CREATE TABLE IF NOT EXISTS integration_history (
				id TEXT PRIMARY KEY,
				integration_id TEXT NOT NULL,
				integration_name TEXT NOT NULL DEFAULT '',
				event TEXT NOT NULL DEFAULT '',
				step TEXT NOT NULL DEFAULT '',
				url TEXT NOT NULL DEFAULT '',
				trigger_word TEXT NOT NULL DEFAULT '',
				data TEXT,
				http_call_data TEXT NOT NULL DEFAULT '',
				http_result TEXT NOT NULL DEFAULT '',
				http_error TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT '',
				error INTEGER NOT NULL DEFAULT 0,
				finished INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
		{
			Version:     "003",
			Description: "Create history lookup index",
			SQL: `CREATE INDEX IF NOT EXISTS idx_history_integration
				ON integration_history(integration_id, created_at DESC)`,
		},
	}
}

// GetPostgresMigrations returns migrations for PostgreSQL
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create integrations table",
			SQL: `CREATE TABLE IF NOT EXISTS integrations (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL,
				event TEXT NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				channel JSONB NOT NULL DEFAULT '[]',
				urls JSONB NOT NULL DEFAULT '[]',
				username TEXT NOT NULL DEFAULT '',
				impersonate_user BOOLEAN NOT NULL DEFAULT FALSE,
				target_room TEXT NOT NULL DEFAULT '',
				trigger_words JSONB NOT NULL DEFAULT '[]',
				trigger_word_anywhere BOOLEAN NOT NULL DEFAULT FALSE,
				run_on_edits BOOLEAN NOT NULL DEFAULT FALSE,
				retry_failed_calls BOOLEAN NOT NULL DEFAULT FALSE,
				retry_count INTEGER NOT NULL DEFAULT 0,
				retry_delay TEXT NOT NULL DEFAULT '',
				alias TEXT NOT NULL DEFAULT '',
				avatar TEXT NOT NULL DEFAULT '',
				emoji TEXT NOT NULL DEFAULT '',
				token TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
		},
		{
			Version:     "002",
			Description: "Create integration_history table",
			SQL: `CREATE TABLE IF NOT EXISTS integration_history (
				id TEXT PRIMARY KEY,
				integration_id TEXT NOT NULL,
				integration_name TEXT NOT NULL DEFAULT '',
				event TEXT NOT NULL DEFAULT '',
				step TEXT NOT NULL DEFAULT '',
				url TEXT NOT NULL DEFAULT '',
				trigger_word TEXT NOT NULL DEFAULT '',
				data JSONB,
				http_call_data TEXT NOT NULL DEFAULT '',
				http_result TEXT NOT NULL DEFAULT '',
				http_error TEXT NOT NULL DEFAULT '',
				error_stack TEXT NOT NULL DEFAULT '',
				error BOOLEAN NOT NULL DEFAULT FALSE,
				finished BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
		},
		{
			Version:     "003",
			Description: "Create history lookup index",
			SQL: `CREATE INDEX IF NOT EXISTS idx_history_integration
				ON integration_history(integration_id, created_at DESC)`,
		},
	}
}
