// File: internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
)

// Store defines the persistence interface for integrations and their
// execution-history audit records
type Store interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Integration operations
	SaveIntegration(ctx context.Context, record *models.Integration) error
	GetIntegration(ctx context.Context, id string) (*models.Integration, error)
	GetIntegrations(ctx context.Context, enabled *bool) ([]*models.Integration, error)
	DisableIntegration(ctx context.Context, id string) error
	DeleteIntegration(ctx context.Context, id string) error

	// History operations
	SaveHistory(ctx context.Context, entry *models.HistoryEntry) error
	GetHistory(ctx context.Context, id string) (*models.HistoryEntry, error)
	GetHistoriesByIntegration(ctx context.Context, integrationID string, limit int) ([]*models.HistoryEntry, error)

	// Statistics
	GetStoreStats(ctx context.Context) (*StoreStats, error)
}

// StoreStats provides storage statistics
type StoreStats struct {
	TotalIntegrations   int64      `json:"total_integrations"`
	EnabledIntegrations int64      `json:"enabled_integrations"`
	TotalHistories      int64      `json:"total_histories"`
	LatestHistoryAt     *time.Time `json:"latest_history_at,omitempty"`
}

// StoreConfig holds storage configuration
type StoreConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}
