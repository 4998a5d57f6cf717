// File: internal/store/factory.go
package store

import (
	"strings"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/config"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// NewStore creates a new store instance based on configuration
func NewStore(cfg *config.StorageConfig) (Store, error) {
	storeConfig := &StoreConfig{
		Type:             cfg.Type,
		ConnectionString: cfg.ConnectionString,
		MaxConnections:   cfg.MaxConnections,
		MaxIdleTime:      cfg.MaxIdleTime,
	}

	switch strings.ToLower(cfg.Type) {
	case "sqlite":
		return NewSQLiteStore(storeConfig), nil
	case "postgres", "postgresql":
		return NewPostgresStore(storeConfig), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported storage type", cfg.Type)
	}
}
