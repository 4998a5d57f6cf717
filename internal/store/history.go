// File: internal/store/history.go
package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/trigger"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// HistoryRecorder persists execution-history updates from the trigger engine.
// An update without a history id opens a new record; later updates for the
// same attempt are merged into it field by field.
type HistoryRecorder struct {
	store  Store
	logger *logrus.Logger
}

// NewHistoryRecorder creates a history recorder backed by the given store
func NewHistoryRecorder(store Store) *HistoryRecorder {
	return &HistoryRecorder{
		store:  store,
		logger: utils.GetLogger(),
	}
}

var _ trigger.HistorySink = (*HistoryRecorder)(nil)

// Record writes one audit step and returns the history record id
func (r *HistoryRecorder) Record(ctx context.Context, update *trigger.HistoryUpdate) (string, error) {
	now := time.Now()

	var entry *models.HistoryEntry
	if update.HistoryID == "" {
		entry = &models.HistoryEntry{
			ID:        utils.GenerateID(),
			CreatedAt: now,
		}
		if update.Integration != nil {
			entry.IntegrationID = update.Integration.ID
			entry.IntegrationName = update.Integration.Name
		}
	} else {
		existing, err := r.store.GetHistory(ctx, update.HistoryID)
		if err != nil {
			return "", err
		}
		entry = existing
	}

	entry.Step = update.Step
	entry.UpdatedAt = now
	if update.Event != "" {
		entry.Event = update.Event
	}
	if update.URL != "" {
		entry.URL = update.URL
	}
	if update.TriggerWord != "" {
		entry.TriggerWord = update.TriggerWord
	}
	if update.Data != nil {
		entry.Data = update.Data
	}
	if update.HTTPCallData != "" {
		entry.HTTPCallData = update.HTTPCallData
	}
	if update.HTTPResult != "" {
		entry.HTTPResult = update.HTTPResult
	}
	if update.HTTPError != "" {
		entry.HTTPError = update.HTTPError
	}
	if update.ErrorStack != "" {
		entry.ErrorStack = update.ErrorStack
	}
	if update.Error {
		entry.Error = true
	}
	if update.Finished {
		entry.Finished = true
	}

	if err := r.store.SaveHistory(ctx, entry); err != nil {
		return "", err
	}

	return entry.ID, nil
}
