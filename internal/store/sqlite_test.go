// File: internal/store/sqlite_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/trigger"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s := NewSQLiteStore(&StoreConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "test.db"),
		MaxConnections:   4,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, s.Connect())
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	return s
}

func sampleIntegration(id string) *models.Integration {
	return &models.Integration{
		ID:                  id,
		Name:                "build notifier",
		Type:                models.IntegrationTypeOutgoing,
		Event:               models.EventSendMessage,
		Enabled:             true,
		Channel:             []string{"#general", "#builds"},
		URLs:                []string{"https://example.org/hook"},
		Username:            "webhook-bot",
		TriggerWords:        []string{"!build"},
		TriggerWordAnywhere: true,
		RetryFailedCalls:    true,
		RetryCount:          3,
		RetryDelay:          models.RetryPowersOfTen,
		Alias:               "Builder",
		Token:               "tok123",
	}
}

func TestSQLiteIntegrationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := sampleIntegration("int1")
	require.NoError(t, s.SaveIntegration(ctx, record))

	loaded, err := s.GetIntegration(ctx, "int1")
	require.NoError(t, err)

	assert.Equal(t, record.Name, loaded.Name)
	assert.Equal(t, record.Event, loaded.Event)
	assert.Equal(t, record.Channel, loaded.Channel)
	assert.Equal(t, record.URLs, loaded.URLs)
	assert.Equal(t, record.TriggerWords, loaded.TriggerWords)
	assert.True(t, loaded.TriggerWordAnywhere)
	assert.True(t, loaded.RetryFailedCalls)
	assert.Equal(t, 3, loaded.RetryCount)
	assert.Equal(t, models.RetryPowersOfTen, loaded.RetryDelay)
	assert.Equal(t, "tok123", loaded.Token)
	assert.False(t, loaded.CreatedAt.IsZero())

	t.Run("saving again updates in place", func(t *testing.T) {
		record.Name = "renamed"
		require.NoError(t, s.SaveIntegration(ctx, record))

		loaded, err := s.GetIntegration(ctx, "int1")
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)
	})

	t.Run("missing integrations are a not-found error", func(t *testing.T) {
		_, err := s.GetIntegration(ctx, "nope")
		require.Error(t, err)
		appErr, ok := utils.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
	})
}

func TestSQLiteGetIntegrationsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	enabled := sampleIntegration("on")
	disabled := sampleIntegration("off")
	disabled.Enabled = false

	require.NoError(t, s.SaveIntegration(ctx, enabled))
	require.NoError(t, s.SaveIntegration(ctx, disabled))

	all, err := s.GetIntegrations(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only := true
	active, err := s.GetIntegrations(ctx, &only)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].ID)
}

func TestSQLiteDisableAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveIntegration(ctx, sampleIntegration("int1")))

	require.NoError(t, s.DisableIntegration(ctx, "int1"))
	loaded, err := s.GetIntegration(ctx, "int1")
	require.NoError(t, err)
	assert.False(t, loaded.Enabled)

	require.NoError(t, s.DeleteIntegration(ctx, "int1"))
	_, err = s.GetIntegration(ctx, "int1")
	assert.Error(t, err)
}

func TestSQLiteHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Now()
	entry := &models.HistoryEntry{
		ID:              "h1",
		IntegrationID:   "int1",
		IntegrationName: "build notifier",
		Event:           models.EventSendMessage,
		Step:            models.HistoryStepStart,
		URL:             "https://example.org/hook",
		Data:            &models.Payload{Token: "tok", Text: "!build now"},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	require.NoError(t, s.SaveHistory(ctx, entry))

	loaded, err := s.GetHistory(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, models.HistoryStepStart, loaded.Step)
	assert.Equal(t, models.EventSendMessage, loaded.Event)
	require.NotNil(t, loaded.Data)
	assert.Equal(t, "tok", loaded.Data.Token)
	assert.Equal(t, "!build now", loaded.Data.Text)

	t.Run("listing is scoped to the integration", func(t *testing.T) {
		other := *entry
		other.ID = "h2"
		other.IntegrationID = "int2"
		require.NoError(t, s.SaveHistory(ctx, &other))

		entries, err := s.GetHistoriesByIntegration(ctx, "int1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "h1", entries[0].ID)
	})
}

func TestSQLiteStoreStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveIntegration(ctx, sampleIntegration("int1")))
	off := sampleIntegration("int2")
	off.Enabled = false
	require.NoError(t, s.SaveIntegration(ctx, off))

	now := time.Now()
	require.NoError(t, s.SaveHistory(ctx, &models.HistoryEntry{
		ID: "h1", IntegrationID: "int1", Step: models.HistoryStepStart, CreatedAt: now, UpdatedAt: now,
	}))

	stats, err := s.GetStoreStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalIntegrations)
	assert.Equal(t, int64(1), stats.EnabledIntegrations)
	assert.Equal(t, int64(1), stats.TotalHistories)
	assert.NotNil(t, stats.LatestHistoryAt)
}

func TestHistoryRecorder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	recorder := NewHistoryRecorder(s)

	record := sampleIntegration("int1")

	id, err := recorder.Record(ctx, &trigger.HistoryUpdate{
		Step:        models.HistoryStepStart,
		Integration: record,
		Event:       models.EventSendMessage,
		URL:         "https://example.org/hook",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("the first update opens the record", func(t *testing.T) {
		entry, err := s.GetHistory(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "int1", entry.IntegrationID)
		assert.Equal(t, "build notifier", entry.IntegrationName)
		assert.Equal(t, models.HistoryStepStart, entry.Step)
		assert.False(t, entry.Finished)
	})

	t.Run("later updates merge into the same record", func(t *testing.T) {
		got, err := recorder.Record(ctx, &trigger.HistoryUpdate{
			HistoryID: id,
			Step:      models.HistoryStepMappedArgsToData,
			Data:      &models.Payload{Token: "tok"},
		})
		require.NoError(t, err)
		assert.Equal(t, id, got)

		_, err = recorder.Record(ctx, &trigger.HistoryUpdate{
			HistoryID:  id,
			Step:       models.HistoryStepAfterHTTPCall,
			HTTPResult: `{"ok":true}`,
			Finished:   true,
		})
		require.NoError(t, err)

		entry, err := s.GetHistory(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.HistoryStepAfterHTTPCall, entry.Step)
		assert.Equal(t, "https://example.org/hook", entry.URL, "earlier fields survive merges")
		require.NotNil(t, entry.Data)
		assert.Equal(t, "tok", entry.Data.Token)
		assert.Equal(t, `{"ok":true}`, entry.HTTPResult)
		assert.True(t, entry.Finished)
	})

	t.Run("updating an unknown record fails", func(t *testing.T) {
		_, err := recorder.Record(ctx, &trigger.HistoryUpdate{
			HistoryID: "missing",
			Step:      models.HistoryStepAfterHTTPCall,
		})
		assert.Error(t, err)
	})
}
