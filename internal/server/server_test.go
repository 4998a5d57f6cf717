// File: internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/chat"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/config"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/store"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/trigger"
)

type serverFixture struct {
	server    *HTTPServer
	store     store.Store
	directory *chat.Directory
	engine    trigger.Engine
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	st := store.NewSQLiteStore(&store.StoreConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "test.db"),
		MaxConnections:   4,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, st.Connect())
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { st.Close() })

	directory := chat.NewDirectory()
	directory.AddUser(&models.User{ID: "bot1", Username: "webhook-bot"})
	directory.AddRoom(&models.Room{ID: "room1", Name: "general", Type: models.RoomTypePublic})

	engine := trigger.NewManager(trigger.Deps{
		Users:        directory,
		Rooms:        directory,
		Messages:     directory,
		Messenger:    directory,
		Integrations: st,
		History:      store.NewHistoryRecorder(st),
		Settings:     config.NewEngineSettings(&config.EngineConfig{SiteURL: "http://localhost:3000"}),
		Notifier:     directory,
		Fetcher:      transport.NewHTTPFetcher(5 * time.Second),
	})
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(func() { engine.Stop() })

	cfg := &config.ServerConfig{
		Port:         8080,
		Host:         "127.0.0.1",
		EnableHealth: true,
	}

	return &serverFixture{
		server:    NewHTTPServer(cfg, engine, st, nil),
		store:     st,
		directory: directory,
		engine:    engine,
	}
}

func (fx *serverFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	fx.server.router.ServeHTTP(rec, req)
	return rec
}

func validIntegrationBody() map[string]interface{} {
	return map[string]interface{}{
		"name":     "build notifier",
		"event":    "sendMessage",
		"enabled":  true,
		"channel":  []string{"#general"},
		"urls":     []string{"https://example.org/hook"},
		"username": "webhook-bot",
	}
}

func TestHandleHealth(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.request(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestCreateIntegration(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/integrations", validIntegrationBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Integration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, models.IntegrationTypeOutgoing, created.Type)

	assert.True(t, fx.engine.IsTriggerEnabled(&created), "created integrations register immediately")

	t.Run("the integration is persisted", func(t *testing.T) {
		rec := fx.request(t, http.MethodGet, "/api/v1/integrations/"+created.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("listing includes the integration", func(t *testing.T) {
		rec := fx.request(t, http.MethodGet, "/api/v1/integrations", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var records []*models.Integration
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records, 1)
	})
}

func TestCreateIntegrationValidation(t *testing.T) {
	fx := newServerFixture(t)

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{"missing name", func(b map[string]interface{}) { delete(b, "name") }},
		{"unknown event", func(b map[string]interface{}) { b["event"] = "mystery" }},
		{"no urls", func(b map[string]interface{}) { b["urls"] = []string{} }},
		{"missing username", func(b map[string]interface{}) { delete(b, "username") }},
		{"bad retry strategy", func(b map[string]interface{}) { b["retry_delay"] = "fibonacci" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validIntegrationBody()
			tt.mutate(body)
			rec := fx.request(t, http.MethodPost, "/api/v1/integrations", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteIntegration(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/integrations", validIntegrationBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Integration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = fx.request(t, http.MethodDelete, "/api/v1/integrations/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, fx.engine.IsTriggerEnabled(&created))
	rec = fx.request(t, http.MethodGet, "/api/v1/integrations/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownIntegration(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.request(t, http.MethodGet, "/api/v1/integrations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInjectEventExecutesTriggers(t *testing.T) {
	fx := newServerFixture(t)

	var hits atomic.Int64
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	t.Cleanup(target.Close)

	body := validIntegrationBody()
	body["urls"] = []string{target.URL}
	rec := fx.request(t, http.MethodPost, "/api/v1/integrations", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Integration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	event := map[string]interface{}{
		"event": "sendMessage",
		"message": map[string]interface{}{
			"_id": "msg1",
			"rid": "room1",
			"msg": "hello webhook",
			"u":   map[string]interface{}{"_id": "u1", "username": "alice"},
		},
		"room": map[string]interface{}{"_id": "room1", "name": "general", "t": "c"},
	}

	rec = fx.request(t, http.MethodPost, "/api/v1/events", event)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return hits.Load() == 1 }, 5*time.Second, 20*time.Millisecond)

	t.Run("execution history is recorded", func(t *testing.T) {
		require.Eventually(t, func() bool {
			entries, err := fx.store.GetHistoriesByIntegration(context.Background(), created.ID, 10)
			return err == nil && len(entries) > 0 && entries[0].Finished
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("unknown event kinds are rejected", func(t *testing.T) {
		rec := fx.request(t, http.MethodPost, "/api/v1/events", map[string]interface{}{"event": "mystery"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReplayEndpoint(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/integrations", validIntegrationBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Integration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	t.Run("replaying an unknown history entry is a 404", func(t *testing.T) {
		rec := fx.request(t, http.MethodPost, "/api/v1/integrations/"+created.ID+"/history/missing/replay", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("history without payload data cannot be replayed", func(t *testing.T) {
		now := time.Now()
		entry := &models.HistoryEntry{
			ID: "h1", IntegrationID: created.ID, Step: models.HistoryStepStart,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, fx.store.SaveHistory(context.Background(), entry))

		rec := fx.request(t, http.MethodPost, "/api/v1/integrations/"+created.ID+"/history/h1/replay", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("a replayable entry is accepted", func(t *testing.T) {
		now := time.Now()
		entry := &models.HistoryEntry{
			ID: "h2", IntegrationID: created.ID, Event: models.EventSendMessage,
			Data:      &models.Payload{ChannelID: "room1"},
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, fx.store.SaveHistory(context.Background(), entry))

		rec := fx.request(t, http.MethodPost, "/api/v1/integrations/"+created.ID+"/history/h2/replay", nil)
		assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	})
}
