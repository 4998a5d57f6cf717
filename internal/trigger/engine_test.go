// File: internal/trigger/engine_test.go
package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
)

func TestManagerLifecycle(t *testing.T) {
	fx := newEngineFixture(t)

	assert.False(t, fx.manager.IsRunning())

	require.NoError(t, fx.manager.Start(context.Background()))
	assert.True(t, fx.manager.IsRunning())

	t.Run("double start fails", func(t *testing.T) {
		assert.Error(t, fx.manager.Start(context.Background()))
	})

	require.NoError(t, fx.manager.Stop())
	assert.False(t, fx.manager.IsRunning())

	t.Run("stopping a stopped engine is a no-op", func(t *testing.T) {
		assert.NoError(t, fx.manager.Stop())
	})
}

func TestManagerIntegrationIndex(t *testing.T) {
	fx := newEngineFixture(t)

	record := newTestIntegration("int1", models.EventSendMessage, "#general")
	fx.manager.AddIntegration(record)

	assert.True(t, fx.manager.IsTriggerEnabled(record))

	fx.manager.RemoveIntegration("int1")
	assert.False(t, fx.manager.IsTriggerEnabled(record))
}

func TestExecuteTriggersMatchesEventKind(t *testing.T) {
	fx := newEngineFixture(t)

	matching := newTestIntegration("match", models.EventSendMessage, "#general")
	matching.Username = "webhook-bot"
	wrongEvent := newTestIntegration("wrong-event", models.EventFileUploaded, "#general")
	disabled := newTestIntegration("disabled", models.EventSendMessage, "#general")
	disabled.Enabled = false

	fx.manager.AddIntegration(matching)
	fx.manager.AddIntegration(wrongEvent)
	fx.manager.AddIntegration(disabled)

	fx.fetcher.responses = []*transport.Response{{StatusCode: 200, Body: "ok"}}

	ev := fx.sendMessageEvent("hello world")
	fx.manager.ExecuteTriggers(context.Background(), models.EventSendMessage, ev.Message, ev.Room)
	fx.wait()

	assert.Equal(t, 1, fx.fetcher.callCount(), "only the enabled, event-matching trigger executes")
}

func TestExecuteTriggersRunsEveryURL(t *testing.T) {
	fx := newEngineFixture(t)

	record := newTestIntegration("multi", models.EventSendMessage, "#general")
	record.Username = "webhook-bot"
	record.URLs = []string{"https://example.org/a", "https://example.org/b"}
	fx.manager.AddIntegration(record)

	fx.fetcher.responses = []*transport.Response{{StatusCode: 200, Body: "ok"}}

	ev := fx.sendMessageEvent("hello")
	fx.manager.ExecuteTriggers(context.Background(), models.EventSendMessage, ev.Message, ev.Room)
	fx.wait()

	require.Equal(t, 2, fx.fetcher.callCount())
	urls := []string{fx.fetcher.requests[0].URL, fx.fetcher.requests[1].URL}
	assert.ElementsMatch(t, []string{"https://example.org/a", "https://example.org/b"}, urls)
}

func TestExecuteTriggersChannelByNamePayload(t *testing.T) {
	fx := newEngineFixture(t)

	fx.directory.AddRoom(&models.Room{ID: "general-id", Name: "general2", Type: models.RoomTypePublic})
	room := &models.Room{ID: "general-id", Name: "general2", Type: models.RoomTypePublic}

	record := newTestIntegration("by-name", models.EventSendMessage, "#general2")
	record.Username = "webhook-bot"
	fx.manager.AddIntegration(record)

	fx.fetcher.responses = []*transport.Response{{StatusCode: 200, Body: "ok"}}

	message := &models.Message{
		ID:        "msg1",
		RoomID:    room.ID,
		Text:      "hello",
		Timestamp: time.Now(),
		Author:    models.MessageAuthor{ID: "u1", Username: "alice"},
	}
	fx.manager.ExecuteTriggers(context.Background(), models.EventSendMessage, message, room)
	fx.wait()

	require.Equal(t, 1, fx.fetcher.callCount())
	body := string(fx.fetcher.requests[0].Body)
	assert.Contains(t, body, `"channel_id":"general-id"`)
	assert.Contains(t, body, `"channel_name":"general2"`)
	assert.Contains(t, body, `"text":"hello"`)
}

func TestExecuteTriggersUnknownEventIsNoOp(t *testing.T) {
	fx := newEngineFixture(t)

	record := newTestIntegration("int1", models.EventSendMessage, "#general")
	fx.manager.AddIntegration(record)

	fx.manager.ExecuteTriggers(context.Background(), models.EventKind("mystery"), nil, nil)
	fx.wait()

	assert.Zero(t, fx.fetcher.callCount())
	assert.Empty(t, fx.history.steps())
}

func TestExecuteTriggersChannelScoping(t *testing.T) {
	fx := newEngineFixture(t)

	otherChannel := newTestIntegration("other", models.EventSendMessage, "#random")
	fx.manager.AddIntegration(otherChannel)

	ev := fx.sendMessageEvent("hello")
	fx.manager.ExecuteTriggers(context.Background(), models.EventSendMessage, ev.Message, ev.Room)
	fx.wait()

	assert.Zero(t, fx.fetcher.callCount(), "triggers bound to other channels must not fire")
}
