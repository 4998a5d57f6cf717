// File: internal/trigger/dispatcher.go
package trigger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/metrics"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Dispatcher resolves the acting user and target room for a message draft
// and posts it through the messaging subsystem
type Dispatcher struct {
	users     UserStore
	rooms     RoomStore
	messenger Messenger
	metrics   *metrics.Manager
	logger    *logrus.Entry
}

// NewDispatcher creates a new message dispatcher
func NewDispatcher(users UserStore, rooms RoomStore, messenger Messenger, metricsManager *metrics.Manager) *Dispatcher {
	return &Dispatcher{
		users:     users,
		rooms:     rooms,
		messenger: messenger,
		metrics:   metricsManager,
		logger:    utils.ComponentLogger("trigger-dispatcher"),
	}
}

// Send posts the draft on behalf of the trigger. A nil result with nil error
// means the message could not be sent because no user or room resolved;
// callers treat that as failure without an error surfacing further.
func (d *Dispatcher) Send(ctx context.Context, trigger *models.Integration, nameOrID string, fallback *models.Room, draft *models.MessageDraft, data *models.Payload) (*models.PostedMessage, error) {
	var user *models.User

	// Try to find the user being impersonated first
	if trigger.ImpersonateUser && data != nil && data.UserName != "" {
		user, _ = d.users.FindUserByUsernameIgnoringCase(ctx, data.UserName)
	}

	// Fall back to the integration's configured username, which is required
	// at all times
	if user == nil {
		user, _ = d.users.FindUserByUsernameIgnoringCase(ctx, trigger.Username)
	}

	if user == nil {
		d.logger.Errorf("The user %q doesn't exist, so we can't send the message", trigger.Username)
		d.metrics.RecordMessageDispatched("no-user")
		return nil, nil
	}

	var room *models.Room
	if nameOrID != "" || trigger.TargetRoom != "" || draft.Channel != "" {
		lookup := nameOrID
		if lookup == "" {
			lookup = draft.Channel
		}
		if lookup == "" {
			lookup = trigger.TargetRoom
		}
		room, _ = d.rooms.GetRoomByNameOrIDWithOptionToJoin(ctx, user, lookup)
		if room == nil {
			room = fallback
		}
	} else {
		room = fallback
	}

	if room == nil {
		d.logger.Warnf("The integration %q doesn't have a room configured nor did it provide a room to send the message to", trigger.Name)
		d.metrics.RecordMessageDispatched("no-room")
		return nil, nil
	}

	d.logger.Debugf("Found a room for %s which is %s with a type of %s", trigger.Name, room.Name, room.Type)

	// Stamp the bot-origin marker referencing the trigger
	draft.Bot = map[string]interface{}{"i": trigger.ID}

	channelDisplay := "#" + room.ID
	if room.Type == models.RoomTypeDirect {
		channelDisplay = "@" + room.ID
	}

	defaults := &models.MessageDefaults{
		Alias:   trigger.Alias,
		Avatar:  trigger.Avatar,
		Emoji:   trigger.Emoji,
		Channel: channelDisplay,
	}

	posted, err := d.messenger.PostMessage(ctx, user, draft, defaults)
	if err != nil {
		d.logger.WithError(err).Errorf("Failed to post the message for the integration %q", trigger.Name)
		d.metrics.RecordMessageDispatched("error")
		return nil, err
	}

	d.metrics.RecordMessageDispatched("sent")
	return posted, nil
}
