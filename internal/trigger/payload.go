// File: internal/trigger/payload.go
package trigger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
)

// mapEventToPayload fills the payload from the normalized event. It returns
// false without touching the payload when the fields the kind requires are
// absent; callers must treat that as "abort, do not send".
//
// Embedded user and owner objects are stripped of their services credential
// sub-object before inclusion. This is a data-loss-prevention requirement,
// not an optimization.
func mapEventToPayload(logger *logrus.Entry, data *models.Payload, ev *models.NormalizedEvent, siteURL string) bool {
	switch ev.Kind {
	case models.EventSendMessage:
		if ev.Room == nil || ev.Message == nil {
			logger.Warnf("The integration %s was called but the room or message was not defined", ev.Kind)
			return false
		}
		mapMessageFields(data, ev.Room, ev.Message)
		data.SiteURL = siteURL
		if ev.Message.EditedAt != nil {
			data.IsEdited = true
		}
		if ev.Message.ThreadID != "" {
			data.ThreadID = ev.Message.ThreadID
		}

	case models.EventFileUploaded:
		if ev.Room == nil || ev.Message == nil {
			logger.Warnf("The integration %s was called but the room or message was not defined", ev.Kind)
			return false
		}
		mapMessageFields(data, ev.Room, ev.Message)
		data.User = ev.User.WithoutServices()
		data.Room = ev.Room
		data.Message = ev.Message

	case models.EventRoomCreated:
		if ev.Room == nil || ev.Owner == nil {
			logger.Warnf("The integration %s was called but the room or owner was not defined", ev.Kind)
			return false
		}
		data.ChannelID = ev.Room.ID
		data.ChannelName = ev.Room.Name
		ts := ev.Room.CreatedAt
		data.Timestamp = &ts
		data.UserID = ev.Owner.ID
		data.UserName = ev.Owner.Username
		data.Owner = ev.Owner.WithoutServices()
		data.Room = ev.Room

	case models.EventRoomArchived, models.EventRoomJoined, models.EventRoomLeft:
		if ev.Room == nil || ev.User == nil {
			logger.Warnf("The integration %s was called but the room or user was not defined", ev.Kind)
			return false
		}
		now := time.Now()
		data.Timestamp = &now
		data.ChannelID = ev.Room.ID
		data.ChannelName = ev.Room.Name
		data.UserID = ev.User.ID
		data.UserName = ev.User.Username
		data.User = ev.User.WithoutServices()
		data.Room = ev.Room
		if ev.User.IsBot() {
			data.Bot = true
		}

	case models.EventUserCreated:
		if ev.User == nil {
			logger.Warnf("The integration %s was called but the user was not defined", ev.Kind)
			return false
		}
		ts := ev.User.CreatedAt
		data.Timestamp = &ts
		data.UserID = ev.User.ID
		data.UserName = ev.User.Username
		data.User = ev.User.WithoutServices()
		if ev.User.IsBot() {
			data.Bot = true
		}

	default:
		return false
	}

	return true
}

// mapMessageFields fills the channel and message fields shared by the
// sendMessage and fileUploaded kinds
func mapMessageFields(data *models.Payload, room *models.Room, message *models.Message) {
	data.ChannelID = room.ID
	data.ChannelName = room.Name
	data.MessageID = message.ID
	ts := message.Timestamp
	data.Timestamp = &ts
	data.UserID = message.Author.ID
	data.UserName = message.Author.Username
	data.Text = message.Text

	if message.Alias != "" {
		data.Alias = message.Alias
	}
	if message.Bot != nil {
		// Truthy coercion kept from the existing behavior: any bot
		// descriptor marks the payload as bot-originated.
		data.Bot = true
	}
}
