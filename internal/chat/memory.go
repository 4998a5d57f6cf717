// File: internal/chat/memory.go
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Directory is an in-memory chat backend. It stands in for the workspace's
// user, room and message services so the trigger engine can run against
// injected fixtures or API-seeded data.
type Directory struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	rooms    map[string]*models.Room
	messages map[string]*models.Message
	posted   []*models.PostedMessage
	logger   *logrus.Entry
}

// NewDirectory creates an empty chat directory
func NewDirectory() *Directory {
	return &Directory{
		users:    make(map[string]*models.User),
		rooms:    make(map[string]*models.Room),
		messages: make(map[string]*models.Message),
		logger:   utils.ComponentLogger("chat-directory"),
	}
}

// AddUser registers a user
func (d *Directory) AddUser(user *models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

// AddRoom registers a room
func (d *Directory) AddRoom(room *models.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[room.ID] = room
}

// AddMessage registers a message
func (d *Directory) AddMessage(message *models.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages[message.ID] = message
}

// FindUserByID looks a user up by id
func (d *Directory) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[id], nil
}

// FindUserByUsernameIgnoringCase looks a user up by username, case-insensitive
func (d *Directory) FindUserByUsernameIgnoringCase(ctx context.Context, username string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, user := range d.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return nil, nil
}

// FindRoomByID looks a room up by id
func (d *Directory) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms[id], nil
}

// FindMessageByID looks a message up by id
func (d *Directory) FindMessageByID(ctx context.Context, id string) (*models.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messages[id], nil
}

// GetRoomByNameOrIDWithOptionToJoin resolves a room by id or name, stripping
// any leading # or @ marker, and records the user as a member. An identifier
// that resolves to nothing yields (nil, nil).
func (d *Directory) GetRoomByNameOrIDWithOptionToJoin(ctx context.Context, user *models.User, nameOrID string) (*models.Room, error) {
	lookup := strings.TrimPrefix(strings.TrimPrefix(nameOrID, "#"), "@")
	if lookup == "" {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.rooms[lookup]
	if room == nil {
		for _, candidate := range d.rooms {
			if strings.EqualFold(candidate.Name, lookup) {
				room = candidate
				break
			}
		}
	}
	if room == nil {
		return nil, nil
	}

	if user != nil && !contains(room.UserIDs, user.ID) {
		room.UserIDs = append(room.UserIDs, user.ID)
		room.Usernames = append(room.Usernames, user.Username)
		d.logger.Debugf("User %s joined room %s", user.Username, room.ID)
	}

	return room, nil
}

// PostMessage stores the draft as a message from the given user, applying the
// defaults for any presentation field the draft leaves empty
func (d *Directory) PostMessage(ctx context.Context, user *models.User, draft *models.MessageDraft, defaults *models.MessageDefaults) (*models.PostedMessage, error) {
	if draft.Alias == "" && defaults != nil {
		draft.Alias = defaults.Alias
	}
	if draft.Avatar == "" && defaults != nil {
		draft.Avatar = defaults.Avatar
	}
	if draft.Emoji == "" && defaults != nil {
		draft.Emoji = defaults.Emoji
	}

	channel := draft.Channel
	if channel == "" && defaults != nil {
		channel = defaults.Channel
	}
	if channel == "" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "Cannot post a message without a channel")
	}
	roomID := strings.TrimPrefix(strings.TrimPrefix(channel, "#"), "@")

	message := &models.Message{
		ID:          utils.GenerateID(),
		RoomID:      roomID,
		Text:        draft.Text,
		Timestamp:   time.Now(),
		Alias:       draft.Alias,
		Bot:         draft.Bot,
		Attachments: draft.Attachments,
	}
	if user != nil {
		message.Author = models.MessageAuthor{ID: user.ID, Username: user.Username}
	}

	d.mu.Lock()
	d.messages[message.ID] = message
	posted := &models.PostedMessage{Channel: channel, Message: message}
	d.posted = append(d.posted, posted)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"room":   roomID,
		"author": message.Author.Username,
	}).Debug("Message posted")

	return posted, nil
}

// Posted returns a snapshot of every message posted through this directory
func (d *Directory) Posted() []*models.PostedMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*models.PostedMessage, len(d.posted))
	copy(out, d.posted)
	return out
}

// NotifyIntegrationDisabled logs the state change broadcast
func (d *Directory) NotifyIntegrationDisabled(id string) {
	d.logger.WithField("integration_id", id).Info("Integration disabled notification")
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
