// File: internal/models/chat.go
package models

import (
	"time"
)

// RoomType identifies the kind of a chat room
type RoomType string

const (
	RoomTypeDirect  RoomType = "d"
	RoomTypePublic  RoomType = "c"
	RoomTypePrivate RoomType = "p"
)

// UserTypeBot marks accounts operated by bots
const UserTypeBot = "bot"

// User represents a chat user as seen by the trigger engine
type User struct {
	ID        string                 `json:"_id"`
	Username  string                 `json:"username"`
	Name      string                 `json:"name,omitempty"`
	Type      string                 `json:"type,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// WithoutServices returns a copy of the user with the authentication
// credential sub-object removed. Embedded user objects must always pass
// through this before being placed in an outgoing payload.
func (u *User) WithoutServices() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Services = nil
	return &clean
}

// IsBot reports whether the user is a bot account
func (u *User) IsBot() bool {
	return u != nil && u.Type == UserTypeBot
}

// Room represents a chat room
type Room struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name,omitempty"`
	Type      RoomType  `json:"t"`
	CreatedAt time.Time `json:"ts"`
	UserIDs   []string  `json:"uids,omitempty"`
	Usernames []string  `json:"usernames,omitempty"`
}

// MessageAuthor is the minimal author reference carried by a message
type MessageAuthor struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Message represents a chat message
type Message struct {
	ID          string                   `json:"_id"`
	RoomID      string                   `json:"rid"`
	Text        string                   `json:"msg"`
	Timestamp   time.Time                `json:"ts"`
	Author      MessageAuthor            `json:"u"`
	Alias       string                   `json:"alias,omitempty"`
	Bot         map[string]interface{}   `json:"bot,omitempty"`
	EditedAt    *time.Time               `json:"editedAt,omitempty"`
	ThreadID    string                   `json:"tmid,omitempty"`
	Attachments []map[string]interface{} `json:"attachments,omitempty"`
}

// MessageDraft is a message waiting to be posted on behalf of an integration
type MessageDraft struct {
	Channel     string                   `json:"channel,omitempty"`
	Text        string                   `json:"text,omitempty"`
	Alias       string                   `json:"alias,omitempty"`
	Avatar      string                   `json:"avatar,omitempty"`
	Emoji       string                   `json:"emoji,omitempty"`
	Attachments []map[string]interface{} `json:"attachments,omitempty"`
	Bot         map[string]interface{}   `json:"bot,omitempty"`
}

// MessageDefaults carries the fallback presentation fields applied to a
// draft before posting
type MessageDefaults struct {
	Alias   string `json:"alias"`
	Avatar  string `json:"avatar"`
	Emoji   string `json:"emoji"`
	Channel string `json:"channel"`
}

// PostedMessage is the result of posting a draft through the messaging
// subsystem
type PostedMessage struct {
	Channel string   `json:"channel"`
	Message *Message `json:"message"`
}
