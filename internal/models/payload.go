// File: internal/models/payload.go
package models

import (
	"time"
)

// Payload is the outgoing data payload posted to a webhook URL. It is
// rebuilt fresh for every execution attempt so retries observe current
// settings, and never mutated in place across attempts.
type Payload struct {
	Token       string     `json:"token"`
	Bot         bool       `json:"bot"`
	TriggerWord string     `json:"trigger_word,omitempty"`
	ChannelID   string     `json:"channel_id,omitempty"`
	ChannelName string     `json:"channel_name,omitempty"`
	MessageID   string     `json:"message_id,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	UserName    string     `json:"user_name,omitempty"`
	Text        string     `json:"text,omitempty"`
	SiteURL     string     `json:"siteUrl,omitempty"`
	Alias       string     `json:"alias,omitempty"`
	IsEdited    bool       `json:"isEdited,omitempty"`
	ThreadID    string     `json:"tmid,omitempty"`
	User        *User      `json:"user,omitempty"`
	Room        *Room      `json:"room,omitempty"`
	Message     *Message   `json:"message,omitempty"`
	Owner       *User      `json:"owner,omitempty"`
}
