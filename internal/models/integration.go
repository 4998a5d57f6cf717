// File: internal/models/integration.go
package models

import (
	"time"
)

// IntegrationTypeOutgoing is the integration type handled by this engine
const IntegrationTypeOutgoing = "webhook-outgoing"

// Registry channel-key sentinels
const (
	ChannelKeyAny        = "__any"
	ChannelKeyAllPublic  = "all_public_channels"
	ChannelKeyAllDirect  = "all_direct_messages"
	ChannelKeyAllPrivate = "all_private_groups"
)

// RetryStrategy selects how retry delays grow between attempts
type RetryStrategy string

const (
	// RetryPowersOfTen waits 10^(n+2) ms: 0.1s, 1s, 10s, 1m40s, ...
	RetryPowersOfTen RetryStrategy = "powers-of-ten"
	// RetryPowersOfTwo waits 2^(n+1) s: 2s, 4s, 8s, ...
	RetryPowersOfTwo RetryStrategy = "powers-of-two"
	// RetryIncrementsOfTwo waits (n+1)*2 s: 2s, 4s, 6s, ...
	RetryIncrementsOfTwo RetryStrategy = "increments-of-two"
)

// Integration is the configuration entity for one outgoing webhook. It is
// created and updated by the admin workflow; the engine only reads it, apart
// from the disable-on-410 mutation.
type Integration struct {
	ID                  string        `json:"id" db:"id"`
	Name                string        `json:"name" db:"name"`
	Type                string        `json:"type" db:"type"`
	Event               EventKind     `json:"event" db:"event"`
	Enabled             bool          `json:"enabled" db:"enabled"`
	Channel             []string      `json:"channel,omitempty" db:"channel"`
	URLs                []string      `json:"urls" db:"urls"`
	Username            string        `json:"username" db:"username"`
	ImpersonateUser     bool          `json:"impersonate_user" db:"impersonate_user"`
	TargetRoom          string        `json:"target_room,omitempty" db:"target_room"`
	TriggerWords        []string      `json:"trigger_words,omitempty" db:"trigger_words"`
	TriggerWordAnywhere bool          `json:"trigger_word_anywhere" db:"trigger_word_anywhere"`
	RunOnEdits          bool          `json:"run_on_edits" db:"run_on_edits"`
	RetryFailedCalls    bool          `json:"retry_failed_calls" db:"retry_failed_calls"`
	RetryCount          int           `json:"retry_count" db:"retry_count"`
	RetryDelay          RetryStrategy `json:"retry_delay" db:"retry_delay"`
	Alias               string        `json:"alias,omitempty" db:"alias"`
	Avatar              string        `json:"avatar,omitempty" db:"avatar"`
	Emoji               string        `json:"emoji,omitempty" db:"emoji"`
	Token               string        `json:"token" db:"token"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}
