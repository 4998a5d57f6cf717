// File: internal/store/scan.go
package store

import (
	"database/sql"
	"encoding/json"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
)

const integrationSelectColumns = `SELECT
	id, name, type, event, enabled, channel, urls, username,
	impersonate_user, target_room, trigger_words, trigger_word_anywhere,
	run_on_edits, retry_failed_calls, retry_count, retry_delay,
	alias, avatar, emoji, token, created_at, updated_at`

const historySelectColumns = `SELECT
	id, integration_id, integration_name, event, step, url, trigger_word,
	data, http_call_data, http_result, http_error, error_stack, error,
	finished, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func marshalStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	encoded, _ := json.Marshal(values)
	return string(encoded)
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func marshalPayload(data *models.Payload) interface{} {
	if data == nil {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func unmarshalPayload(raw sql.NullString) *models.Payload {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var data models.Payload
	if err := json.Unmarshal([]byte(raw.String), &data); err != nil {
		return nil
	}
	return &data
}

func scanIntegration(row rowScanner) (*models.Integration, error) {
	var record models.Integration
	var event, retryDelay, channel, urls, triggerWords string

	err := row.Scan(
		&record.ID, &record.Name, &record.Type, &event, &record.Enabled,
		&channel, &urls, &record.Username, &record.ImpersonateUser,
		&record.TargetRoom, &triggerWords, &record.TriggerWordAnywhere,
		&record.RunOnEdits, &record.RetryFailedCalls, &record.RetryCount,
		&retryDelay, &record.Alias, &record.Avatar, &record.Emoji,
		&record.Token, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Event = models.EventKind(event)
	record.RetryDelay = models.RetryStrategy(retryDelay)
	record.Channel = unmarshalStrings(channel)
	record.URLs = unmarshalStrings(urls)
	record.TriggerWords = unmarshalStrings(triggerWords)

	return &record, nil
}

func scanHistory(row rowScanner) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var event string
	var data sql.NullString

	err := row.Scan(
		&entry.ID, &entry.IntegrationID, &entry.IntegrationName, &event,
		&entry.Step, &entry.URL, &entry.TriggerWord, &data,
		&entry.HTTPCallData, &entry.HTTPResult, &entry.HTTPError,
		&entry.ErrorStack, &entry.Error, &entry.Finished,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Event = models.EventKind(event)
	entry.Data = unmarshalPayload(data)

	return &entry, nil
}
