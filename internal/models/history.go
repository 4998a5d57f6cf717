// File: internal/models/history.go
package models

import (
	"time"
)

// History step identifiers. Each terminal state of an execution attempt
// records exactly one of the finishing steps.
const (
	HistoryStepStart                     = "start-execute-trigger-url"
	HistoryStepTriggerDisabled           = "trigger-disabled"
	HistoryStepTriggerWordNotFound       = "trigger-word-not-found"
	HistoryStepEditsNotAllowed           = "edits-not-allowed"
	HistoryStepCouldNotMapEventArgs      = "could-not-map-event-args"
	HistoryStepMappedArgsToData          = "mapped-args-to-data"
	HistoryStepPrepareFailed             = "prepare-outgoing-request-failed"
	HistoryStepAfterPrepare              = "after-maybe-ran-prepare"
	HistoryStepPrepareNoOpts             = "after-prepare-no-opts"
	HistoryStepPrepareSendMessageFailed  = "after-prepare-send-message-failed"
	HistoryStepPrepareSentMessage        = "after-prepare-send-message"
	HistoryStepNoURLOrMethod             = "after-prepare-no-url_or_method"
	HistoryStepInvalidAuth               = "invalid-auth-option"
	HistoryStepPreHTTPCall               = "pre-http-call"
	HistoryStepAfterHTTPCall             = "after-http-call"
	HistoryStepProcessFailed             = "process-outgoing-response-failed"
	HistoryStepProcessSendMessageFailed  = "after-process-send-message-failed"
	HistoryStepProcessSentMessage        = "after-process-send-message"
	HistoryStepProcessFalseResult        = "after-process-false-result"
	HistoryStepHTTPStatus410             = "after-process-http-status-410"
	HistoryStepHTTPStatus500             = "after-process-http-status-500"
	HistoryStepTooManyRetries            = "too-many-retries"
	HistoryStepNotConfiguredToRetry      = "failed-and-not-configured-to-retry"
	HistoryStepInvalidRetryDelay         = "failed-and-retry-delay-is-invalid"
	HistoryStepResponseSentMessage       = "url-response-sent-message"
	HistoryStepResponseSendMessageFailed = "after-http-call-send-message-failed"
)

// HistoryStepGoingToRetry is the prefix of retry-scheduling steps; the
// attempt number of the scheduled retry is appended ("going-to-retry-1").
const HistoryStepGoingToRetry = "going-to-retry"

// HistoryEntry is one append-only audit record describing the lifecycle of
// a single execution attempt. The engine only writes these; the admin API
// reads them back for inspection and replay.
type HistoryEntry struct {
	ID              string    `json:"id" db:"id"`
	IntegrationID   string    `json:"integration_id" db:"integration_id"`
	IntegrationName string    `json:"integration_name" db:"integration_name"`
	Event           EventKind `json:"event" db:"event"`
	Step            string    `json:"step" db:"step"`
	URL             string    `json:"url,omitempty" db:"url"`
	TriggerWord     string    `json:"trigger_word,omitempty" db:"trigger_word"`
	Data            *Payload  `json:"data,omitempty" db:"data"`
	HTTPCallData    string    `json:"http_call_data,omitempty" db:"http_call_data"`
	HTTPResult      string    `json:"http_result,omitempty" db:"http_result"`
	HTTPError       string    `json:"http_error,omitempty" db:"http_error"`
	ErrorStack      string    `json:"error_stack,omitempty" db:"error_stack"`
	Error           bool      `json:"error" db:"error"`
	Finished        bool      `json:"finished" db:"finished"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
