// File: internal/trigger/executor.go
package trigger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// jsonContentTypes is the whitelist of response content types the executor
// attempts to parse as JSON
var jsonContentTypes = []string{
	"application/json",
	"text/javascript",
	"application/javascript",
	"application/x-javascript",
}

// responseMessage is the shape of a webhook JSON reply that carries a
// message to post back into the room
type responseMessage struct {
	Text        string                   `json:"text"`
	Attachments []map[string]interface{} `json:"attachments"`
	Channel     string                   `json:"channel"`
	Alias       string                   `json:"alias"`
	Avatar      string                   `json:"avatar"`
	Emoji       string                   `json:"emoji"`
}

// RetryDelayFor returns the wait before the retry following zero-based
// attempt `tries` under the given strategy. An unrecognized strategy is a
// configuration error.
func RetryDelayFor(strategy models.RetryStrategy, tries int) (time.Duration, error) {
	switch strategy {
	case models.RetryPowersOfTen:
		// 0.1s, 1s, 10s, 1m40s, 16m40s, ...
		return time.Duration(math.Pow10(tries+2)) * time.Millisecond, nil
	case models.RetryPowersOfTwo:
		// 2s, 4s, 8s, ...
		return time.Duration(1<<uint(tries+1)) * time.Second, nil
	case models.RetryIncrementsOfTwo:
		// 2s, 4s, 6s, ...
		return time.Duration((tries+1)*2) * time.Second, nil
	default:
		return 0, utils.NewAppError(utils.ErrCodeConfiguration, "The integration's retry delay setting is invalid", string(strategy))
	}
}

// matchTriggerWord scans the trigger words in declaration order and returns
// the first one matching the message text. With the anywhere flag the word
// may appear at any offset; without it only a prefix match counts.
func matchTriggerWord(trigger *models.Integration, message *models.Message) (string, bool) {
	if len(trigger.TriggerWords) == 0 {
		return "", true
	}
	if message == nil {
		return "", false
	}
	for _, word := range trigger.TriggerWords {
		if trigger.TriggerWordAnywhere && strings.Contains(message.Text, word) {
			return word, true
		}
		if !trigger.TriggerWordAnywhere && strings.HasPrefix(message.Text, word) {
			return word, true
		}
	}
	return "", false
}

// recordHistory writes one audit step, logging rather than failing the
// attempt when the sink itself errors
func (m *Manager) recordHistory(ctx context.Context, update *HistoryUpdate) string {
	id, err := m.deps.History.Record(ctx, update)
	if err != nil {
		m.logger.WithError(err).Warnf("Failed to record history step %q", update.Step)
		return update.HistoryID
	}
	return id
}

// ExecuteTriggerURL runs a single attempt of one trigger against one URL.
// The HTTP call and everything after it happen asynchronously; the caller
// is not blocked on the remote server. Retries re-enter this method with an
// incremented attempt counter via the scheduler.
func (m *Manager) ExecuteTriggerURL(ctx context.Context, url string, trigger *models.Integration, ev *models.NormalizedEvent, tries int) error {
	// Enablement is re-checked on every attempt; it is the only
	// cancellation mechanism for scheduled retries.
	if !m.registry.IsEnabled(trigger.ID) {
		m.logger.Warnf("The trigger %q is no longer enabled, stopping execution of it at try %d", trigger.Name, tries)
		m.recordHistory(ctx, &HistoryUpdate{
			Step: models.HistoryStepTriggerDisabled, Integration: trigger, Event: ev.Kind, URL: url, Finished: true,
		})
		return nil
	}

	m.logger.Debugf("Starting to execute trigger: %s (%s)", trigger.Name, trigger.ID)

	var word string
	if ev.Kind.Capabilities().UsesTriggerWords {
		var matched bool
		word, matched = matchTriggerWord(trigger, ev.Message)
		if !matched {
			m.logger.Debugf("The trigger word which %q was expecting could not be found, not executing", trigger.Name)
			m.recordHistory(ctx, &HistoryUpdate{
				Step: models.HistoryStepTriggerWordNotFound, Integration: trigger, Event: ev.Kind, URL: url, Finished: true,
			})
			return nil
		}
	}

	if ev.Message != nil && ev.Message.EditedAt != nil && !trigger.RunOnEdits {
		m.logger.Debugf("The trigger %q's run on edits is disabled and the message was edited", trigger.Name)
		m.recordHistory(ctx, &HistoryUpdate{
			Step: models.HistoryStepEditsNotAllowed, Integration: trigger, Event: ev.Kind, URL: url, Finished: true,
		})
		return nil
	}

	historyID := m.recordHistory(ctx, &HistoryUpdate{
		Step: models.HistoryStepStart, Integration: trigger, Event: ev.Kind, URL: url,
	})

	// The payload is rebuilt on every attempt so retries reflect current
	// settings
	data := &models.Payload{Token: trigger.Token}
	if word != "" {
		data.TriggerWord = word
	}

	if !mapEventToPayload(m.logger, data, ev, m.deps.Settings.SiteURL()) {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepCouldNotMapEventArgs, Error: true, Finished: true,
		})
		return nil
	}

	m.recordHistory(ctx, &HistoryUpdate{
		HistoryID: historyID, Step: models.HistoryStepMappedArgsToData, Data: data, TriggerWord: word,
	})

	m.logger.Infof("Will be executing the integration %q to the url: %s", trigger.Name, url)

	opts, err := m.deps.Script.PrepareOutgoingRequest(ctx, &PrepareRequest{
		Integration: trigger,
		Data:        data,
		URL:         url,
		HistoryID:   historyID,
	})
	if err != nil {
		wrapped := wrapScriptError(err)
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepPrepareFailed, Error: true, Finished: true,
			ErrorStack: wrapped.Error(),
		})
		return wrapped
	}

	m.recordHistory(ctx, &HistoryUpdate{HistoryID: historyID, Step: models.HistoryStepAfterPrepare})

	if opts == nil {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepPrepareNoOpts, Finished: true,
		})
		return nil
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string)
	}

	if opts.Message != nil {
		sent, err := m.dispatcher.Send(ctx, trigger, "", ev.Room, opts.Message, data)
		if err != nil || sent == nil {
			m.recordHistory(ctx, &HistoryUpdate{
				HistoryID: historyID, Step: models.HistoryStepPrepareSendMessageFailed, Finished: true,
			})
			return nil
		}
		m.recordHistory(ctx, &HistoryUpdate{HistoryID: historyID, Step: models.HistoryStepPrepareSentMessage})
	}

	if opts.URL == "" || opts.Method == "" {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepNoURLOrMethod, Finished: true,
		})
		return nil
	}

	if opts.Auth != "" {
		if !strings.Contains(opts.Auth, ":") {
			m.recordHistory(ctx, &HistoryUpdate{
				HistoryID: historyID, Step: models.HistoryStepInvalidAuth, Error: true, Finished: true,
			})
			return utils.NewAppError(utils.ErrCodeConfiguration, `auth option should be of the form "username:password"`)
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(opts.Auth))
		opts.Headers["Authorization"] = "Basic " + encoded
	}

	var body []byte
	if opts.Data != nil {
		body, err = json.Marshal(opts.Data)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeInternal, "Failed to marshal the outgoing payload", err.Error())
		}
		opts.Headers["Content-Type"] = "application/json"
	}

	m.recordHistory(ctx, &HistoryUpdate{
		HistoryID: historyID, Step: models.HistoryStepPreHTTPCall, URL: opts.URL, HTTPCallData: string(body),
	})

	// The call and its continuation run out-of-band; the caller of
	// ExecuteTriggerURL returns immediately.
	m.inflight.Add(1)
	go m.performHTTPCall(url, trigger, ev, tries, historyID, data, opts, body)

	return nil
}

// performHTTPCall executes the prepared HTTP request and hands the result to
// the response handler. A transport-level failure is terminal for the
// attempt and is not retried by this layer.
func (m *Manager) performHTTPCall(url string, trigger *models.Integration, ev *models.NormalizedEvent, tries int, historyID string, data *models.Payload, opts *OutgoingRequest, body []byte) {
	defer m.inflight.Done()

	ctx := context.Background()
	start := time.Now()

	resp, err := m.deps.Fetcher.Do(ctx, &transport.Request{
		URL:     opts.URL,
		Method:  opts.Method,
		Headers: opts.Headers,
		Timeout: opts.Timeout,
		Body:    body,
	}, m.deps.Settings.AllowInvalidCerts())

	if err != nil {
		m.logger.WithError(err).Errorf("HTTP call for the integration %q to %s failed", trigger.Name, url)
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepAfterHTTPCall, HTTPError: err.Error(), Error: true, Finished: true,
		})
		m.deps.Metrics.RecordTriggerExecution(string(ev.Kind), "transport-error", time.Since(start))
		return
	}

	m.deps.Metrics.RecordWebhookCall(resp.StatusCode, time.Since(start))
	m.handleResponse(ctx, url, trigger, ev, tries, historyID, data, opts, resp)
}

// handleResponse classifies the webhook response: script process hook first,
// then the default HTTP-status-driven handling with its retry policy.
func (m *Manager) handleResponse(ctx context.Context, url string, trigger *models.Integration, ev *models.NormalizedEvent, tries int, historyID string, data *models.Payload, opts *OutgoingRequest, resp *transport.Response) {
	content := resp.Body
	if content == "" {
		m.logger.Warnf("Result for the integration %s to %s is empty", trigger.Name, url)
	} else {
		m.logger.Infof("Status code for the integration %s to %s is %d", trigger.Name, url, resp.StatusCode)
	}

	parsed := parseResponseContent(resp, content)

	m.recordHistory(ctx, &HistoryUpdate{
		HistoryID: historyID, Step: models.HistoryStepAfterHTTPCall, HTTPResult: content,
	})

	result, err := m.deps.Script.ProcessOutgoingResponse(ctx, &ProcessRequest{
		Integration: trigger,
		Request:     opts,
		Response:    resp,
		Content:     content,
		HistoryID:   historyID,
	})
	if err != nil {
		wrapped := wrapScriptError(err)
		m.logger.WithError(wrapped).Errorf("Processing the response for the integration %q failed", trigger.Name)
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepProcessFailed, Error: true, Finished: true,
			ErrorStack: wrapped.Error(),
		})
		return
	}

	if result != nil {
		if result.Message != nil {
			sent, err := m.dispatcher.Send(ctx, trigger, "", ev.Room, result.Message, data)
			if err != nil || sent == nil {
				m.recordHistory(ctx, &HistoryUpdate{
					HistoryID: historyID, Step: models.HistoryStepProcessSendMessageFailed, Finished: true,
				})
				return
			}
			m.recordHistory(ctx, &HistoryUpdate{
				HistoryID: historyID, Step: models.HistoryStepProcessSentMessage, Finished: true,
			})
			return
		}
		if result.Discard {
			m.recordHistory(ctx, &HistoryUpdate{
				HistoryID: historyID, Step: models.HistoryStepProcessFalseResult, Finished: true,
			})
			return
		}
	}

	// Default status handling: only reached when the process hook did not
	// short-circuit
	if content == "" || !m.isSuccessStatus(resp.StatusCode) {
		if content != "" {
			m.logger.Errorf("Error for the integration %q to %s: %s", trigger.Name, url, content)

			if resp.StatusCode == 410 {
				m.recordHistory(ctx, &HistoryUpdate{
					HistoryID: historyID, Step: models.HistoryStepHTTPStatus410, Error: true, Finished: true,
				})
				m.logger.Errorf("Disabling the integration %q because the status code was 410 (Gone)", trigger.Name)
				m.disableTrigger(ctx, trigger)
				return
			}

			if resp.StatusCode == 500 {
				m.recordHistory(ctx, &HistoryUpdate{
					HistoryID: historyID, Step: models.HistoryStepHTTPStatus500, Error: true, Finished: true,
				})
				m.logger.Errorf("Error \"500\" for the integration %q to %s", trigger.Name, url)
				return
			}
		}

		m.maybeRetry(ctx, url, trigger, ev, tries, historyID)
		return
	}

	// Success: a JSON reply carrying text or attachments is posted back as
	// a new message
	if parsed != nil && (parsed.Text != "" || len(parsed.Attachments) > 0) {
		draft := &models.MessageDraft{
			Channel:     parsed.Channel,
			Text:        parsed.Text,
			Attachments: parsed.Attachments,
			Alias:       parsed.Alias,
			Avatar:      parsed.Avatar,
			Emoji:       parsed.Emoji,
		}
		sent, err := m.dispatcher.Send(ctx, trigger, "", ev.Room, draft, data)
		if err != nil || sent == nil {
			m.recordHistory(ctx, &HistoryUpdate{
				HistoryID: historyID, Step: models.HistoryStepResponseSendMessageFailed, Finished: true,
			})
			return
		}
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepResponseSentMessage, Finished: true,
		})
		return
	}

	m.recordHistory(ctx, &HistoryUpdate{HistoryID: historyID, Step: models.HistoryStepAfterHTTPCall, Finished: true})
}

// maybeRetry schedules a follow-up attempt when the trigger's retry policy
// allows it
func (m *Manager) maybeRetry(ctx context.Context, url string, trigger *models.Integration, ev *models.NormalizedEvent, tries int, historyID string) {
	if !trigger.RetryFailedCalls || trigger.RetryCount <= 0 {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepNotConfiguredToRetry, Error: true, Finished: true,
		})
		return
	}

	if tries >= trigger.RetryCount || trigger.RetryDelay == "" {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepTooManyRetries, Error: true, Finished: true,
		})
		return
	}

	waitTime, err := RetryDelayFor(trigger.RetryDelay, tries)
	if err != nil {
		m.recordHistory(ctx, &HistoryUpdate{
			HistoryID: historyID, Step: models.HistoryStepInvalidRetryDelay, Error: true, Finished: true,
			ErrorStack: err.Error(),
		})
		return
	}

	m.recordHistory(ctx, &HistoryUpdate{
		HistoryID: historyID, Step: fmt.Sprintf("%s-%d", models.HistoryStepGoingToRetry, tries+1), Error: true,
	})

	m.logger.Infof("Trying the integration %s to %s again in %s", trigger.Name, url, waitTime)
	m.deps.Metrics.RecordRetryScheduled(string(trigger.RetryDelay))

	m.schedule(waitTime, func() {
		if err := m.ExecuteTriggerURL(context.Background(), url, trigger, ev, tries+1); err != nil {
			m.logger.WithError(err).Errorf("Retry of the integration %q against %s failed", trigger.Name, url)
		}
	})
}

// disableTrigger disables the integration globally and emits a change
// notification
func (m *Manager) disableTrigger(ctx context.Context, trigger *models.Integration) {
	m.registry.Disable(trigger.ID)
	if err := m.deps.Integrations.DisableIntegration(ctx, trigger.ID); err != nil {
		m.logger.WithError(err).Errorf("Failed to persist the disabling of the integration %q", trigger.Name)
	}
	m.deps.Metrics.RecordIntegrationDisabled()
	if m.deps.Notifier != nil {
		m.deps.Notifier.NotifyIntegrationDisabled(trigger.ID)
	}
}

// isSuccessStatus reports whether the status code counts as success
func (m *Manager) isSuccessStatus(status int) bool {
	for _, code := range m.successResults {
		if code == status {
			return true
		}
	}
	return false
}

// parseResponseContent parses the body as JSON only when the declared
// content type is whitelisted; parse failures degrade to nil
func parseResponseContent(resp *transport.Response, content string) *responseMessage {
	contentType := resp.ContentType()
	allowed := false
	for _, ct := range jsonContentTypes {
		if ct == contentType {
			allowed = true
			break
		}
	}
	if !allowed || content == "" {
		return nil
	}

	var parsed responseMessage
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}
	return &parsed
}
