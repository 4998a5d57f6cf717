// File: internal/trigger/scriptengine.go
package trigger

import (
	"context"
	"net/http"
	"time"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// PrepareRequest is the input of the prepare-outgoing-request hook
type PrepareRequest struct {
	Integration *models.Integration `json:"integration"`
	Data        *models.Payload     `json:"data"`
	URL         string              `json:"url"`
	HistoryID   string              `json:"history_id"`
}

// OutgoingRequest is the prepared request an execution attempt will perform.
// A nil OutgoingRequest from the prepare hook means "do not call the URL".
type OutgoingRequest struct {
	URL     string               `json:"url"`
	Method  string               `json:"method"`
	Headers map[string]string    `json:"headers,omitempty"`
	Data    interface{}          `json:"data,omitempty"`
	Timeout time.Duration        `json:"timeout,omitempty"`
	Auth    string               `json:"auth,omitempty"`
	Message *models.MessageDraft `json:"message,omitempty"`
}

// ProcessRequest is the input of the process-outgoing-response hook
type ProcessRequest struct {
	Integration *models.Integration `json:"integration"`
	Request     *OutgoingRequest    `json:"request"`
	Response    *transport.Response `json:"response"`
	Content     string              `json:"content"`
	HistoryID   string              `json:"history_id"`
}

// ProcessResult is the outcome of the process hook. A nil result means
// "fall through to default status handling"; Discard means the hook handled
// the response and no message should be posted.
type ProcessResult struct {
	Message *models.MessageDraft `json:"message,omitempty"`
	Discard bool                 `json:"discard,omitempty"`
}

// ScriptEngine lets the webhook author transform outgoing requests and
// responses. Modeled as an interface so alternate engines can be substituted
// without touching the executor.
type ScriptEngine interface {
	PrepareOutgoingRequest(ctx context.Context, req *PrepareRequest) (*OutgoingRequest, error)
	ProcessOutgoingResponse(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
}

const defaultUserAgent = "Chat-Outgoing-Webhooks/1.0"

// NoopScriptEngine is the engine used when an integration carries no script.
// Prepare returns the default request options; process falls through.
type NoopScriptEngine struct{}

// PrepareOutgoingRequest returns the default outgoing request for the URL
func (NoopScriptEngine) PrepareOutgoingRequest(_ context.Context, req *PrepareRequest) (*OutgoingRequest, error) {
	return &OutgoingRequest{
		URL:     req.URL,
		Method:  http.MethodPost,
		Headers: map[string]string{"User-Agent": defaultUserAgent},
		Data:    req.Data,
	}, nil
}

// ProcessOutgoingResponse falls through to default status handling
func (NoopScriptEngine) ProcessOutgoingResponse(_ context.Context, _ *ProcessRequest) (*ProcessResult, error) {
	return nil, nil
}

// wrapScriptError normalizes script engine failures into a uniform error
// shape so downstream handling does not depend on hook internals
func wrapScriptError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return utils.NewAppError(utils.ErrCodeScript, err.Error())
}
