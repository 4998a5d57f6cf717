// File: internal/trigger/collaborators.go
package trigger

import (
	"context"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/transport"
)

// The engine consumes the surrounding chat system through the narrow
// capabilities below. Persistence, messaging and settings all live on the
// other side of these interfaces.

// UserStore provides read access to chat users
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsernameIgnoringCase(ctx context.Context, username string) (*models.User, error)
}

// RoomStore provides read access to chat rooms
type RoomStore interface {
	FindRoomByID(ctx context.Context, id string) (*models.Room, error)
	// GetRoomByNameOrIDWithOptionToJoin resolves a room by name or id on
	// behalf of the given user, joining it when necessary. An unresolvable
	// identifier yields (nil, nil), not an error.
	GetRoomByNameOrIDWithOptionToJoin(ctx context.Context, user *models.User, nameOrID string) (*models.Room, error)
}

// MessageStore provides read access to chat messages
type MessageStore interface {
	FindMessageByID(ctx context.Context, id string) (*models.Message, error)
}

// Messenger posts messages through the messaging subsystem
type Messenger interface {
	PostMessage(ctx context.Context, user *models.User, draft *models.MessageDraft, defaults *models.MessageDefaults) (*models.PostedMessage, error)
}

// IntegrationWriter applies the single mutation this engine performs on
// integration records: the disable-on-410 update
type IntegrationWriter interface {
	DisableIntegration(ctx context.Context, id string) error
}

// HistoryUpdate describes one audit step of an execution attempt. A Record
// call with an empty HistoryID allocates a new history record and returns
// its id; subsequent calls update the same record.
type HistoryUpdate struct {
	HistoryID    string
	Step         string
	Integration  *models.Integration
	Event        models.EventKind
	URL          string
	TriggerWord  string
	Data         *models.Payload
	HTTPCallData string
	HTTPResult   string
	HTTPError    string
	ErrorStack   string
	Error        bool
	Finished     bool
}

// HistorySink is the write-only audit log of execution steps
type HistorySink interface {
	Record(ctx context.Context, update *HistoryUpdate) (string, error)
}

// Settings exposes the site-level configuration the engine reads per attempt
type Settings interface {
	SiteURL() string
	AllowInvalidCerts() bool
}

// ChangeNotifier broadcasts integration state changes, fire-and-forget
type ChangeNotifier interface {
	NotifyIntegrationDisabled(id string)
}

// Fetcher is re-exported here for wiring convenience
type Fetcher = transport.Fetcher
