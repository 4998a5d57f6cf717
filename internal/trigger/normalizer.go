// File: internal/trigger/normalizer.go
package trigger

import (
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
)

// normalizeEvent converts an event kind plus its positional arguments into a
// uniform event record. Each kind declares which slots carry the message,
// room, user and owner; a shorter argument list leaves those fields unset.
// Unrecognized kinds normalize to a no-event record (empty Kind).
func normalizeEvent(logger *logrus.Entry, kind models.EventKind, args ...interface{}) *models.NormalizedEvent {
	ev := &models.NormalizedEvent{Kind: kind}

	argAt := func(i int) interface{} {
		if i < len(args) {
			return args[i]
		}
		return nil
	}

	switch kind {
	case models.EventSendMessage:
		if len(args) >= 2 {
			ev.Message, _ = argAt(0).(*models.Message)
			ev.Room, _ = argAt(1).(*models.Room)
		}
	case models.EventFileUploaded:
		if upload, ok := argAt(0).(*models.FileUploadContext); ok && upload != nil {
			ev.User = upload.User
			ev.Room = upload.Room
			ev.Message = upload.Message
		}
	case models.EventRoomArchived:
		if len(args) >= 2 {
			ev.Room, _ = argAt(0).(*models.Room)
			ev.User, _ = argAt(1).(*models.User)
		}
	case models.EventRoomCreated:
		if len(args) >= 2 {
			ev.Owner, _ = argAt(0).(*models.User)
			ev.Room, _ = argAt(1).(*models.Room)
		}
	case models.EventRoomJoined, models.EventRoomLeft:
		if len(args) >= 2 {
			ev.User, _ = argAt(0).(*models.User)
			ev.Room, _ = argAt(1).(*models.Room)
		}
	case models.EventUserCreated:
		ev.User, _ = argAt(0).(*models.User)
	default:
		logger.Warnf("An unhandled trigger event was called: %s", kind)
		ev.Kind = ""
	}

	return ev
}
