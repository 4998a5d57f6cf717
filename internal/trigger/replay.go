// File: internal/trigger/replay.go
package trigger

import (
	"context"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Replay re-derives the normalized event from a stored history record and
// re-runs the single URL execution it describes
func (m *Manager) Replay(ctx context.Context, record *models.Integration, history *models.HistoryEntry) error {
	if record == nil || record.Type != models.IntegrationTypeOutgoing {
		return utils.NewAppError(utils.ErrCodeValidation, "The integration type to replay must be an outgoing webhook")
	}

	if history == nil || history.Data == nil {
		return utils.NewAppError(utils.ErrCodeValidation, "The history data must be defined to replay an integration")
	}

	ev := &models.NormalizedEvent{Kind: history.Event}

	if history.Data.Owner != nil && history.Data.Owner.ID != "" {
		ev.Owner, _ = m.deps.Users.FindUserByID(ctx, history.Data.Owner.ID)
	}
	if history.Data.MessageID != "" {
		ev.Message, _ = m.deps.Messages.FindMessageByID(ctx, history.Data.MessageID)
	}
	if history.Data.ChannelID != "" {
		ev.Room, _ = m.deps.Rooms.FindRoomByID(ctx, history.Data.ChannelID)
	}
	if history.Data.UserID != "" {
		ev.User, _ = m.deps.Users.FindUserByID(ctx, history.Data.UserID)
	}

	if history.URL == "" {
		return nil
	}

	return m.ExecuteTriggerURL(ctx, history.URL, record, ev, 0)
}
