// File: internal/trigger/registry.go
package trigger

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Registry is the in-memory index from channel keys to registered outgoing
// integrations. It is rebuilt from the integration collection at process
// start and kept in sync by explicit Add/Remove calls.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*models.Integration
	logger  *logrus.Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[string]map[string]*models.Integration),
		logger:  utils.ComponentLogger("trigger-registry"),
	}
}

// channelKeys computes the bucket keys an integration is indexed under
func channelKeys(record *models.Integration) []string {
	if record.Event != "" && !record.Event.Capabilities().UsesChannel {
		// The integration doesn't rely on channels
		return []string{models.ChannelKeyAny}
	}
	if len(record.Channel) == 0 {
		return []string{models.ChannelKeyAllPublic}
	}
	return record.Channel
}

// Add indexes the integration under every channel key it applies to.
// Re-registration by the same id is idempotent.
func (r *Registry) Add(record *models.Integration) {
	r.logger.Debugf("Adding the integration %s of the event %s", record.Name, record.Event)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, channel := range channelKeys(record) {
		if r.buckets[channel] == nil {
			r.buckets[channel] = make(map[string]*models.Integration)
		}
		r.buckets[channel][record.ID] = record
	}
}

// Remove deletes the integration from every bucket
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bucket := range r.buckets {
		delete(bucket, id)
	}
}

// IsEnabled reports whether the integration is present in at least one
// bucket and enabled. A missing integration is false, not an error.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, bucket := range r.buckets {
		if record, ok := bucket[id]; ok {
			return record.Enabled
		}
	}
	return false
}

// Disable flips the enabled flag of every registered copy of the integration
func (r *Registry) Disable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bucket := range r.buckets {
		if record, ok := bucket[id]; ok {
			record.Enabled = false
		}
	}
}

// Count returns the number of distinct registered integrations
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, bucket := range r.buckets {
		for id := range bucket {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// Resolve returns the deduplicated set of integrations matching the room
// and message. The "__any" bucket is always included, so executor-level
// filtering by event kind remains mandatory. A nil room yields only the
// "__any" bucket.
func (r *Registry) Resolve(room *models.Room, message *models.Message) []*models.Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var matches []*models.Integration

	collect := func(key string) {
		for id, record := range r.buckets[key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			matches = append(matches, record)
		}
	}

	if room != nil {
		switch room.Type {
		case models.RoomTypeDirect:
			collect(models.ChannelKeyAllDirect)
			for _, uid := range room.UserIDs {
				collect("@" + uid)
			}
			for _, username := range room.Usernames {
				if message != nil && username == message.Author.Username {
					continue
				}
				collect("@" + username)
			}
		case models.RoomTypePublic:
			collect(models.ChannelKeyAllPublic)
			collect("#" + room.ID)
			if room.ID != room.Name {
				collect("#" + room.Name)
			}
		default:
			collect(models.ChannelKeyAllPrivate)
			collect("#" + room.ID)
			if room.ID != room.Name {
				collect("#" + room.Name)
			}
		}
	}

	// Channel-independent integrations apply to every room type
	collect(models.ChannelKeyAny)

	return matches
}
