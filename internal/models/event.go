// File: internal/models/event.go
package models

// EventKind identifies the chat event an outgoing integration listens for
type EventKind string

const (
	EventSendMessage  EventKind = "sendMessage"
	EventFileUploaded EventKind = "fileUploaded"
	EventRoomArchived EventKind = "roomArchived"
	EventRoomCreated  EventKind = "roomCreated"
	EventRoomJoined   EventKind = "roomJoined"
	EventRoomLeft     EventKind = "roomLeft"
	EventUserCreated  EventKind = "userCreated"
)

// EventCapabilities describes which trigger features an event kind supports
type EventCapabilities struct {
	UsesChannel      bool `json:"uses_channel"`
	UsesTriggerWords bool `json:"uses_trigger_words"`
	UsesTargetRoom   bool `json:"uses_target_room"`
}

// OutgoingEvents maps every supported event kind to its capabilities.
// Kinds that do not use channel targeting are indexed under the "__any"
// registry bucket.
var OutgoingEvents = map[EventKind]EventCapabilities{
	EventSendMessage:  {UsesChannel: true, UsesTriggerWords: true},
	EventFileUploaded: {UsesChannel: true},
	EventRoomArchived: {},
	EventRoomCreated:  {},
	EventRoomJoined:   {},
	EventRoomLeft:     {},
	EventUserCreated:  {UsesTargetRoom: true},
}

// Valid reports whether the event kind is a supported outgoing event
func (k EventKind) Valid() bool {
	_, ok := OutgoingEvents[k]
	return ok
}

// Capabilities returns the capabilities of the event kind
func (k EventKind) Capabilities() EventCapabilities {
	return OutgoingEvents[k]
}

// NormalizedEvent is the uniform record a heterogeneous event call is
// normalized into. Only the fields relevant to the kind are populated.
// An empty Kind means "no event": nothing must be executed for it.
type NormalizedEvent struct {
	Kind    EventKind `json:"event,omitempty"`
	Message *Message  `json:"message,omitempty"`
	Room    *Room     `json:"room,omitempty"`
	User    *User     `json:"user,omitempty"`
	Owner   *User     `json:"owner,omitempty"`
}

// FileUploadContext groups the arguments a fileUploaded event is raised with
type FileUploadContext struct {
	User    *User    `json:"user,omitempty"`
	Room    *Room    `json:"room,omitempty"`
	Message *Message `json:"message,omitempty"`
}
