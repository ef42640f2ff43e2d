package bus

// Event is a named notification with an event-specific payload.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// EventHandler receives broadcast events.
type EventHandler func(Event)

// Publisher is the sending half of the bus.
type Publisher interface {
	Broadcast(Event)
}

// Event names.
const (
	EventPairAdded          = "pair.added"
	EventPairRemoved        = "pair.removed"
	EventPairOnline         = "pair.online"
	EventPairOffline        = "pair.offline"
	EventPairVisible        = "pair.visible"
	EventPairHidden         = "pair.hidden"
	EventDataApplied        = "pair.data.applied"
	EventPermissionsChanged = "pair.permissions.changed"
	EventProfileInvalidated = "profile.invalidated"
	EventInteropChanged     = "interop.permissions.changed"
	EventHardcoreAction     = "hardcore.action"
	EventRefresh            = "ui.refresh"
	EventConnection         = "hub.connection"
)

// PairPayload identifies the pair an event concerns.
type PairPayload struct {
	UID string `json:"uid"`
}

// DataAppliedPayload reports that a received data category was stored or
// applied to a live handle.
type DataAppliedPayload struct {
	UID      string `json:"uid"`
	Category string `json:"category"`
	Kind     string `json:"kind,omitempty"`
	Applied  bool   `json:"applied"`
}

// PermissionsChangedPayload is raised once per permission update call.
type PermissionsChangedPayload struct {
	UID     string   `json:"uid"`
	Set     string   `json:"set"`
	Keys    []string `json:"keys"`
	Enactor string   `json:"enactor,omitempty"`
}

// InteropChangedPayload tells the status interop bridge to refresh what a
// pair may apply. Name is the pair's addressable in-world name.
type InteropChangedPayload struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// HardcoreActionPayload records a restrictive action changing state.
type HardcoreActionPayload struct {
	Action  string `json:"action"`
	State   bool   `json:"state"`
	Enactor string `json:"enactor"`
	Target  string `json:"target"`
}

// ConnectionPayload reports relay connection state.
type ConnectionPayload struct {
	Connected bool   `json:"connected"`
	Session   string `json:"session,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RefreshPayload carries the pairs touched since the last refresh.
type RefreshPayload struct {
	UIDs   []string `json:"uids"`
	Events int      `json:"events"`
}
