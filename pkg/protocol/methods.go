package protocol

// Client → relay method names.
const (
	MethodConnect = "connect"
	MethodPing    = "ping"

	MethodPushComposite  = "user.push.composite"
	MethodPushIPC        = "user.push.ipc"
	MethodPushAppearance = "user.push.appearance"
	MethodPushWardrobe   = "user.push.wardrobe"
	MethodPushAlias      = "user.push.alias"
	MethodPushToybox     = "user.push.toybox"

	MethodProfileGet = "user.profile.get"
)

// ConnectParams is the payload of the connect request.
type ConnectParams struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol"`
	Session  string `json:"session"`
}

// ConnectResult is the payload of a successful connect response.
type ConnectResult struct {
	Protocol int                  `json:"protocol"`
	User     UserData             `json:"user"`
	Globals  GlobalPerms          `json:"globals"`
	Pairs    []UserPairDto        `json:"pairs,omitempty"`
	Online   []OnlineUserIdentDto `json:"online,omitempty"`
}

// PushParams is the payload of every user.push.* request.
type PushParams[T any] struct {
	Data       T              `json:"data"`
	Recipients []string       `json:"recipients"`
	Kind       DataUpdateKind `json:"kind"`
}

// ProfileParams requests a pair's profile.
type ProfileParams struct {
	UID string `json:"uid"`
}

// ProfileResult is the payload of a user.profile.get response.
type ProfileResult struct {
	UID         string `json:"uid"`
	Description string `json:"description,omitempty"`
	AvatarRef   string `json:"avatarRef,omitempty"`
	Flagged     bool   `json:"flagged,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
}
