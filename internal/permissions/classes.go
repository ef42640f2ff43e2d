package permissions

import "strings"

// PauseKey is the pair-permission field whose flip hides or reveals a pair.
const PauseKey = "isPaused"

// IsPauseField reports whether key toggles pair visibility.
func IsPauseField(key string) bool { return key == PauseKey }

var statusInteropKeys = map[string]bool{
	"allowPositiveStatusTypes":      true,
	"allowNegativeStatusTypes":      true,
	"allowSpecialStatusTypes":       true,
	"pairCanApplyOwnStatusesToYou":  true,
	"pairCanApplyYourStatusesToYou": true,
	"maxStatusTime":                 true,
	"allowPermanentStatuses":        true,
	"allowRemovingStatuses":         true,
}

// IsStatusInteropField reports whether key belongs to the subset mirrored
// to the external status plugin.
func IsStatusInteropField(key string) bool { return statusInteropKeys[key] }

// Action names a restrictive (hardcore) effect.
type Action string

const (
	ActionForcedFollow     Action = "forced_follow"
	ActionForcedSit        Action = "forced_sit"
	ActionForcedGroundSit  Action = "forced_ground_sit"
	ActionForcedStay       Action = "forced_stay"
	ActionForcedBlindfold  Action = "forced_blindfold"
	ActionChatBoxesHidden  Action = "chat_boxes_hidden"
	ActionChatInputHidden  Action = "chat_input_hidden"
	ActionChatInputBlocked Action = "chat_input_blocked"
)

var globalActions = map[string]Action{
	"forcedFollow":     ActionForcedFollow,
	"forcedEmoteState": ActionForcedSit,
	"forcedStay":       ActionForcedStay,
	"forcedBlindfold":  ActionForcedBlindfold,
	"chatBoxesHidden":  ActionChatBoxesHidden,
	"chatInputHidden":  ActionChatInputHidden,
	"chatInputBlocked": ActionChatInputBlocked,
}

var pairActions = map[string]Action{
	"allowForcedFollow":      ActionForcedFollow,
	"allowForcedSit":         ActionForcedSit,
	"allowForcedGroundSit":   ActionForcedGroundSit,
	"allowForcedToStay":      ActionForcedStay,
	"allowBlindfold":         ActionForcedBlindfold,
	"allowHidingChatBoxes":   ActionChatBoxesHidden,
	"allowHidingChatInput":   ActionChatInputHidden,
	"allowChatInputBlocking": ActionChatInputBlocked,
}

// GlobalAction returns the action carried by a restrictive global field.
// Such fields hold "enactorUID|flags" while active and "" otherwise.
func GlobalAction(key string) (Action, bool) {
	a, ok := globalActions[key]
	return a, ok
}

// PairAction returns the action gated by a pair allowance field.
func PairAction(key string) (Action, bool) {
	a, ok := pairActions[key]
	return a, ok
}

// Enactor extracts the enacting UID from a restrictive global value.
func Enactor(value string) string {
	uid, _, _ := strings.Cut(value, "|")
	return uid
}
