package protocol

import "time"

// GlobalPerms is an account-wide permission set. Restrictive fields
// (ForcedFollow through ChatInputBlocked) hold the enacting UID while
// active, optionally followed by "|" and flags; empty means inactive.
type GlobalPerms struct {
	GarblerChannels       uint32 `json:"garblerChannels"`
	GarblerActive         bool   `json:"garblerActive"`
	GarblerLocked         bool   `json:"garblerLocked"`
	WardrobeEnabled       bool   `json:"wardrobeEnabled"`
	ItemAutoEquip         bool   `json:"itemAutoEquip"`
	RestraintSetAutoEquip bool   `json:"restraintSetAutoEquip"`
	PuppeteerEnabled      bool   `json:"puppeteerEnabled"`
	TriggerPhrase         string `json:"globalTriggerPhrase"`
	AllowSitRequests      bool   `json:"globalAllowSitRequests"`
	AllowMotionRequests   bool   `json:"globalAllowMotionRequests"`
	AllowAllRequests      bool   `json:"globalAllowAllRequests"`
	StatusesEnabled       bool   `json:"statusesEnabled"`
	ToyboxEnabled         bool   `json:"toyboxEnabled"`
	LockToyboxUI          bool   `json:"lockToyboxUI"`
	ToyActive             bool   `json:"toyActive"`
	ToyIntensity          int32  `json:"toyIntensity"`
	SpatialAudio          bool   `json:"spatialAudio"`

	ForcedFollow     string `json:"forcedFollow"`
	ForcedEmoteState string `json:"forcedEmoteState"`
	ForcedStay       string `json:"forcedStay"`
	ForcedBlindfold  string `json:"forcedBlindfold"`
	ChatBoxesHidden  string `json:"chatBoxesHidden"`
	ChatInputHidden  string `json:"chatInputHidden"`
	ChatInputBlocked string `json:"chatInputBlocked"`

	ShockShareCode       string        `json:"globalShockShareCode"`
	AllowShocks          bool          `json:"allowShocks"`
	AllowVibrations      bool          `json:"allowVibrations"`
	AllowBeeps           bool          `json:"allowBeeps"`
	MaxIntensity         int32         `json:"maxIntensity"`
	MaxDuration          int32         `json:"maxDuration"`
	ShockVibrateDuration time.Duration `json:"shockVibrateDuration"`
}

// PairPerms is the permission set one side grants the other.
type PairPerms struct {
	IsPaused bool `json:"isPaused"`

	GagFeatures       bool          `json:"gagFeatures"`
	OwnerLocks        bool          `json:"ownerLocks"`
	DevotionalLocks   bool          `json:"devotionalLocks"`
	ExtendedLockTimes bool          `json:"extendedLockTimes"`
	MaxLockTime       time.Duration `json:"maxLockTime"`
	InHardcore        bool          `json:"inHardcore"`

	ApplyRestraintSets  bool          `json:"applyRestraintSets"`
	LockRestraintSets   bool          `json:"lockRestraintSets"`
	MaxRestraintTime    time.Duration `json:"maxAllowedRestraintTime"`
	UnlockRestraintSets bool          `json:"unlockRestraintSets"`
	RemoveRestraintSets bool          `json:"removeRestraintSets"`
	TriggerPhrase       string        `json:"triggerPhrase"`
	StartChar           rune          `json:"startChar"`
	EndChar             rune          `json:"endChar"`
	AllowSitRequests    bool          `json:"allowSitRequests"`
	AllowMotionRequests bool          `json:"allowMotionRequests"`
	AllowAllRequests    bool          `json:"allowAllRequests"`

	AllowPositiveStatusTypes bool          `json:"allowPositiveStatusTypes"`
	AllowNegativeStatusTypes bool          `json:"allowNegativeStatusTypes"`
	AllowSpecialStatusTypes  bool          `json:"allowSpecialStatusTypes"`
	PairCanApplyOwnStatuses  bool          `json:"pairCanApplyOwnStatusesToYou"`
	PairCanApplyYourStatuses bool          `json:"pairCanApplyYourStatusesToYou"`
	MaxStatusTime            time.Duration `json:"maxStatusTime"`
	AllowPermanentStatuses   bool          `json:"allowPermanentStatuses"`
	AllowRemovingStatuses    bool          `json:"allowRemovingStatuses"`

	ChangeToyState      bool `json:"changeToyState"`
	CanControlIntensity bool `json:"canControlIntensity"`
	VibratorAlarms      bool `json:"vibratorAlarms"`
	CanUseVibeRemote    bool `json:"canUseVibeRemote"`
	CanExecutePatterns  bool `json:"canExecutePatterns"`
	CanStopPatterns     bool `json:"canStopPatterns"`
	CanToggleAlarms     bool `json:"canToggleAlarms"`
	CanToggleTriggers   bool `json:"canToggleTriggers"`

	AllowForcedFollow      bool `json:"allowForcedFollow"`
	AllowForcedSit         bool `json:"allowForcedSit"`
	AllowForcedGroundSit   bool `json:"allowForcedGroundSit"`
	AllowForcedToStay      bool `json:"allowForcedToStay"`
	AllowBlindfold         bool `json:"allowBlindfold"`
	AllowHidingChatBoxes   bool `json:"allowHidingChatBoxes"`
	AllowHidingChatInput   bool `json:"allowHidingChatInput"`
	AllowChatInputBlocking bool `json:"allowChatInputBlocking"`

	ShockShareCode     string        `json:"shockShareCode"`
	AllowShocks        bool          `json:"allowShocks"`
	AllowVibrations    bool          `json:"allowVibrations"`
	AllowBeeps         bool          `json:"allowBeeps"`
	MaxIntensity       int32         `json:"maxIntensity"`
	MaxDuration        int32         `json:"maxDuration"`
	MaxVibrateDuration time.Duration `json:"maxVibrateDuration"`
}

// EditAccessPerms lists which PairPerms fields the other side may edit.
// Advisory on the client; the relay enforces it.
type EditAccessPerms struct {
	GagFeaturesAllowed       bool `json:"gagFeaturesAllowed"`
	OwnerLocksAllowed        bool `json:"ownerLocksAllowed"`
	DevotionalLocksAllowed   bool `json:"devotionalLocksAllowed"`
	ExtendedLockTimesAllowed bool `json:"extendedLockTimesAllowed"`
	MaxLockTimeAllowed       bool `json:"maxLockTimeAllowed"`

	WardrobeEnabledAllowed     bool `json:"wardrobeEnabledAllowed"`
	ApplyRestraintSetsAllowed  bool `json:"applyRestraintSetsAllowed"`
	LockRestraintSetsAllowed   bool `json:"lockRestraintSetsAllowed"`
	MaxRestraintTimeAllowed    bool `json:"maxAllowedRestraintTimeAllowed"`
	RemoveRestraintSetsAllowed bool `json:"removeRestraintSetsAllowed"`

	PuppeteerEnabledAllowed    bool `json:"puppeteerEnabledAllowed"`
	AllowSitRequestsAllowed    bool `json:"allowSitRequestsAllowed"`
	AllowMotionRequestsAllowed bool `json:"allowMotionRequestsAllowed"`
	AllowAllRequestsAllowed    bool `json:"allowAllRequestsAllowed"`

	StatusesEnabledAllowed          bool `json:"statusesEnabledAllowed"`
	AllowPositiveStatusTypesAllowed bool `json:"allowPositiveStatusTypesAllowed"`
	AllowNegativeStatusTypesAllowed bool `json:"allowNegativeStatusTypesAllowed"`
	AllowSpecialStatusTypesAllowed  bool `json:"allowSpecialStatusTypesAllowed"`
	PairCanApplyOwnStatusesAllowed  bool `json:"pairCanApplyOwnStatusesToYouAllowed"`
	PairCanApplyYourStatusesAllowed bool `json:"pairCanApplyYourStatusesToYouAllowed"`
	MaxStatusTimeAllowed            bool `json:"maxStatusTimeAllowed"`
	AllowPermanentStatusesAllowed   bool `json:"allowPermanentStatusesAllowed"`
	AllowRemovingStatusesAllowed    bool `json:"allowRemovingStatusesAllowed"`

	ToyboxEnabledAllowed       bool `json:"toyboxEnabledAllowed"`
	LockToyboxUIAllowed        bool `json:"lockToyboxUIAllowed"`
	ChangeToyStateAllowed      bool `json:"changeToyStateAllowed"`
	CanControlIntensityAllowed bool `json:"canControlIntensityAllowed"`
	VibratorAlarmsAllowed      bool `json:"vibratorAlarmsAllowed"`
	CanUseVibeRemoteAllowed    bool `json:"canUseVibeRemoteAllowed"`
	CanExecutePatternsAllowed  bool `json:"canExecutePatternsAllowed"`
	CanStopPatternsAllowed     bool `json:"canStopPatternsAllowed"`
	CanToggleAlarmsAllowed     bool `json:"canToggleAlarmsAllowed"`
	CanToggleTriggersAllowed   bool `json:"canToggleTriggersAllowed"`
}
