package permissions

import (
	"time"

	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Global addresses protocol.GlobalPerms by wire key.
var Global = newTable("global",
	uint32Field("garblerChannels", func(p *protocol.GlobalPerms) *uint32 { return &p.GarblerChannels }),
	boolField("garblerActive", func(p *protocol.GlobalPerms) *bool { return &p.GarblerActive }),
	boolField("garblerLocked", func(p *protocol.GlobalPerms) *bool { return &p.GarblerLocked }),
	boolField("wardrobeEnabled", func(p *protocol.GlobalPerms) *bool { return &p.WardrobeEnabled }),
	boolField("itemAutoEquip", func(p *protocol.GlobalPerms) *bool { return &p.ItemAutoEquip }),
	boolField("restraintSetAutoEquip", func(p *protocol.GlobalPerms) *bool { return &p.RestraintSetAutoEquip }),
	boolField("puppeteerEnabled", func(p *protocol.GlobalPerms) *bool { return &p.PuppeteerEnabled }),
	stringField("globalTriggerPhrase", func(p *protocol.GlobalPerms) *string { return &p.TriggerPhrase }),
	boolField("globalAllowSitRequests", func(p *protocol.GlobalPerms) *bool { return &p.AllowSitRequests }),
	boolField("globalAllowMotionRequests", func(p *protocol.GlobalPerms) *bool { return &p.AllowMotionRequests }),
	boolField("globalAllowAllRequests", func(p *protocol.GlobalPerms) *bool { return &p.AllowAllRequests }),
	boolField("statusesEnabled", func(p *protocol.GlobalPerms) *bool { return &p.StatusesEnabled }),
	boolField("toyboxEnabled", func(p *protocol.GlobalPerms) *bool { return &p.ToyboxEnabled }),
	boolField("lockToyboxUI", func(p *protocol.GlobalPerms) *bool { return &p.LockToyboxUI }),
	boolField("toyActive", func(p *protocol.GlobalPerms) *bool { return &p.ToyActive }),
	int32Field("toyIntensity", func(p *protocol.GlobalPerms) *int32 { return &p.ToyIntensity }),
	boolField("spatialAudio", func(p *protocol.GlobalPerms) *bool { return &p.SpatialAudio }),
	stringField("forcedFollow", func(p *protocol.GlobalPerms) *string { return &p.ForcedFollow }),
	stringField("forcedEmoteState", func(p *protocol.GlobalPerms) *string { return &p.ForcedEmoteState }),
	stringField("forcedStay", func(p *protocol.GlobalPerms) *string { return &p.ForcedStay }),
	stringField("forcedBlindfold", func(p *protocol.GlobalPerms) *string { return &p.ForcedBlindfold }),
	stringField("chatBoxesHidden", func(p *protocol.GlobalPerms) *string { return &p.ChatBoxesHidden }),
	stringField("chatInputHidden", func(p *protocol.GlobalPerms) *string { return &p.ChatInputHidden }),
	stringField("chatInputBlocked", func(p *protocol.GlobalPerms) *string { return &p.ChatInputBlocked }),
	stringField("globalShockShareCode", func(p *protocol.GlobalPerms) *string { return &p.ShockShareCode }),
	boolField("allowShocks", func(p *protocol.GlobalPerms) *bool { return &p.AllowShocks }),
	boolField("allowVibrations", func(p *protocol.GlobalPerms) *bool { return &p.AllowVibrations }),
	boolField("allowBeeps", func(p *protocol.GlobalPerms) *bool { return &p.AllowBeeps }),
	int32Field("maxIntensity", func(p *protocol.GlobalPerms) *int32 { return &p.MaxIntensity }),
	int32Field("maxDuration", func(p *protocol.GlobalPerms) *int32 { return &p.MaxDuration }),
	durationField("shockVibrateDuration", func(p *protocol.GlobalPerms) *time.Duration { return &p.ShockVibrateDuration }),
)

// Pair addresses protocol.PairPerms by wire key.
var Pair = newTable("pair",
	boolField("isPaused", func(p *protocol.PairPerms) *bool { return &p.IsPaused }),
	boolField("gagFeatures", func(p *protocol.PairPerms) *bool { return &p.GagFeatures }),
	boolField("ownerLocks", func(p *protocol.PairPerms) *bool { return &p.OwnerLocks }),
	boolField("devotionalLocks", func(p *protocol.PairPerms) *bool { return &p.DevotionalLocks }),
	boolField("extendedLockTimes", func(p *protocol.PairPerms) *bool { return &p.ExtendedLockTimes }),
	durationField("maxLockTime", func(p *protocol.PairPerms) *time.Duration { return &p.MaxLockTime }),
	boolField("inHardcore", func(p *protocol.PairPerms) *bool { return &p.InHardcore }),
	boolField("applyRestraintSets", func(p *protocol.PairPerms) *bool { return &p.ApplyRestraintSets }),
	boolField("lockRestraintSets", func(p *protocol.PairPerms) *bool { return &p.LockRestraintSets }),
	durationField("maxAllowedRestraintTime", func(p *protocol.PairPerms) *time.Duration { return &p.MaxRestraintTime }),
	boolField("unlockRestraintSets", func(p *protocol.PairPerms) *bool { return &p.UnlockRestraintSets }),
	boolField("removeRestraintSets", func(p *protocol.PairPerms) *bool { return &p.RemoveRestraintSets }),
	stringField("triggerPhrase", func(p *protocol.PairPerms) *string { return &p.TriggerPhrase }),
	runeField("startChar", func(p *protocol.PairPerms) *rune { return &p.StartChar }),
	runeField("endChar", func(p *protocol.PairPerms) *rune { return &p.EndChar }),
	boolField("allowSitRequests", func(p *protocol.PairPerms) *bool { return &p.AllowSitRequests }),
	boolField("allowMotionRequests", func(p *protocol.PairPerms) *bool { return &p.AllowMotionRequests }),
	boolField("allowAllRequests", func(p *protocol.PairPerms) *bool { return &p.AllowAllRequests }),
	boolField("allowPositiveStatusTypes", func(p *protocol.PairPerms) *bool { return &p.AllowPositiveStatusTypes }),
	boolField("allowNegativeStatusTypes", func(p *protocol.PairPerms) *bool { return &p.AllowNegativeStatusTypes }),
	boolField("allowSpecialStatusTypes", func(p *protocol.PairPerms) *bool { return &p.AllowSpecialStatusTypes }),
	boolField("pairCanApplyOwnStatusesToYou", func(p *protocol.PairPerms) *bool { return &p.PairCanApplyOwnStatuses }),
	boolField("pairCanApplyYourStatusesToYou", func(p *protocol.PairPerms) *bool { return &p.PairCanApplyYourStatuses }),
	durationField("maxStatusTime", func(p *protocol.PairPerms) *time.Duration { return &p.MaxStatusTime }),
	boolField("allowPermanentStatuses", func(p *protocol.PairPerms) *bool { return &p.AllowPermanentStatuses }),
	boolField("allowRemovingStatuses", func(p *protocol.PairPerms) *bool { return &p.AllowRemovingStatuses }),
	boolField("changeToyState", func(p *protocol.PairPerms) *bool { return &p.ChangeToyState }),
	boolField("canControlIntensity", func(p *protocol.PairPerms) *bool { return &p.CanControlIntensity }),
	boolField("vibratorAlarms", func(p *protocol.PairPerms) *bool { return &p.VibratorAlarms }),
	boolField("canUseVibeRemote", func(p *protocol.PairPerms) *bool { return &p.CanUseVibeRemote }),
	boolField("canExecutePatterns", func(p *protocol.PairPerms) *bool { return &p.CanExecutePatterns }),
	boolField("canStopPatterns", func(p *protocol.PairPerms) *bool { return &p.CanStopPatterns }),
	boolField("canToggleAlarms", func(p *protocol.PairPerms) *bool { return &p.CanToggleAlarms }),
	boolField("canToggleTriggers", func(p *protocol.PairPerms) *bool { return &p.CanToggleTriggers }),
	boolField("allowForcedFollow", func(p *protocol.PairPerms) *bool { return &p.AllowForcedFollow }),
	boolField("allowForcedSit", func(p *protocol.PairPerms) *bool { return &p.AllowForcedSit }),
	boolField("allowForcedGroundSit", func(p *protocol.PairPerms) *bool { return &p.AllowForcedGroundSit }),
	boolField("allowForcedToStay", func(p *protocol.PairPerms) *bool { return &p.AllowForcedToStay }),
	boolField("allowBlindfold", func(p *protocol.PairPerms) *bool { return &p.AllowBlindfold }),
	boolField("allowHidingChatBoxes", func(p *protocol.PairPerms) *bool { return &p.AllowHidingChatBoxes }),
	boolField("allowHidingChatInput", func(p *protocol.PairPerms) *bool { return &p.AllowHidingChatInput }),
	boolField("allowChatInputBlocking", func(p *protocol.PairPerms) *bool { return &p.AllowChatInputBlocking }),
	stringField("shockShareCode", func(p *protocol.PairPerms) *string { return &p.ShockShareCode }),
	boolField("allowShocks", func(p *protocol.PairPerms) *bool { return &p.AllowShocks }),
	boolField("allowVibrations", func(p *protocol.PairPerms) *bool { return &p.AllowVibrations }),
	boolField("allowBeeps", func(p *protocol.PairPerms) *bool { return &p.AllowBeeps }),
	int32Field("maxIntensity", func(p *protocol.PairPerms) *int32 { return &p.MaxIntensity }),
	int32Field("maxDuration", func(p *protocol.PairPerms) *int32 { return &p.MaxDuration }),
	durationField("maxVibrateDuration", func(p *protocol.PairPerms) *time.Duration { return &p.MaxVibrateDuration }),
)

// EditAccess addresses protocol.EditAccessPerms by wire key.
var EditAccess = newTable("editAccess",
	boolField("gagFeaturesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.GagFeaturesAllowed }),
	boolField("ownerLocksAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.OwnerLocksAllowed }),
	boolField("devotionalLocksAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.DevotionalLocksAllowed }),
	boolField("extendedLockTimesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.ExtendedLockTimesAllowed }),
	boolField("maxLockTimeAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.MaxLockTimeAllowed }),
	boolField("wardrobeEnabledAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.WardrobeEnabledAllowed }),
	boolField("applyRestraintSetsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.ApplyRestraintSetsAllowed }),
	boolField("lockRestraintSetsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.LockRestraintSetsAllowed }),
	boolField("maxAllowedRestraintTimeAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.MaxRestraintTimeAllowed }),
	boolField("removeRestraintSetsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.RemoveRestraintSetsAllowed }),
	boolField("puppeteerEnabledAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.PuppeteerEnabledAllowed }),
	boolField("allowSitRequestsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowSitRequestsAllowed }),
	boolField("allowMotionRequestsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowMotionRequestsAllowed }),
	boolField("allowAllRequestsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowAllRequestsAllowed }),
	boolField("statusesEnabledAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.StatusesEnabledAllowed }),
	boolField("allowPositiveStatusTypesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowPositiveStatusTypesAllowed }),
	boolField("allowNegativeStatusTypesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowNegativeStatusTypesAllowed }),
	boolField("allowSpecialStatusTypesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowSpecialStatusTypesAllowed }),
	boolField("pairCanApplyOwnStatusesToYouAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.PairCanApplyOwnStatusesAllowed }),
	boolField("pairCanApplyYourStatusesToYouAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.PairCanApplyYourStatusesAllowed }),
	boolField("maxStatusTimeAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.MaxStatusTimeAllowed }),
	boolField("allowPermanentStatusesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowPermanentStatusesAllowed }),
	boolField("allowRemovingStatusesAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.AllowRemovingStatusesAllowed }),
	boolField("toyboxEnabledAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.ToyboxEnabledAllowed }),
	boolField("lockToyboxUIAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.LockToyboxUIAllowed }),
	boolField("changeToyStateAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.ChangeToyStateAllowed }),
	boolField("canControlIntensityAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanControlIntensityAllowed }),
	boolField("vibratorAlarmsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.VibratorAlarmsAllowed }),
	boolField("canUseVibeRemoteAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanUseVibeRemoteAllowed }),
	boolField("canExecutePatternsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanExecutePatternsAllowed }),
	boolField("canStopPatternsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanStopPatternsAllowed }),
	boolField("canToggleAlarmsAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanToggleAlarmsAllowed }),
	boolField("canToggleTriggersAllowed", func(p *protocol.EditAccessPerms) *bool { return &p.CanToggleTriggersAllowed }),
)
