package protocol

import "time"

// DataUpdateKind tags why a data blob was sent. The relay forwards it
// untouched; receivers use it to pick a merge rule.
type DataUpdateKind string

const (
	UpdateFullData DataUpdateKind = "full_data"

	UpdateIPCVisible         DataUpdateKind = "ipc_visible"
	UpdateIPCStatusesChanged DataUpdateKind = "ipc_statuses_changed"
	UpdateIPCStatusManager   DataUpdateKind = "ipc_status_manager_changed"
	UpdateIPCPresetsChanged  DataUpdateKind = "ipc_presets_changed"

	UpdateGagApplied  DataUpdateKind = "gag_applied"
	UpdateGagLocked   DataUpdateKind = "gag_locked"
	UpdateGagUnlocked DataUpdateKind = "gag_unlocked"
	UpdateGagRemoved  DataUpdateKind = "gag_removed"

	UpdateRestraintApplied  DataUpdateKind = "restraint_applied"
	UpdateRestraintLocked   DataUpdateKind = "restraint_locked"
	UpdateRestraintUnlocked DataUpdateKind = "restraint_unlocked"
	UpdateRestraintRemoved  DataUpdateKind = "restraint_removed"
	UpdateOutfitListChanged DataUpdateKind = "outfit_list_changed"

	UpdateAliasListChanged    DataUpdateKind = "alias_list_changed"
	UpdateAliasNameRegistered DataUpdateKind = "alias_name_registered"

	UpdatePatternExecuted DataUpdateKind = "pattern_executed"
	UpdatePatternStopped  DataUpdateKind = "pattern_stopped"
	UpdateAlarmToggled    DataUpdateKind = "alarm_toggled"
	UpdateTriggerToggled  DataUpdateKind = "trigger_toggled"
)

// Category names a kind of synchronized data.
type Category string

const (
	CategoryIPC        Category = "ipc"
	CategoryAppearance Category = "appearance"
	CategoryWardrobe   Category = "wardrobe"
	CategoryAlias      Category = "alias"
	CategoryToybox     Category = "toybox"
	CategoryShock      Category = "shock"
)

// IPCData is the status-effect interop state attached to a visible character.
type IPCData struct {
	StatusManager string       `json:"statusManager"`
	Statuses      []StatusInfo `json:"statuses,omitempty"`
	Presets       []PresetInfo `json:"presets,omitempty"`
}

type StatusInfo struct {
	GUID        string        `json:"guid"`
	IconID      int32         `json:"iconId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Type        string        `json:"type"` // positive, negative, special
	Duration    time.Duration `json:"duration"`
	Permanent   bool          `json:"permanent,omitempty"`
}

type PresetInfo struct {
	GUID     string   `json:"guid"`
	Statuses []string `json:"statuses"`
}

// GagSlot is one of the three gag layers.
type GagSlot struct {
	GagType  string    `json:"gagType"`
	Padlock  string    `json:"padlock"`
	Password string    `json:"password,omitempty"`
	Timer    time.Time `json:"timer,omitempty"`
	Assigner string    `json:"assigner,omitempty"`
}

// AppearanceData is the gag state of a user.
type AppearanceData struct {
	Slots [3]GagSlot `json:"slots"`
}

// WardrobeData is the restraint-set state of a user.
type WardrobeData struct {
	Outfits     []string  `json:"outfits,omitempty"`
	ActiveSetID string    `json:"activeSetId"`
	EnabledBy   string    `json:"enabledBy,omitempty"`
	Padlock     string    `json:"padlock"`
	Password    string    `json:"password,omitempty"`
	Timer       time.Time `json:"timer,omitempty"`
	Assigner    string    `json:"assigner,omitempty"`
}

// AliasTrigger maps an input phrase to an output command.
type AliasTrigger struct {
	Enabled bool   `json:"enabled"`
	Input   string `json:"input"`
	Output  string `json:"output"`
}

// AliasData is the puppeteer alias storage kept for one specific pair.
type AliasData struct {
	CharacterName  string         `json:"characterName"`
	CharacterWorld string         `json:"characterWorld"`
	Aliases        []AliasTrigger `json:"aliases,omitempty"`
}

// PatternInfo describes a stored vibration pattern.
type PatternInfo struct {
	Identifier string        `json:"identifier"`
	Name       string        `json:"name"`
	Duration   time.Duration `json:"duration"`
	Loop       bool          `json:"loop,omitempty"`
}

// ToyboxData is the toy/device state of a user.
type ToyboxData struct {
	Patterns       []PatternInfo `json:"patterns,omitempty"`
	ActivePattern  string        `json:"activePattern,omitempty"`
	ActiveAlarms   []string      `json:"activeAlarms,omitempty"`
	ActiveTriggers []string      `json:"activeTriggers,omitempty"`
}

// ShockPerms is a shock-collar permission snapshot.
type ShockPerms struct {
	ShareCode          string        `json:"shareCode"`
	AllowShocks        bool          `json:"allowShocks"`
	AllowVibrations    bool          `json:"allowVibrations"`
	AllowBeeps         bool          `json:"allowBeeps"`
	MaxIntensity       int32         `json:"maxIntensity"`
	MaxDuration        int32         `json:"maxDuration"`
	MaxVibrateDuration time.Duration `json:"maxVibrateDuration"`
}

// ShockVariant selects which of the three shock snapshots a DTO targets.
type ShockVariant string

const (
	ShockOwnForPair ShockVariant = "own_for_pair"
	ShockPairGlobal ShockVariant = "pair_global"
	ShockPairForYou ShockVariant = "pair_for_you"
)

// CompositeData is sent once to a pair when it comes online.
type CompositeData struct {
	Appearance *AppearanceData      `json:"appearance,omitempty"`
	Wardrobe   *WardrobeData        `json:"wardrobe,omitempty"`
	Aliases    map[string]AliasData `json:"aliases,omitempty"` // keyed by recipient UID
	Toybox     *ToyboxData          `json:"toybox,omitempty"`
}

// Empty reports whether nothing is worth sending.
func (c CompositeData) Empty() bool {
	return c.Appearance == nil && c.Wardrobe == nil && len(c.Aliases) == 0 && c.Toybox == nil
}
