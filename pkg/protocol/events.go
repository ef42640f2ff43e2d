package protocol

// Relay → client event names.
const (
	EventPairAdded   = "pair.added"   // UserPairDto
	EventPairRemoved = "pair.removed" // UserDto
	EventPairOnline  = "pair.online"  // OnlineUserIdentDto
	EventPairOffline = "pair.offline" // UserDto

	EventDataIPC        = "pair.data.ipc"        // IPCUpdate
	EventDataAppearance = "pair.data.appearance" // AppearanceUpdate
	EventDataWardrobe   = "pair.data.wardrobe"   // WardrobeUpdate
	EventDataAlias      = "pair.data.alias"      // AliasUpdate
	EventDataToybox     = "pair.data.toybox"     // ToyboxUpdate
	EventDataShock      = "pair.data.shock"      // ShockUpdate

	EventPermOwnGlobal          = "perm.own.global"            // PermChangeDto
	EventPermOwnPair            = "perm.own.pair"              // PermChangeDto
	EventPermOwnEditAccess      = "perm.own.edit_access"       // PermChangeDto
	EventPermOtherGlobal        = "perm.other.global"          // PermChangeDto
	EventPermOtherPair          = "perm.other.pair"            // PermChangeDto
	EventPermOtherEditAccess    = "perm.other.edit_access"     // PermChangeDto
	EventPermOwnGlobalAll       = "perm.own.global.all"        // GlobalPermsDto
	EventPermOwnPairAll         = "perm.own.pair.all"          // PairPermsDto
	EventPermOwnEditAccessAll   = "perm.own.edit_access.all"   // EditAccessDto
	EventPermOtherGlobalAll     = "perm.other.global.all"      // GlobalPermsDto
	EventPermOtherPairAll       = "perm.other.pair.all"        // PairPermsDto
	EventPermOtherEditAccessAll = "perm.other.edit_access.all" // EditAccessDto

	EventShutdown = "shutdown"
)
