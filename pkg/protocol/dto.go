package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UserDto addresses a single user.
type UserDto struct {
	User UserData `json:"user"`
}

// UserPairDto describes a pair relationship in full.
type UserPairDto struct {
	User            UserData        `json:"user"`
	Status          RelationStatus  `json:"status"`
	OwnPairPerms    PairPerms       `json:"ownPairPerms"`
	OwnEditAccess   EditAccessPerms `json:"ownEditAccess"`
	OtherGlobals    GlobalPerms     `json:"otherGlobals"`
	OtherPairPerms  PairPerms       `json:"otherPairPerms"`
	OtherEditAccess EditAccessPerms `json:"otherEditAccess"`
}

// OnlineUserIdentDto announces a pair coming online with its session ident.
type OnlineUserIdentDto struct {
	User  UserData `json:"user"`
	Ident string   `json:"ident"`
}

// DataUpdate carries one category of data about User, sent by Enactor.
// Data is nil when the relay dropped the payload.
type DataUpdate[T any] struct {
	User    UserData       `json:"user"`
	Enactor UserData       `json:"enactor"`
	Data    *T             `json:"data"`
	Kind    DataUpdateKind `json:"kind"`
}

type (
	IPCUpdate        = DataUpdate[IPCData]
	AppearanceUpdate = DataUpdate[AppearanceData]
	WardrobeUpdate   = DataUpdate[WardrobeData]
	AliasUpdate      = DataUpdate[AliasData]
	ToyboxUpdate     = DataUpdate[ToyboxData]
)

// ShockUpdate carries a shock permission snapshot for one variant.
type ShockUpdate struct {
	User    UserData     `json:"user"`
	Variant ShockVariant `json:"variant"`
	Data    *ShockPerms  `json:"data"`
}

// PermChangeDto changes a single permission field. User is the pair the
// change concerns (or the local user for own-global changes); Enactor is
// who made it.
type PermChangeDto struct {
	User    UserData `json:"user"`
	Enactor UserData `json:"enactor"`
	Key     string   `json:"key"`
	Value   any      `json:"value"`
}

// UnmarshalJSON decodes Value without losing integer precision:
// non-negative integers become uint64, negative ones int64.
func (d *PermChangeDto) UnmarshalJSON(data []byte) error {
	var raw struct {
		User    UserData        `json:"user"`
		Enactor UserData        `json:"enactor"`
		Key     string          `json:"key"`
		Value   json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.User = raw.User
	d.Enactor = raw.Enactor
	d.Key = raw.Key
	d.Value = nil
	if len(raw.Value) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	d.Value = NormalizeValue(v)
	return nil
}

// NormalizeValue converts a json.Number into the narrowest lossless Go
// number: uint64 for non-negative integers, int64 for negative ones,
// float64 otherwise. Other values pass through.
func NormalizeValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	s := n.String()
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

// GlobalPermsDto replaces a whole global permission set.
type GlobalPermsDto struct {
	User    UserData    `json:"user"`
	Enactor UserData    `json:"enactor"`
	Perms   GlobalPerms `json:"perms"`
}

// PairPermsDto replaces a whole pair permission set.
type PairPermsDto struct {
	User    UserData  `json:"user"`
	Enactor UserData  `json:"enactor"`
	Perms   PairPerms `json:"perms"`
}

// EditAccessDto replaces a whole edit-access set.
type EditAccessDto struct {
	User    UserData        `json:"user"`
	Enactor UserData        `json:"enactor"`
	Access  EditAccessPerms `json:"access"`
}
