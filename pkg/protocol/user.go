package protocol

import (
	"fmt"
	"time"
)

// MaxUIDLength bounds user identifiers accepted from the relay.
const MaxUIDLength = 64

// UserData is the stable identity of a remote account. Compared by UID.
type UserData struct {
	UID       string    `json:"uid"`
	Alias     string    `json:"alias,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// AliasOrUID returns the alias when set, otherwise the UID.
func (u UserData) AliasOrUID() string {
	if u.Alias != "" {
		return u.Alias
	}
	return u.UID
}

// Same reports whether both values identify the same account.
func (u UserData) Same(other UserData) bool {
	return u.UID == other.UID
}

// ValidateUID checks that a user identifier is present and not oversized.
func ValidateUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("user identifier is empty")
	}
	if len(uid) > MaxUIDLength {
		return fmt.Errorf("user identifier too long: %d chars (max %d)", len(uid), MaxUIDLength)
	}
	return nil
}

// RelationStatus is the relationship axis of a pair.
type RelationStatus string

const (
	RelationNone          RelationStatus = "none"
	RelationOneSided      RelationStatus = "one_sided"
	RelationBidirectional RelationStatus = "bidirectional"
)

// Paired reports whether the relation is anything but none.
func (s RelationStatus) Paired() bool {
	return s == RelationOneSided || s == RelationBidirectional
}
