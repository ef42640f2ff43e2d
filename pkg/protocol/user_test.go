package protocol

import (
	"strings"
	"testing"
)

func TestValidateUID(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		wantErr bool
	}{
		{"empty", "", true},
		{"normal", "ABCDEF123", false},
		{"max_length", strings.Repeat("a", MaxUIDLength), false},
		{"too_long", strings.Repeat("a", MaxUIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUID(tt.uid)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUID(%d chars) error = %v, wantErr %v", len(tt.uid), err, tt.wantErr)
			}
		})
	}
}

func TestRelationStatusPaired(t *testing.T) {
	if RelationNone.Paired() {
		t.Error("none should not count as paired")
	}
	if !RelationOneSided.Paired() || !RelationBidirectional.Paired() {
		t.Error("one_sided and bidirectional should count as paired")
	}
}

func TestUserDataAliasOrUID(t *testing.T) {
	if got := (UserData{UID: "U1"}).AliasOrUID(); got != "U1" {
		t.Errorf("AliasOrUID() = %q, want U1", got)
	}
	if got := (UserData{UID: "U1", Alias: "kitty"}).AliasOrUID(); got != "kitty" {
		t.Errorf("AliasOrUID() = %q, want kitty", got)
	}
}
