package permissions

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

func TestPatchCoercions(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(p protocol.PairPerms) bool
	}{
		{"bool", "gagFeatures", true, func(p protocol.PairPerms) bool { return p.GagFeatures }},
		{"bool from string", "ownerLocks", "true", func(p protocol.PairPerms) bool { return p.OwnerLocks }},
		{"string", "triggerPhrase", "kneel", func(p protocol.PairPerms) bool { return p.TriggerPhrase == "kneel" }},
		{"int32 from uint64", "maxIntensity", uint64(75), func(p protocol.PairPerms) bool { return p.MaxIntensity == 75 }},
		{"int32 from float", "maxDuration", float64(12), func(p protocol.PairPerms) bool { return p.MaxDuration == 12 }},
		{"duration ticks", "maxLockTime", uint64(36_000_000_000), func(p protocol.PairPerms) bool { return p.MaxLockTime == time.Hour }},
		{"duration value", "maxStatusTime", 90 * time.Second, func(p protocol.PairPerms) bool { return p.MaxStatusTime == 90*time.Second }},
		{"duration string", "maxAllowedRestraintTime", "1h30m", func(p protocol.PairPerms) bool { return p.MaxRestraintTime == 90*time.Minute }},
		{"rune from byte", "startChar", byte('('), func(p protocol.PairPerms) bool { return p.StartChar == '(' }},
		{"rune from rune", "endChar", 'ä', func(p protocol.PairPerms) bool { return p.EndChar == 'ä' }},
		{"rune from string", "endChar", "]", func(p protocol.PairPerms) bool { return p.EndChar == ']' }},
		{"rune from uint64", "startChar", uint64('['), func(p protocol.PairPerms) bool { return p.StartChar == '[' }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p protocol.PairPerms
			if err := Pair.Patch(&p, tt.key, tt.value); err != nil {
				t.Fatalf("Patch(%q, %v) error: %v", tt.key, tt.value, err)
			}
			if !tt.check(p) {
				t.Errorf("Patch(%q, %v) did not set field: %+v", tt.key, tt.value, p)
			}
		})
	}
}

func TestPatchUnknownFieldLeavesSetUnchanged(t *testing.T) {
	p := protocol.PairPerms{GagFeatures: true, MaxIntensity: 10}
	before := p
	err := Pair.Patch(&p, "noSuchField", true)
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	if diff := cmp.Diff(before, p); diff != "" {
		t.Errorf("set mutated (-want +got):\n%s", diff)
	}
}

func TestPatchConversionFailure(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"maxIntensity", "loud"},
		{"maxIntensity", uint64(1 << 40)},
		{"maxIntensity", 1.5},
		{"maxLockTime", int64(-5)},
		{"maxLockTime", "forever"},
		{"startChar", "ab"},
		{"startChar", int64(-1)},
		{"gagFeatures", struct{}{}},
		{"triggerPhrase", []string{"x"}},
	}
	for _, tt := range tests {
		p := protocol.PairPerms{MaxIntensity: 3, MaxLockTime: time.Minute, StartChar: '(', GagFeatures: true, TriggerPhrase: "a"}
		before := p
		err := Pair.Patch(&p, tt.key, tt.value)
		if !errors.Is(err, ErrConvert) {
			t.Errorf("Patch(%q, %#v) err = %v, want ErrConvert", tt.key, tt.value, err)
		}
		if p != before {
			t.Errorf("Patch(%q, %#v) mutated set", tt.key, tt.value)
		}
	}
}

func TestPatchGlobalUint32(t *testing.T) {
	var g protocol.GlobalPerms
	if err := Global.Patch(&g, "garblerChannels", uint64(7)); err != nil {
		t.Fatal(err)
	}
	if g.GarblerChannels != 7 {
		t.Errorf("GarblerChannels = %d, want 7", g.GarblerChannels)
	}
	if err := Global.Patch(&g, "garblerChannels", int64(-1)); !errors.Is(err, ErrConvert) {
		t.Errorf("negative uint32 err = %v, want ErrConvert", err)
	}
}

func TestPatchFromDecodedDto(t *testing.T) {
	raw := `{"user":{"uid":"U2"},"enactor":{"uid":"U2"},"key":"maxLockTime","value":6000000000}`
	var dto protocol.PermChangeDto
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		t.Fatal(err)
	}
	var p protocol.PairPerms
	if err := Pair.Patch(&p, dto.Key, dto.Value); err != nil {
		t.Fatal(err)
	}
	if p.MaxLockTime != 10*time.Minute {
		t.Errorf("MaxLockTime = %v, want 10m", p.MaxLockTime)
	}
}

func TestGet(t *testing.T) {
	e := protocol.EditAccessPerms{GagFeaturesAllowed: true}
	v, err := EditAccess.Get(&e, "gagFeaturesAllowed")
	if err != nil {
		t.Fatal(err)
	}
	if v != true {
		t.Errorf("Get = %v, want true", v)
	}
	if _, err := EditAccess.Get(&e, "nope"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Get unknown err = %v", err)
	}
}

func TestDiff(t *testing.T) {
	a := protocol.PairPerms{IsPaused: false, MaxStatusTime: time.Minute, AllowBlindfold: true}
	b := a
	b.IsPaused = true
	b.AllowBlindfold = false
	got := Pair.Diff(&a, &b)
	want := []string{"allowBlindfold", "isPaused"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Diff (-want +got):\n%s", diff)
	}
	if got := Pair.Diff(&a, &a); len(got) != 0 {
		t.Errorf("Diff(a, a) = %v, want empty", got)
	}
}

func TestTablesCoverEveryField(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		typ  any
	}{
		{"global", Global.Keys(), protocol.GlobalPerms{}},
		{"pair", Pair.Keys(), protocol.PairPerms{}},
		{"editAccess", EditAccess.Keys(), protocol.EditAccessPerms{}},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.typ)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		if len(m) != len(tt.keys) {
			t.Errorf("%s: %d json keys, table has %d", tt.name, len(m), len(tt.keys))
		}
		for _, k := range tt.keys {
			if _, ok := m[k]; !ok {
				t.Errorf("%s: table key %q not a json field", tt.name, k)
			}
		}
	}
}

func TestFieldClasses(t *testing.T) {
	if !IsPauseField("isPaused") || IsPauseField("gagFeatures") {
		t.Error("IsPauseField misclassified")
	}
	for _, k := range []string{"allowPositiveStatusTypes", "maxStatusTime", "allowRemovingStatuses"} {
		if !IsStatusInteropField(k) {
			t.Errorf("IsStatusInteropField(%q) = false", k)
		}
		if _, ok := Pair.Lookup(k); !ok {
			t.Errorf("interop key %q missing from Pair table", k)
		}
	}
	for k := range pairActions {
		if _, ok := Pair.Lookup(k); !ok {
			t.Errorf("pair action key %q missing from Pair table", k)
		}
	}
	for k := range globalActions {
		f, ok := Global.Lookup(k)
		if !ok || f.Kind != KindString {
			t.Errorf("global action key %q not a string field", k)
		}
	}
	if got := Enactor("U7|flags"); got != "U7" {
		t.Errorf("Enactor = %q, want U7", got)
	}
	if got := Enactor("U7"); got != "U7" {
		t.Errorf("Enactor = %q, want U7", got)
	}
}
