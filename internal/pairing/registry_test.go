package pairing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

func TestRouteUnknownPair(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		call func() error
	}{
		{"ipc", func() error { return f.reg.RouteIPC(protocol.IPCUpdate{User: user("UX"), Data: ipc("x")}) }},
		{"appearance", func() error { return f.reg.RouteAppearance(protocol.AppearanceUpdate{User: user("UX")}) }},
		{"wardrobe", func() error { return f.reg.RouteWardrobe(protocol.WardrobeUpdate{User: user("UX")}) }},
		{"alias", func() error { return f.reg.RouteAlias(protocol.AliasUpdate{User: user("UX")}) }},
		{"toybox", func() error { return f.reg.RouteToybox(protocol.ToyboxUpdate{User: user("UX")}) }},
		{"shock", func() error { return f.reg.RouteShock(protocol.ShockUpdate{User: user("UX")}) }},
		{"online", func() error {
			return f.reg.MarkOnline(protocol.OnlineUserIdentDto{User: user("UX"), Ident: "i"})
		}},
		{"handle", func() error { return f.reg.CreateHandle(context.Background(), "UX") }},
		{"own pair perm", func() error {
			return f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("UX"), Key: "isPaused", Value: true})
		}},
		{"other global", func() error { return f.reg.ReplaceOtherGlobal(protocol.GlobalPermsDto{User: user("UX")}) }},
		{"other edit access", func() error { return f.reg.ReplaceOtherEditAccess(protocol.EditAccessDto{User: user("UX")}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrUnknownPair) {
				t.Errorf("err = %v, want ErrUnknownPair", err)
			}
		})
	}
	// Offline for an unknown pair is tolerated.
	f.reg.MarkOffline(user("UX"))
}

func TestAddOrUpdateRejectsEmptyUID(t *testing.T) {
	f := newFixture(t)
	if err := f.reg.AddOrUpdate(protocol.UserPairDto{}); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("err = %v, want ErrInvalidUser", err)
	}
}

func TestDestroyOnUnpair(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	f.addPair(t, "U3", protocol.RelationOneSided)
	f.online(t, "U2", "ident-1")

	f.reg.Remove(user("U2"))
	f.reg.Remove(user("U3"))

	v, ok := f.reg.Get("U2")
	if !ok {
		t.Fatal("online pair deleted on unpair")
	}
	if v.Status != protocol.RelationNone {
		t.Errorf("status = %v, want none", v.Status)
	}
	if _, ok := f.reg.Get("U3"); ok {
		t.Error("offline pair survived unpair")
	}
	if got := f.reg.DirectPairs(); len(got) != 0 {
		t.Errorf("DirectPairs = %v, want none", got)
	}

	f.reg.MarkOffline(user("U2"))
	if _, ok := f.reg.Get("U2"); ok {
		t.Error("unpaired pair survived offline")
	}
	if n := len(f.events.named(bus.EventPairRemoved)); n != 2 {
		t.Errorf("removed events = %d, want 2", n)
	}
}

func TestRepairBeforeOffline(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	f.online(t, "U2", "ident-1")
	f.reg.Remove(user("U2"))
	f.addPair(t, "U2", protocol.RelationOneSided)
	f.reg.MarkOffline(user("U2"))
	if _, ok := f.reg.Get("U2"); !ok {
		t.Error("re-paired pair deleted on offline")
	}
}

func TestGenerations(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	f.addPair(t, "U3", protocol.RelationNone)

	if got := f.reg.DirectPairs(); !cmp.Equal(got, []string{"U2"}) {
		t.Fatalf("DirectPairs = %v", got)
	}
	g0 := f.reg.Generation()

	// Data updates never touch membership.
	f.reg.RouteToybox(protocol.ToyboxUpdate{User: user("U2"), Data: &protocol.ToyboxData{ActivePattern: "p"}})
	f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "gagFeatures", Value: true})
	g1 := f.reg.Generation()
	if g1.Structure != g0.Structure || g1.Presence != g0.Presence {
		t.Errorf("data update moved structure/presence: %+v -> %+v", g0, g1)
	}
	if g1.Permissions != g0.Permissions+1 {
		t.Errorf("permissions gen = %d, want %d", g1.Permissions, g0.Permissions+1)
	}

	f.online(t, "U3", "i")
	g2 := f.reg.Generation()
	if g2.Presence <= g1.Presence || g2.Structure != g1.Structure {
		t.Errorf("online moved wrong counters: %+v -> %+v", g1, g2)
	}
	if got := f.reg.OnlineUIDs(); !cmp.Equal(got, []string{"U3"}) {
		t.Errorf("OnlineUIDs = %v", got)
	}

	f.addPair(t, "U3", protocol.RelationBidirectional)
	if got := f.reg.DirectPairs(); !cmp.Equal(got, []string{"U2", "U3"}) {
		t.Errorf("DirectPairs after status change = %v", got)
	}
}

func TestPausedView(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	if got := f.reg.PausedUIDs(); len(got) != 0 {
		t.Fatalf("PausedUIDs = %v", got)
	}
	f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "isPaused", Value: true})
	if got := f.reg.PausedUIDs(); !cmp.Equal(got, []string{"U2"}) {
		t.Errorf("PausedUIDs = %v", got)
	}
}

func TestPauseFlipInvalidatesProfile(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)

	f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "isPaused", Value: true})
	f.reg.ReplaceOtherPairPerms(protocol.PairPermsDto{User: user("U2"), Perms: protocol.PairPerms{IsPaused: true}})
	// No flip: same value again.
	f.reg.UpdateOtherPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "isPaused", Value: true})

	if diff := cmp.Diff([]string{"U2", "U2"}, f.profiles.uids); diff != "" {
		t.Errorf("invalidations (-want +got):\n%s", diff)
	}
	if n := len(f.events.named(bus.EventProfileInvalidated)); n != 2 {
		t.Errorf("profile events = %d, want 2", n)
	}
}

func TestInteropCoalescing(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)

	// Offline: no interop notification.
	f.reg.UpdateOtherPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "allowPositiveStatusTypes", Value: true})
	if n := len(f.events.named(bus.EventInteropChanged)); n != 0 {
		t.Fatalf("interop events while offline = %d", n)
	}

	f.online(t, "U2", "ident-1")
	if err := f.reg.CreateHandle(context.Background(), "U2"); err != nil {
		t.Fatal(err)
	}
	perms := f.pair(t, "U2").OtherPairPerms()
	perms.AllowNegativeStatusTypes = true
	perms.AllowSpecialStatusTypes = true
	perms.AllowPermanentStatuses = true
	perms.GagFeatures = true
	if err := f.reg.ReplaceOtherPairPerms(protocol.PairPermsDto{User: user("U2"), Perms: perms}); err != nil {
		t.Fatal(err)
	}

	events := f.events.named(bus.EventInteropChanged)
	if len(events) != 1 {
		t.Fatalf("interop events = %d, want 1", len(events))
	}
	p := events[0].Payload.(bus.InteropChangedPayload)
	if p.UID != "U2" || p.Name != f.factory.all()[0].Name() {
		t.Errorf("payload = %+v", p)
	}

	changed := f.events.named(bus.EventPermissionsChanged)
	last := changed[len(changed)-1].Payload.(bus.PermissionsChangedPayload)
	want := []string{"allowNegativeStatusTypes", "allowPermanentStatuses", "allowSpecialStatusTypes", "gagFeatures"}
	if diff := cmp.Diff(want, last.Keys); diff != "" {
		t.Errorf("changed keys (-want +got):\n%s", diff)
	}
}

func TestHardcoreActions(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)

	// Pair U2 had forced the local user to follow, then released.
	f.reg.UpdateOwnGlobal(protocol.PermChangeDto{User: user("U1"), Enactor: user("U2"), Key: "forcedFollow", Value: "U2|1"})
	f.reg.UpdateOwnGlobal(protocol.PermChangeDto{User: user("U1"), Enactor: user("U2"), Key: "forcedFollow", Value: ""})

	// The local user had blindfolded U2, then U2's blindfold was lifted.
	f.reg.UpdateOtherGlobal(protocol.PermChangeDto{User: user("U2"), Key: "forcedBlindfold", Value: "U1"})
	f.reg.UpdateOtherGlobal(protocol.PermChangeDto{User: user("U2"), Key: "forcedBlindfold", Value: ""})

	// Somebody else's restriction on U2 is none of our business.
	f.reg.UpdateOtherGlobal(protocol.PermChangeDto{User: user("U2"), Key: "forcedStay", Value: "U9"})
	f.reg.UpdateOtherGlobal(protocol.PermChangeDto{User: user("U2"), Key: "forcedStay", Value: ""})

	// U2 revokes the local user's permission to hide their chat.
	f.reg.UpdateOtherPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "allowHidingChatBoxes", Value: true})
	f.reg.UpdateOtherPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "allowHidingChatBoxes", Value: false})

	// Own allowances revoked by the local user raise nothing.
	f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "allowForcedSit", Value: true})
	f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "allowForcedSit", Value: false})

	var got []bus.HardcoreActionPayload
	for _, e := range f.events.named(bus.EventHardcoreAction) {
		got = append(got, e.Payload.(bus.HardcoreActionPayload))
	}
	want := []bus.HardcoreActionPayload{
		{Action: "forced_follow", Enactor: "U2", Target: "U1"},
		{Action: "forced_blindfold", Enactor: "U1", Target: "U2"},
		{Action: "chat_boxes_hidden", Enactor: "U2", Target: "U1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("hardcore events (-want +got):\n%s", diff)
	}
	_, globals := f.reg.Self()
	if globals.ForcedFollow != "" {
		t.Errorf("ForcedFollow = %q, want cleared", globals.ForcedFollow)
	}
}

func TestPermissionFailuresAreNonFatal(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	before, _ := f.reg.Get("U2")

	if err := f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "fieldFromTheFuture", Value: 1}); err != nil {
		t.Errorf("unknown field err = %v, want nil", err)
	}
	if err := f.reg.UpdateOwnPairPerm(protocol.PermChangeDto{User: user("U2"), Key: "maxIntensity", Value: "high"}); err != nil {
		t.Errorf("conversion err = %v, want nil", err)
	}
	if err := f.reg.UpdateOtherEditAccess(protocol.PermChangeDto{User: user("U2"), Key: "gagFeaturesAllowed", Value: true}); err != nil {
		t.Fatal(err)
	}

	after, _ := f.reg.Get("U2")
	if diff := cmp.Diff(before.OwnPairPerms, after.OwnPairPerms); diff != "" {
		t.Errorf("own perms changed (-before +after):\n%s", diff)
	}
	if !after.OtherEditAccess.GagFeaturesAllowed {
		t.Error("edit access not applied")
	}
	if n := len(f.events.named(bus.EventPermissionsChanged)); n != 1 {
		t.Errorf("permission events = %d, want 1", n)
	}
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, uid := range []string{"U2", "U3", "U4"} {
		f.addPair(t, uid, protocol.RelationBidirectional)
		f.online(t, uid, "i-"+uid)
		if err := f.reg.CreateHandle(ctx, uid); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.reg.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if f.reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", f.reg.Len())
	}
	for _, h := range f.factory.all() {
		if h.disposed.Load() != 1 {
			t.Errorf("%s disposed %d times", h.Name(), h.disposed.Load())
		}
	}
	if got := f.reg.OnlineUIDs(); len(got) != 0 {
		t.Errorf("OnlineUIDs = %v after clear", got)
	}
}

// Pair P starts unknown. A pair DTO adds it, it comes online, IPC arrives
// before the handle, the handle appears and the data is applied. The same
// data arriving again is applied again: inbound apply is unconditional.
func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "P", protocol.RelationBidirectional)
	if got := f.reg.DirectPairs(); !cmp.Equal(got, []string{"P"}) {
		t.Fatalf("DirectPairs = %v", got)
	}

	f.online(t, "P", "T")
	if v, _ := f.reg.Get("P"); v.Presence != PresenceOnline || v.Ident != "T" {
		t.Fatalf("after online: %v %q", v.Presence, v.Ident)
	}

	f.reg.RouteIPC(protocol.IPCUpdate{User: user("P"), Data: ipc("B1")})
	f.clock.WaitForTimers(1)
	if err := f.reg.CreateHandle(context.Background(), "P"); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(100 * time.Millisecond)
	h := f.factory.all()[0]
	waitApplied(t, h)

	f.reg.RouteIPC(protocol.IPCUpdate{User: user("P"), Data: ipc("B1")})
	if got := waitApplied(t, h); got.StatusManager != "B1" {
		t.Errorf("reapplied %q", got.StatusManager)
	}
	if n := h.applies.Load(); n != 2 {
		t.Errorf("applies = %d, want 2", n)
	}
}

func TestReleaseHandleKeepsPairOnline(t *testing.T) {
	f := newFixture(t)
	f.addPair(t, "U2", protocol.RelationBidirectional)
	f.online(t, "U2", "ident-1")
	if err := f.reg.CreateHandle(context.Background(), "U2"); err != nil {
		t.Fatal(err)
	}
	if err := f.reg.RouteIPC(protocol.IPCUpdate{User: user("U2"), Data: ipc("m1")}); err != nil {
		t.Fatal(err)
	}
	first := f.factory.all()[0]
	waitApplied(t, first)

	if err := f.reg.ReleaseHandle("U2"); err != nil {
		t.Fatalf("ReleaseHandle: %v", err)
	}
	if got := first.disposed.Load(); got != 1 {
		t.Errorf("disposed = %d, want 1", got)
	}
	if got := f.reg.VisibleUIDs(); len(got) != 0 {
		t.Errorf("VisibleUIDs = %v, want empty", got)
	}
	if diff := cmp.Diff([]string{"U2"}, f.reg.OnlineUIDs()); diff != "" {
		t.Errorf("OnlineUIDs (-want +got):\n%s", diff)
	}
	if got := f.pair(t, "U2").Presence(); got != PresenceOnline {
		t.Errorf("presence = %v, want online", got)
	}
	if got := len(f.events.named(bus.EventPairHidden)); got != 1 {
		t.Errorf("hidden events = %d, want 1", got)
	}

	// Releasing again is a no-op.
	if err := f.reg.ReleaseHandle("U2"); err != nil {
		t.Fatal(err)
	}
	if got := len(f.events.named(bus.EventPairHidden)); got != 1 {
		t.Errorf("hidden events after second release = %d, want 1", got)
	}

	// Back in range: the new handle gets the stored data.
	if err := f.reg.CreateHandle(context.Background(), "U2"); err != nil {
		t.Fatal(err)
	}
	second := f.factory.all()[1]
	if got := waitApplied(t, second); got.StatusManager != "m1" {
		t.Errorf("reapplied = %+v, want m1", got)
	}
	if diff := cmp.Diff([]string{"U2"}, f.reg.VisibleUIDs()); diff != "" {
		t.Errorf("VisibleUIDs (-want +got):\n%s", diff)
	}
}

func TestReleaseHandleUnknownPair(t *testing.T) {
	f := newFixture(t)
	if err := f.reg.ReleaseHandle("UX"); !errors.Is(err, ErrUnknownPair) {
		t.Errorf("err = %v, want ErrUnknownPair", err)
	}
}
