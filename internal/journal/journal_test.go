package journal

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/nextlevelbuilder/gopair/internal/bus"
	"github.com/nextlevelbuilder/gopair/internal/clock"
)

func openTest(t *testing.T, clk clock.Clock) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"), clk)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndQuery(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := openTest(t, clk)
	ctx := context.Background()

	for _, e := range []Entry{
		{Kind: KindPermissions, UID: "U2", Enactor: "U2"},
		{Kind: KindHardcore, UID: "U1", Enactor: "U2"},
		{Kind: KindPermissions, UID: "U3", Enactor: "U1"},
	} {
		if _, err := s.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
		clk.Advance(time.Second)
	}

	all, err := s.Recent(ctx, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].UID != "U3" {
		t.Fatalf("Recent = %+v, want 3 newest-first", all)
	}
	if all[0].Detail != "{}" {
		t.Errorf("default detail = %q", all[0].Detail)
	}
	if !all[2].At().Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("oldest At = %v", all[2].At())
	}

	perms, _ := s.Recent(ctx, Query{Kind: KindPermissions})
	if len(perms) != 2 {
		t.Errorf("permissions entries = %d, want 2", len(perms))
	}
	u1, _ := s.Recent(ctx, Query{UID: "U1"})
	if len(u1) != 1 || u1[0].Kind != KindHardcore {
		t.Errorf("U1 entries = %+v", u1)
	}
	limited, _ := s.Recent(ctx, Query{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d", len(limited))
	}
}

func TestPrune(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_000_000, 0))
	s := openTest(t, clk)
	ctx := context.Background()
	s.Record(ctx, Entry{Kind: KindPair, UID: "old"})
	clk.Advance(48 * time.Hour)
	s.Record(ctx, Entry{Kind: KindPair, UID: "new"})

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	left, _ := s.Recent(ctx, Query{})
	if len(left) != 1 || left[0].UID != "new" {
		t.Errorf("left = %+v", left)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Record(context.Background(), Entry{Kind: KindPair, UID: "U2"})
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, _ := s.Recent(context.Background(), Query{})
	if len(got) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(got))
	}
}

func TestRecorder(t *testing.T) {
	s := openTest(t, nil)
	r := NewRecorder(s, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	r.Handle(bus.Event{Name: bus.EventHardcoreAction, Payload: bus.HardcoreActionPayload{
		Action: "forced_follow", State: true, Enactor: "U2", Target: "U1",
	}})
	r.Handle(bus.Event{Name: bus.EventPermissionsChanged, Payload: bus.PermissionsChangedPayload{
		UID: "U2", Set: "own.pair", Keys: []string{"isPaused"}, Enactor: "U1",
	}})
	r.Handle(bus.Event{Name: bus.EventPairOnline, Payload: bus.PairPayload{UID: "U2"}}) // not journaled
	r.Handle(bus.Event{Name: bus.EventPairAdded, Payload: bus.PairPayload{UID: "U4"}})
	r.Handle(bus.Event{Name: bus.EventRefresh, Payload: bus.RefreshPayload{UIDs: []string{"U2"}}})

	cancel()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop")
	}

	got, err := s.Recent(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3: %+v", len(got), got)
	}
	kinds := map[string]Entry{}
	for _, e := range got {
		kinds[e.Kind] = e
	}
	hc := kinds[KindHardcore]
	if hc.UID != "U1" || hc.Enactor != "U2" {
		t.Errorf("hardcore entry = %+v", hc)
	}
	var ev struct {
		Name    string                 `json:"name"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal([]byte(hc.Detail), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Name != bus.EventHardcoreAction || ev.Payload["action"] != "forced_follow" {
		t.Errorf("detail = %s", hc.Detail)
	}
}
