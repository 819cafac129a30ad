package realtime

import "testing"

func TestRegisterIsIdempotent(t *testing.T) {
	p := NewPresence()
	conn := newFakeConn("h1")

	p.Register("u1", conn)
	p.Register("u1", conn)

	if got := len(p.HandlesFor("u1")); got != 1 {
		t.Errorf("expected exactly one handle, got %d", got)
	}
}

func TestUnregisterLastHandleRemovesUser(t *testing.T) {
	p := NewPresence()
	p.Register("u1", newFakeConn("h1"))

	if !p.IsOnline("u1") {
		t.Fatal("expected user online after register")
	}

	p.Unregister("u1", "h1")

	if p.IsOnline("u1") {
		t.Error("expected user offline after last handle removed")
	}
	if p.OnlineCount() != 0 {
		t.Error("expected empty registry, no empty sets retained")
	}
}

func TestUnregisterKeepsRemainingHandles(t *testing.T) {
	p := NewPresence()
	p.Register("u1", newFakeConn("h1"))
	p.Register("u1", newFakeConn("h2"))

	p.Unregister("u1", "h1")

	if !p.IsOnline("u1") {
		t.Error("expected user still online with one handle left")
	}
	handles := p.HandlesFor("u1")
	if len(handles) != 1 || handles[0].ID() != "h2" {
		t.Errorf("expected only h2 to remain, got %v", handles)
	}
}

func TestUnregisterUnknownIsNoOp(t *testing.T) {
	p := NewPresence()
	p.Unregister("ghost", "h1")

	if p.IsOnline("ghost") {
		t.Error("unknown user must not appear online")
	}
}

func TestHandlesForSnapshotSurvivesDisconnect(t *testing.T) {
	p := NewPresence()
	conn := newFakeConn("h1")
	p.Register("u1", conn)

	snapshot := p.HandlesFor("u1")
	p.Unregister("u1", "h1")
	conn.Close()

	// The snapshot is still usable; writing to the closed handle fails
	// without panicking, which is all the dispatcher needs.
	if err := snapshot[0].WriteEvent("notification", nil); err == nil {
		t.Error("expected write to closed connection to fail")
	}
}
