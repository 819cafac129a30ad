package realtime

import "testing"

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRooms()
	conn := newFakeConn("h1")

	r.Join(TicketRoom("t1"), conn)
	r.Join(TicketRoom("t1"), conn)

	if got := r.MemberCount(TicketRoom("t1")); got != 1 {
		t.Errorf("expected one member, got %d", got)
	}
}

func TestBroadcastReachesAllMembersAcrossUsers(t *testing.T) {
	r := NewRooms()
	owner := newFakeConn("h-owner")
	agent := newFakeConn("h-agent")
	outsider := newFakeConn("h-outsider")

	r.Join(TicketRoom("t1"), owner)
	r.Join(TicketRoom("t1"), agent)
	r.Join(TicketRoom("t2"), outsider)

	r.Broadcast(TicketRoom("t1"), "ticket_message", map[string]string{"ticketId": "t1"})

	if len(owner.received()) != 1 || len(agent.received()) != 1 {
		t.Error("expected both ticket participants to receive the broadcast")
	}
	if len(outsider.received()) != 0 {
		t.Error("expected member of another room to receive nothing")
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	r := NewRooms()
	conn := newFakeConn("h1")
	r.Join(TicketRoom("t1"), conn)
	r.Leave(TicketRoom("t1"), conn.ID())

	r.Broadcast(TicketRoom("t1"), "ticket_message", nil)

	if len(conn.received()) != 0 {
		t.Error("expected no events after leave")
	}
	if r.MemberCount(TicketRoom("t1")) != 0 {
		t.Error("expected empty room to be dropped")
	}
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	r := NewRooms()
	r.Leave("ticket:none", "h1")
}

func TestLeaveAllClearsEveryMembership(t *testing.T) {
	r := NewRooms()
	conn := newFakeConn("h1")
	r.Join(TicketRoom("t1"), conn)
	r.Join(TicketRoom("t2"), conn)
	r.Join(SupportInboxRoom, conn)

	r.LeaveAll(conn.ID())

	for _, room := range []string{TicketRoom("t1"), TicketRoom("t2"), SupportInboxRoom} {
		if r.MemberCount(room) != 0 {
			t.Errorf("expected %s to be empty after LeaveAll", room)
		}
	}
}

func TestBroadcastSkipsClosedConnections(t *testing.T) {
	r := NewRooms()
	live := newFakeConn("h-live")
	dead := newFakeConn("h-dead")
	r.Join(TicketRoom("t1"), live)
	r.Join(TicketRoom("t1"), dead)
	dead.Close()

	r.Broadcast(TicketRoom("t1"), "ticket_message", nil)

	if len(live.received()) != 1 {
		t.Error("expected live connection to receive the event")
	}
}
