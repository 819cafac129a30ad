package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/accordhq/backend/internal/domain"
)

func newDispatchFixture() (*Dispatcher, *mockSettingsRepo, *Presence) {
	settings := newMockSettingsRepo()
	presence := NewPresence()
	d := NewDispatcher(settings, presence, newTestLogger())
	return d, settings, presence
}

func at(hour, min int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
	}
}

func TestDeliverDefaultPreferences(t *testing.T) {
	d, _, presence := newDispatchFixture()
	conn := newFakeConn("h1")
	presence.Register("u1", conn)

	outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{
		Title:   "Password changed",
		Message: "Your password was updated",
	})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if !outcome.Sent {
		t.Fatalf("expected sent, got suppressed(%s)", outcome.Reason)
	}

	events := conn.received()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Event != EventNotification {
		t.Errorf("unexpected event name %q", events[0].Event)
	}
	n, ok := events[0].Data.(Notification)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[0].Data)
	}
	if n.Type != domain.CategoryAccount || n.Title != "Password changed" {
		t.Errorf("payload mismatch: %+v", n)
	}
	if n.Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped")
	}
}

func TestDeliverInvalidCategory(t *testing.T) {
	d, _, _ := newDispatchFixture()

	_, err := d.Deliver(context.Background(), "u1", "gossip", Notification{})
	if !errors.Is(err, domain.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestDeliverSuppressedWhenPushChannelDisabled(t *testing.T) {
	d, settings, presence := newDispatchFixture()
	conn := newFakeConn("h1")
	presence.Register("u1", conn)

	s := domain.DefaultNotificationSetting("u1")
	s.Channels.Push = false
	for _, cat := range domain.Categories {
		pref := s.Preferences[cat]
		pref.Push = false
		s.Preferences[cat] = pref
	}
	settings.Save(context.Background(), s)

	outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{Title: "x"})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if outcome.Sent || outcome.Reason != ReasonChannelDisabled {
		t.Errorf("expected suppressed(%s), got %+v", ReasonChannelDisabled, outcome)
	}
	if len(conn.received()) != 0 {
		t.Error("expected zero events on suppression")
	}
}

func TestDeliverSuppressedWhenCategoryCellDisabled(t *testing.T) {
	d, _, _ := newDispatchFixture()

	// Default matrix: updates.push is false while the push channel is on.
	outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryUpdates, Notification{Title: "x"})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if outcome.Sent || outcome.Reason != ReasonChannelDisabled {
		t.Errorf("expected suppressed(%s), got %+v", ReasonChannelDisabled, outcome)
	}
}

func TestQuietHoursWrapWindow(t *testing.T) {
	d, settings, _ := newDispatchFixture()

	s := domain.DefaultNotificationSetting("u1")
	s.QuietHours = domain.QuietHours{Enabled: true, Start: "22:00", End: "07:00"}
	settings.Save(context.Background(), s)

	cases := []struct {
		name       string
		hour, min  int
		suppressed bool
	}{
		{"inside after midnight start", 23, 30, true},
		{"inside before morning end", 6, 59, true},
		{"start boundary inclusive", 22, 0, true},
		{"end boundary inclusive", 7, 0, true},
		{"midday clear", 12, 0, false},
		{"just after end", 7, 1, false},
		{"just before start", 21, 59, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d.now = at(tc.hour, tc.min)
			outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{Title: "x"})
			if err != nil {
				t.Fatalf("deliver failed: %v", err)
			}
			if tc.suppressed {
				if outcome.Sent || outcome.Reason != ReasonQuietHours {
					t.Errorf("expected suppressed(%s), got %+v", ReasonQuietHours, outcome)
				}
			} else if !outcome.Sent {
				t.Errorf("expected sent, got suppressed(%s)", outcome.Reason)
			}
		})
	}
}

func TestQuietHoursNonWrapWindow(t *testing.T) {
	d, settings, _ := newDispatchFixture()

	s := domain.DefaultNotificationSetting("u1")
	s.QuietHours = domain.QuietHours{Enabled: true, Start: "09:00", End: "17:00"}
	settings.Save(context.Background(), s)

	d.now = at(9, 0)
	if outcome, _ := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{}); outcome.Sent {
		t.Error("start boundary should suppress")
	}
	d.now = at(17, 0)
	if outcome, _ := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{}); outcome.Sent {
		t.Error("end boundary should suppress")
	}
	d.now = at(20, 0)
	if outcome, _ := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{}); !outcome.Sent {
		t.Error("outside window should send")
	}
}

func TestDeliverToOfflineUserStillSent(t *testing.T) {
	d, _, _ := newDispatchFixture()

	outcome, err := d.Deliver(context.Background(), "nobody-home", domain.CategoryAccount, Notification{Title: "x"})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if !outcome.Sent {
		t.Errorf("offline delivery is best effort and still sent, got %+v", outcome)
	}
}

func TestDeliverFansOutToAllDevices(t *testing.T) {
	d, _, presence := newDispatchFixture()
	desktop := newFakeConn("h-desktop")
	phone := newFakeConn("h-phone")
	presence.Register("u1", desktop)
	presence.Register("u1", phone)

	if _, err := d.Deliver(context.Background(), "u1", domain.CategoryActivity, Notification{Title: "x"}); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	if len(desktop.received()) != 1 || len(phone.received()) != 1 {
		t.Error("expected every registered device to receive the notification")
	}
}

func TestDeliverSurvivesClosedHandle(t *testing.T) {
	d, _, presence := newDispatchFixture()
	live := newFakeConn("h-live")
	dead := newFakeConn("h-dead")
	presence.Register("u1", live)
	presence.Register("u1", dead)
	dead.Close()

	outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{Title: "x"})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if !outcome.Sent {
		t.Errorf("closed handle must be a silent no-op, got %+v", outcome)
	}
	if len(live.received()) != 1 {
		t.Error("expected surviving handle to receive the event")
	}
}

func TestDeliverStoreFailureSuppresses(t *testing.T) {
	d, settings, _ := newDispatchFixture()
	settings.findErr = errors.New("connection refused")

	outcome, err := d.Deliver(context.Background(), "u1", domain.CategoryAccount, Notification{Title: "x"})
	if err != nil {
		t.Fatalf("store failure must not surface as an error: %v", err)
	}
	if outcome.Sent || outcome.Reason != ReasonPreferencesFailure {
		t.Errorf("expected suppressed(%s), got %+v", ReasonPreferencesFailure, outcome)
	}
}
