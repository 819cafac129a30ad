package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/accordhq/backend/internal/domain"
)

// EventNotification is the application-level event name connected clients
// receive for direct pushes.
const EventNotification = "notification"

// Suppression reasons surfaced in delivery outcomes.
const (
	ReasonChannelDisabled    = "channel/category disabled"
	ReasonQuietHours         = "quiet hours"
	ReasonPreferencesFailure = "preferences unavailable"
)

// Notification is the closed envelope every push carries.
type Notification struct {
	Type      domain.Category `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// Outcome reports what the dispatcher decided for one notification.
type Outcome struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

func sent() Outcome                  { return Outcome{Sent: true} }
func suppressed(reason string) Outcome { return Outcome{Sent: false, Reason: reason} }

// Dispatcher decides whether a notification reaches a user's open
// connections, consulting the user's preferences and the wall clock, and
// fans the payload out through the presence registry when it does.
type Dispatcher struct {
	settings domain.NotificationSettingRepository
	presence *Presence
	logger   *slog.Logger

	// now is the wall clock used for quiet-hours checks; overridable in tests.
	now func() time.Time
}

func NewDispatcher(settings domain.NotificationSettingRepository, presence *Presence, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		presence: presence,
		logger:   logger.With("component", "dispatcher"),
		now:      time.Now,
	}
}

// Deliver pushes a notification to every connection the target user has
// open, unless the user's preferences or quiet hours suppress it.
//
// An unknown category is a caller error and is returned as
// domain.ErrInvalidCategory before anything else happens. A preference
// store failure suppresses this delivery only; there is no retry and no
// offline queueing of missed notifications.
func (d *Dispatcher) Deliver(ctx context.Context, userID string, category domain.Category, n Notification) (Outcome, error) {
	if !domain.ValidCategory(category) {
		return Outcome{}, domain.ErrInvalidCategory
	}

	setting, err := d.settings.FindOrCreate(ctx, userID)
	if err != nil {
		d.logger.Error("failed to load notification settings", "user_id", userID, "error", err)
		return suppressed(ReasonPreferencesFailure), nil
	}

	if !setting.Channels.Push || !setting.Preferences[category].Push {
		return suppressed(ReasonChannelDisabled), nil
	}

	if setting.QuietHours.Enabled && setting.QuietHours.Contains(d.now()) {
		return suppressed(ReasonQuietHours), nil
	}

	n.Type = category
	if n.Timestamp.IsZero() {
		n.Timestamp = d.now().UTC()
	}

	// Snapshot-then-send: a connection closing mid-fanout is a silent no-op.
	// Zero open connections is still a sent outcome; delivery is best effort
	// and nothing is queued for offline users.
	for _, conn := range d.presence.HandlesFor(userID) {
		if err := conn.WriteEvent(EventNotification, n); err != nil {
			d.logger.Debug("dropped write to closed connection", "user_id", userID, "conn_id", conn.ID())
		}
	}

	return sent(), nil
}
