package domain

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryAccount   Category = "account"
	CategoryActivity  Category = "activity"
	CategoryUpdates   Category = "updates"
	CategoryMarketing Category = "marketing"
)

var Categories = []Category{CategoryAccount, CategoryActivity, CategoryUpdates, CategoryMarketing}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryAccount, CategoryActivity, CategoryUpdates, CategoryMarketing:
		return true
	}
	return false
}

type DigestFrequency string

const (
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
	DigestNever  DigestFrequency = "never"
)

func ValidDigestFrequency(f DigestFrequency) bool {
	return f == DigestDaily || f == DigestWeekly || f == DigestNever
}

// ChannelToggles are the per-medium master switches.
type ChannelToggles struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// CategoryPreference is one row of the category/channel matrix. A cell may be
// true only while the matching channel toggle is true.
type CategoryPreference struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

var timeOfDayRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeOfDay reports whether s is an HH:MM 24-hour clock value.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}

func minutesOfDay(s string) int {
	h, m, _ := strings.Cut(s, ":")
	hours, _ := strconv.Atoi(h)
	mins, _ := strconv.Atoi(m)
	return hours*60 + mins
}

// Contains reports whether t falls inside the window, bounds inclusive.
// When the end is earlier than the start the window wraps past midnight.
func (q QuietHours) Contains(t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	start := minutesOfDay(q.Start)
	end := minutesOfDay(q.End)

	if end < start {
		return now >= start || now <= end
	}
	return now >= start && now <= end
}

type NotificationSetting struct {
	ID              string
	UserID          string
	Channels        ChannelToggles
	Preferences     map[Category]CategoryPreference
	DigestFrequency DigestFrequency
	QuietHours      QuietHours
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DefaultNotificationSetting mirrors the defaults applied when a user's
// settings row is lazily created on first access.
func DefaultNotificationSetting(userID string) *NotificationSetting {
	return &NotificationSetting{
		UserID:   userID,
		Channels: ChannelToggles{Email: true, Push: true, SMS: false},
		Preferences: map[Category]CategoryPreference{
			CategoryAccount:   {Email: true, Push: true, SMS: true},
			CategoryActivity:  {Email: true, Push: true, SMS: false},
			CategoryUpdates:   {Email: true, Push: false, SMS: false},
			CategoryMarketing: {Email: false, Push: false, SMS: false},
		},
		DigestFrequency: DigestDaily,
		QuietHours:      QuietHours{Enabled: false, Start: "22:00", End: "07:00"},
	}
}

// UpdateChannelsInput toggles delivery channels; nil fields are untouched.
type UpdateChannelsInput struct {
	Email *bool
	Push  *bool
	SMS   *bool
}

type UpdatePreferenceInput struct {
	Email *bool
	Push  *bool
	SMS   *bool
}

type UpdateQuietHoursInput struct {
	Enabled *bool
	Start   *string
	End     *string
}

type NotificationSettingRepository interface {
	// FindOrCreate returns the user's settings, inserting defaults when no
	// row exists yet.
	FindOrCreate(ctx context.Context, userID string) (*NotificationSetting, error)
	Find(ctx context.Context, userID string) (*NotificationSetting, error)
	Save(ctx context.Context, setting *NotificationSetting) (*NotificationSetting, error)
	Delete(ctx context.Context, userID string) error
}
