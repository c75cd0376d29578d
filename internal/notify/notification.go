package notify

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/tim/internal/config"
)

// Urgency levels per the freedesktop notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Defaults for notifications sent by tim.
const (
	DefaultAppName  = "tim"
	DefaultIcon     = "alarm-symbolic"
	CategoryTimer   = "x-tim.complete"
	SoundNameFinish = "complete"
)

// Notification is an outgoing Notify call.
type Notification struct {
	AppName    string
	ReplacesID uint32
	AppIcon    string
	Summary    string
	Body       string
	Actions    []string // Alternating key, label pairs

	Urgency      byte
	Category     string
	DesktopEntry string
	SoundName    string
	Transient    bool

	// Timeout is the expiry; 0 never expires, negative uses the server default
	Timeout time.Duration
}

// Hints builds the hints dictionary. Empty string hints are omitted.
func (n Notification) Hints() map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(n.Urgency),
	}
	if n.Category != "" {
		hints["category"] = dbus.MakeVariant(n.Category)
	}
	if n.DesktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(n.DesktopEntry)
	}
	if n.SoundName != "" {
		hints["sound-name"] = dbus.MakeVariant(n.SoundName)
	}
	if n.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}
	return hints
}

// ExpireTimeout converts Timeout to the milliseconds Notify expects.
func (n Notification) ExpireTimeout() int32 {
	if n.Timeout < 0 {
		return -1
	}
	return int32(n.Timeout / time.Millisecond)
}

// Completion builds the timer-finished notification. When a chime file plays
// separately, no sound is requested from the server.
func Completion(cfg config.NotificationConfig, chime bool) Notification {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		timeout = -1
	}

	n := Notification{
		AppName:      DefaultAppName,
		AppIcon:      DefaultIcon,
		Summary:      cfg.Summary,
		Body:         cfg.Body,
		Urgency:      cfg.UrgencyLevel(),
		Category:     CategoryTimer,
		DesktopEntry: DefaultAppName,
		Timeout:      timeout,
	}
	if !chime {
		n.SoundName = SoundNameFinish
	}
	return n
}
