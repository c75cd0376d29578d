package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name of the notification server.
	DBusBusName = "org.freedesktop.Notifications"
)

// Sender delivers notifications.
type Sender interface {
	Notify(ctx context.Context, n Notification) (uint32, error)
}

// caller is the part of dbus.BusObject the client uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// ServerInfo is the result of GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// Client talks to the notification server on the session bus.
type Client struct {
	obj    caller
	logger *slog.Logger
}

// NewClient connects to the session bus.
func NewClient(logger *slog.Logger) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return newClient(conn.Object(DBusBusName, DBusPath), logger), nil
}

func newClient(obj caller, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{obj: obj, logger: logger}
}

// Notify sends n and returns the server-assigned id.
func (c *Client) Notify(ctx context.Context, n Notification) (uint32, error) {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}

	call := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, n.Hints(), n.ExpireTimeout())

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}

	c.logger.Debug("notification sent", "id", id, "summary", n.Summary, "urgency", n.Urgency)
	return id, nil
}

// CloseNotification asks the server to close a notification.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	call := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id)
	if call.Err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, call.Err)
	}
	return nil
}

// ServerInformation queries the running notification server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0)
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return ServerInfo{}, fmt.Errorf("failed to get server information: %w", err)
	}
	return info, nil
}

// Capabilities lists the optional features the server supports.
func (c *Client) Capabilities(ctx context.Context) ([]string, error) {
	var caps []string
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetCapabilities", 0)
	if err := call.Store(&caps); err != nil {
		return nil, fmt.Errorf("failed to get capabilities: %w", err)
	}
	return caps, nil
}
