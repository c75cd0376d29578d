// Package notify sends desktop notifications through the
// org.freedesktop.Notifications D-Bus interface.
package notify
