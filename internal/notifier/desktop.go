package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"pagenine/pkg/logx"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = "org.freedesktop.Notifications.Notify"

	DefaultAppName = "pagenine"
)

type DesktopConfig struct {
	AppName string
	Icon    string
}

// Desktop shows a notification bubble: the summary is the alert message and
// the body is the thread title.
type Desktop struct {
	cfg DesktopConfig
	log logx.Logger

	connect func(ctx context.Context) (*dbus.Conn, error)
}

func NewDesktop(cfg DesktopConfig, log logx.Logger) *Desktop {
	if strings.TrimSpace(cfg.AppName) == "" {
		cfg.AppName = DefaultAppName
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Desktop{
		cfg: cfg,
		log: log,
		connect: func(ctx context.Context) (*dbus.Conn, error) {
			return dbus.ConnectSessionBus(dbus.WithContext(ctx))
		},
	}
}

func (d *Desktop) Notify(ctx context.Context, message, title string) error {
	conn, err := d.connect(ctx)
	if err != nil {
		return fmt.Errorf("desktop: session bus: %w", err)
	}
	defer conn.Close()

	var id uint32
	obj := conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))
	call := obj.CallWithContext(ctx, notificationsMethod, 0, d.args(message, title)...)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("desktop: notify: %w", err)
	}
	d.log.Debug("desktop notification shown", logx.Int64("id", int64(id)))
	return nil
}

// args follows the Notify signature (susssasa{sv}i).
func (d *Desktop) args(summary, body string) []any {
	return []any{
		d.cfg.AppName,
		uint32(0), // replaces_id
		d.cfg.Icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1), // server default timeout
	}
}
