package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultAppName is sent as the application name of every notification.
const DefaultAppName = "focusdesk"

// caller is the subset of dbus.BusObject the client needs.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Client sends notifications to the session notification server. Each
// completion replaces the previous one so they do not stack up.
type Client struct {
	mu     sync.Mutex
	obj    caller
	conn   *dbus.Conn
	logger *slog.Logger

	appName string
	timeout time.Duration
	lastID  uint32
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets how long notifications stay on screen. Zero uses the server default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithAppName overrides the application name.
func WithAppName(name string) Option {
	return func(c *Client) { c.appName = name }
}

// Connect opens a private session bus connection.
func Connect(opts ...Option) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	c := newClient(conn.Object(DBusName, DBusPath), opts...)
	c.conn = conn
	return c, nil
}

func newClient(obj caller, opts ...Option) *Client {
	c := &Client{
		obj:     obj,
		logger:  slog.Default(),
		appName: DefaultAppName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify shows a normal-urgency notification. The caller plays its own sound,
// so the server is asked not to.
func (c *Client) Notify(ctx context.Context, summary, body string) error {
	n := Notification{
		AppName:       c.appName,
		AppIcon:       "alarm-symbolic",
		Summary:       summary,
		Body:          body,
		ExpireTimeout: c.expireTimeout(),
	}
	n.SetUrgency(UrgencyNormal)
	n.SetHint("desktop-entry", c.appName)
	n.SetHint("suppress-sound", true)

	c.mu.Lock()
	n.ReplacesID = c.lastID
	c.mu.Unlock()

	id, err := c.Send(ctx, n)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.lastID = id
	c.mu.Unlock()
	return nil
}

func (c *Client) expireTimeout() int32 {
	if c.timeout <= 0 {
		return -1
	}
	return int32(c.timeout.Milliseconds())
}

// Send calls Notify and returns the id assigned by the server.
func (c *Client) Send(ctx context.Context, n Notification) (uint32, error) {
	call := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0, n.args()...)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}

	c.logger.Debug("sent notification", "id", id, "summary", n.Summary)
	return id, nil
}

// CloseNotification asks the server to close a notification.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	call := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id)
	if call.Err != nil {
		return fmt.Errorf("close notification %d: %w", id, call.Err)
	}
	return nil
}

// ServerInformation queries the running notification server.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	call := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0)
	if call.Err != nil {
		return info, fmt.Errorf("get server information: %w", call.Err)
	}
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return info, fmt.Errorf("get server information: %w", err)
	}
	return info, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
