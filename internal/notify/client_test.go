package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	args   []any
}

// fakeBus answers D-Bus calls with canned bodies.
type fakeBus struct {
	calls  []recordedCall
	nextID uint32
	err    error
	body   []any
}

func (b *fakeBus) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	b.calls = append(b.calls, recordedCall{method: method, args: args})
	if b.err != nil {
		return &dbus.Call{Err: b.err}
	}
	if b.body != nil {
		return &dbus.Call{Body: b.body}
	}
	b.nextID++
	return &dbus.Call{Body: []any{b.nextID}}
}

func TestClient_NotifyArguments(t *testing.T) {
	bus := &fakeBus{}
	c := newClient(bus, WithTimeout(10*time.Second))

	require.NoError(t, c.Notify(context.Background(), "Time is up", "25 minute focus session finished"))

	require.Len(t, bus.calls, 1)
	call := bus.calls[0]
	assert.Equal(t, DBusInterface+".Notify", call.method)
	require.Len(t, call.args, 8)
	assert.Equal(t, DefaultAppName, call.args[0])
	assert.Equal(t, uint32(0), call.args[1])
	assert.Equal(t, "Time is up", call.args[3])
	assert.Equal(t, "25 minute focus session finished", call.args[4])
	assert.Equal(t, []string{}, call.args[5])
	assert.Equal(t, int32(10000), call.args[7])

	hints := call.args[6].(map[string]dbus.Variant)
	assert.Equal(t, byte(UrgencyNormal), hints["urgency"].Value())
	assert.Equal(t, true, hints["suppress-sound"].Value())
	assert.Equal(t, DefaultAppName, hints["desktop-entry"].Value())
}

func TestClient_NotifyReplacesPrevious(t *testing.T) {
	bus := &fakeBus{}
	c := newClient(bus)

	require.NoError(t, c.Notify(context.Background(), "a", "b"))
	require.NoError(t, c.Notify(context.Background(), "a", "b"))

	require.Len(t, bus.calls, 2)
	assert.Equal(t, uint32(0), bus.calls[0].args[1])
	assert.Equal(t, uint32(1), bus.calls[1].args[1])
	assert.Equal(t, int32(-1), bus.calls[1].args[7], "no timeout means server default")
}

func TestClient_NotifyError(t *testing.T) {
	bus := &fakeBus{err: errors.New("org.freedesktop.DBus.Error.ServiceUnknown")}
	c := newClient(bus)

	err := c.Notify(context.Background(), "a", "b")
	assert.ErrorContains(t, err, "ServiceUnknown")
}

func TestClient_CloseNotification(t *testing.T) {
	bus := &fakeBus{}
	c := newClient(bus)

	require.NoError(t, c.CloseNotification(context.Background(), 7))
	assert.Equal(t, DBusInterface+".CloseNotification", bus.calls[0].method)
	assert.Equal(t, []any{uint32(7)}, bus.calls[0].args)
}

func TestClient_ServerInformation(t *testing.T) {
	bus := &fakeBus{body: []any{"dunst", "knopwob", "1.11.0", "1.2"}}
	c := newClient(bus)

	info, err := c.ServerInformation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{Name: "dunst", Vendor: "knopwob", Version: "1.11.0", SpecVersion: "1.2"}, info)
}

func TestClient_CloseWithoutConnection(t *testing.T) {
	c := newClient(&fakeBus{})
	assert.NoError(t, c.Close())
}

func TestNotification_ArgsDefaults(t *testing.T) {
	var n Notification
	args := n.args()

	assert.Equal(t, []string{}, args[5])
	assert.Equal(t, map[string]dbus.Variant{}, args[6])
}

func TestUrgency_String(t *testing.T) {
	assert.Equal(t, "low", UrgencyLow.String())
	assert.Equal(t, "normal", UrgencyNormal.String())
	assert.Equal(t, "critical", UrgencyCritical.String())
	assert.Equal(t, "unknown", Urgency(9).String())
}
