package wl_test

import (
	"os"
	"testing"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/internal/wltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bind[T any](t *testing.T, registry *wl.Registry, is func(wl.Interface) bool, bind func(*wl.Registry, uint32, uint32) T) T {
	t.Helper()

	for name, i := range registry.Globals() {
		if is(i) {
			return bind(registry, name, i.Version)
		}
	}
	require.FailNow(t, "global not advertised")
	panic("unreachable")
}

func TestRegistry(t *testing.T) {
	_, client := wltest.New(t,
		wltest.Global{Interface: "wl_compositor", Version: 4},
		wltest.Global{Interface: "wl_seat", Version: 7},
	)

	var announced []string
	registry := client.Display().GetRegistry()
	registry.Global = func(name uint32, inter string, version uint32) {
		announced = append(announced, inter)
	}
	require.NoError(t, client.RoundTrip())

	assert.Equal(t, []string{"wl_compositor", "wl_seat"}, announced)
	assert.Equal(t, map[uint32]wl.Interface{
		1: {Name: "wl_compositor", Version: 4},
		2: {Name: "wl_seat", Version: 7},
	}, registry.Globals())
	assert.Same(t, registry, client.Display().GetRegistry())
}

func TestQueues(t *testing.T) {
	comp, client := wltest.New(t)

	q, err := client.NewQueue()
	require.NoError(t, err)

	var done bool
	callback := client.Display().WithQueue(q).Sync(func(uint32) { done = true })
	assert.Same(t, q, callback.Queue())
	require.NoError(t, client.RoundTrip())
	comp.Expect(t, "wl_display.sync")
	assert.False(t, done, "event delivered to the wrong queue")

	wltest.Pump(t, func() { q.Dispatch(10 * time.Millisecond) }, func() bool { return done })
	assert.True(t, callback.Destroyed())
	wltest.Pump(t, func() { q.Dispatch(10 * time.Millisecond) }, func() bool { return client.Get(callback.ID()) == nil })
}

func TestRoundTrip(t *testing.T) {
	comp, client := wltest.New(t)

	require.NoError(t, client.RoundTrip())
	comp.Expect(t, "wl_display.sync")
}

func TestDisplayError(t *testing.T) {
	comp, client := wltest.New(t)

	var code uint32
	client.Display().Error = func(objectID, c uint32, message string) { code = c }
	require.NoError(t, comp.Error(comp.Display(), 3, "broken"))

	var err error
	wltest.Pump(t, func() { _, err = client.Dispatch(10 * time.Millisecond) }, func() bool { return err != nil })

	var derr *wl.DisplayError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, uint32(1), derr.ObjectID)
	assert.Equal(t, uint32(3), derr.Code)
	assert.Equal(t, "broken", derr.Message)
	assert.Equal(t, uint32(3), code)

	_, err = client.Dispatch(0)
	assert.ErrorAs(t, err, &derr, "connection should stay failed")
	assert.Equal(t, derr, client.Err())
}

func TestSeat(t *testing.T) {
	comp, client := wltest.New(t, wltest.Global{Interface: "wl_seat", Version: 7})
	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	seat := bind(t, registry, wl.IsSeat, wl.BindSeat)
	var caps wl.SeatCapability
	seat.Capabilities = func(c wl.SeatCapability) { caps = c }
	require.NoError(t, client.RoundTrip())

	bound := comp.Expect(t, "wl_registry.bind")
	assert.Equal(t, uint32(1), bound.Uint(0))
	res := bound.Resource(1)
	require.NotNil(t, res)
	assert.Equal(t, "wl_seat", res.Interface())
	assert.Equal(t, uint32(5), res.Version(), "bound at the highest supported version")

	require.NoError(t, comp.Send(res, "capabilities", uint32(wl.SeatCapabilityPointer|wl.SeatCapabilityKeyboard)))
	require.NoError(t, comp.Send(res, "name", "seat0"))
	require.NoError(t, client.RoundTrip())
	assert.True(t, caps.Has(wl.SeatCapabilityKeyboard))
	assert.False(t, caps.Has(wl.SeatCapabilityTouch))
	assert.Equal(t, "seat0", seat.SeatName())

	seat.Release()
	require.NoError(t, client.RoundTrip())
	comp.Expect(t, "wl_seat.release")
	assert.Nil(t, client.Get(seat.ID()), "seat should have been deleted by the compositor")
}

func TestDestroyedDropsEvents(t *testing.T) {
	comp, client := wltest.New(t, wltest.Global{Interface: "wl_seat", Version: 5})
	registry := client.Display().GetRegistry()
	require.NoError(t, client.RoundTrip())

	seat := bind(t, registry, wl.IsSeat, wl.BindSeat)
	var names []string
	seat.Name = func(name string) { names = append(names, name) }
	require.NoError(t, client.RoundTrip())
	res := comp.Objects("wl_seat")[0]

	require.NoError(t, comp.Send(res, "name", "seat0"))
	require.NoError(t, client.RoundTrip())

	seat.Release()
	require.NoError(t, comp.Send(res, "name", "seat1"))
	require.NoError(t, client.RoundTrip())
	assert.Equal(t, []string{"seat0"}, names)
}

func openFiles(t *testing.T) int {
	t.Helper()

	fds, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(fds)
}

func TestQueueDestroy(t *testing.T) {
	comp, client := wltest.New(t, wltest.Global{Interface: "wl_seat", Version: 5})
	require.NoError(t, client.RoundTrip())

	before := openFiles(t)
	for i := 0; i < 20; i++ {
		q, err := client.NewQueue()
		require.NoError(t, err)

		registry := client.Display().WithQueue(q).GetRegistry()
		require.NoError(t, q.RoundTrip())
		require.Len(t, registry.Globals(), 1)

		var late bool
		registry.Global = func(uint32, string, uint32) { late = true }
		require.NoError(t, q.Destroy())
		assert.True(t, registry.Destroyed())

		require.NoError(t, comp.Send(comp.Object(registry.ID()), "global", uint32(9), "wl_output", uint32(4)))
		require.NoError(t, client.RoundTrip())
		assert.False(t, late, "event delivered for an object on a destroyed queue")
	}
	assert.Equal(t, before, openFiles(t))

	assert.Panics(t, func() { client.Queue().Destroy() })
}
