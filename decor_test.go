package decor_test

import (
	"math/rand"
	"testing"

	"deedles.dev/decor"
	"deedles.dev/decor/engine"
	"deedles.dev/decor/engine/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, onRequest func(decor.Request)) (*decor.Context, *enginetest.Engine) {
	t.Helper()

	var eng enginetest.Engine
	ctx := decor.NewContext(&eng, nil, onRequest)
	require.Len(t, eng.Instances, 1)
	return ctx, &eng
}

func TestDecorateRejected(t *testing.T) {
	var errs []*decor.Error
	ctx, eng := newContext(t, func(req decor.Request) { errs = append(errs, req.Error) })
	defer ctx.Close()

	inst := eng.Instances[0]
	inst.Reject = true

	frame := ctx.Decorate(nil, nil)
	assert.Nil(t, frame)
	require.True(t, ctx.Dispatch(0))
	require.Len(t, errs, 1)
	assert.Equal(t, decor.ErrCompositorIncompatible, errs[0].Kind)

	ctx.Close()
	assert.True(t, inst.Released(), "rejected frame should not hold a reference")
}

func TestCapabilities(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	defer frame.Destroy()

	all := []decor.Capabilities{
		decor.CapabilityMove,
		decor.CapabilityResize,
		decor.CapabilityMinimize,
		decor.CapabilityFullscreen,
		decor.CapabilityClose,
	}

	frame.UnsetCapabilities(decor.CapabilityAll)
	model := decor.Capabilities(0)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		c := all[r.Intn(len(all))]
		if r.Intn(2) == 0 {
			frame.SetCapabilities(c)
			model |= c
		} else {
			frame.UnsetCapabilities(c)
			model &^= c
		}

		for _, c := range all {
			require.Equal(t, model.Has(c), frame.HasCapability(c), "step %v: %v", i, c)
		}
	}

	frame.SetCapabilities(decor.CapabilityMove)
	frame.SetCapabilities(decor.CapabilityMove)
	frame.UnsetCapabilities(decor.CapabilityClose)
	frame.UnsetCapabilities(decor.CapabilityClose)
	assert.True(t, frame.HasCapability(decor.CapabilityMove))
	assert.False(t, frame.HasCapability(decor.CapabilityClose))

	ef := eng.Instances[0].Frames[0]
	assert.Contains(t, ef.Calls, "set_capabilities[1]")
}

func TestPopupGrabs(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	ef := eng.Instances[0].Frames[0]

	frame.PopupGrab("seat0")
	frame.PopupGrab("seat1")
	assert.Equal(t, []string{"seat0", "seat1"}, frame.PopupGrabs())

	frame.PopupUngrab("seat0")
	assert.Equal(t, []string{"seat1"}, frame.PopupGrabs())

	// Unmatched ungrabs are still forwarded.
	frame.PopupUngrab("seat0")
	assert.Equal(t, "popup_ungrab[seat0]", ef.Calls[len(ef.Calls)-1])

	frame.PopupUngrab("seat1")
	assert.Empty(t, frame.PopupGrabs())
	assert.Empty(t, ef.Grabs, "outstanding grabs at teardown")

	frame.Destroy()
	assert.True(t, ef.Released())
}

func TestDismissPopup(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var dismissed []string
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		if req, ok := req.(decor.DismissPopupRequest); ok {
			dismissed = append(dismissed, req.Seat)
			frame.PopupUngrab(req.Seat)
		}
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	frame.PopupGrab("seat0")
	inst := eng.Instances[0]
	inst.DismissPopup(inst.Frames[0], "seat0")
	require.True(t, ctx.Dispatch(0))

	assert.Equal(t, []string{"seat0"}, dismissed)
	assert.Empty(t, frame.PopupGrabs())
}

type app struct {
	floatingWidth, floatingHeight int
	width, height                 int
	configures                    int
	closed                        bool
}

func handleApp(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
	a := decor.MustGet[app](data)

	switch req := req.(type) {
	case decor.ConfigureRequest:
		a.configures++

		w, h, ok := req.Config.ContentSize(frame)
		if !ok {
			w, h = a.floatingWidth, a.floatingHeight
		}

		frame.Commit(decor.NewState(w, h), req.Config)
		if frame.IsFloating() {
			a.floatingWidth, a.floatingHeight = w, h
		}
		a.width, a.height = w, h

	case decor.CloseRequest:
		a.closed = true
	}
}

func TestConfigureCommit(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	a := app{floatingWidth: 400, floatingHeight: 300}
	frame := ctx.Decorate(nil, handleApp)
	require.NotNil(t, frame)
	defer frame.Destroy()

	frame.Map()

	inst := eng.Instances[0]
	ef := inst.Frames[0]
	assert.True(t, ef.Mapped)

	inst.Configure(ef, &enginetest.Configuration{Width: 800, Height: 600})
	require.True(t, ctx.DispatchWith(&a, 0))
	assert.Equal(t, 1, a.configures)
	assert.True(t, frame.IsFloating())
	assert.Equal(t, [2]int{800, 600}, [2]int{a.width, a.height})
	assert.Equal(t, [2]int{800, 600}, [2]int{a.floatingWidth, a.floatingHeight})

	inst.Configure(ef, &enginetest.Configuration{
		State:    engine.WindowStateMaximized,
		HasState: true,
	})
	require.True(t, ctx.DispatchWith(&a, 0))
	assert.Equal(t, 2, a.configures)
	assert.False(t, frame.IsFloating())
	assert.Equal(t, [2]int{800, 600}, [2]int{a.width, a.height}, "fallback size should be reused")

	require.Len(t, ef.Commits, 2)
	assert.Equal(t, 800, ef.Commits[1].Width)
	assert.Equal(t, 600, ef.Commits[1].Height)
	for _, s := range eng.States {
		assert.True(t, s.Freed)
	}

	frame.Close()
	require.True(t, ctx.DispatchWith(&a, 0))
	assert.True(t, a.closed)
}

func TestConfigurationLifetime(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var saved *decor.Configuration
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		if req, ok := req.(decor.ConfigureRequest); ok {
			saved = req.Config
		}
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	inst.Configure(inst.Frames[0], &enginetest.Configuration{Width: 10, Height: 10})
	require.True(t, ctx.Dispatch(0))
	require.NotNil(t, saved)

	assert.Panics(t, func() { saved.WindowState() })
	assert.Panics(t, func() { frame.Commit(decor.NewState(10, 10), saved) })
}

func TestWindowState(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var states []decor.WindowState
	var oks []bool
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		if req, ok := req.(decor.ConfigureRequest); ok {
			s, ok := req.Config.WindowState()
			states = append(states, s)
			oks = append(oks, ok)
		}
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	ef := inst.Frames[0]
	inst.Configure(ef, &enginetest.Configuration{})
	inst.Configure(ef, &enginetest.Configuration{State: engine.WindowStateNone, HasState: true})
	inst.Configure(ef, &enginetest.Configuration{State: engine.WindowStateActive | engine.WindowStateTiledLeft, HasState: true})
	require.True(t, ctx.Dispatch(0))

	assert.Equal(t, []bool{false, true, true}, oks)
	assert.Equal(t, []decor.WindowState{0, decor.WindowStateNone, decor.WindowStateActive | decor.WindowStateTiledLeft}, states)
	assert.False(t, states[2].IsFloating())
	assert.True(t, states[1].IsFloating())
}

func TestStateCommittedTwice(t *testing.T) {
	ctx, _ := newContext(t, nil)
	defer ctx.Close()

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	defer frame.Destroy()

	state := decor.NewState(100, 100)
	frame.Commit(state, nil)
	assert.Panics(t, func() { frame.Commit(state, nil) })
}

func TestFrameDestroy(t *testing.T) {
	ctx, eng := newContext(t, nil)
	inst := eng.Instances[0]

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	ef := inst.Frames[0]

	var parent *decor.FrameRef
	frame.Dispatch(nil, func(f *decor.FrameRef) { parent = f })

	ctx.Close()
	assert.False(t, inst.Released(), "frame should keep its context alive")

	frame.PopupGrab("seat0")
	frame.Destroy()
	assert.True(t, ef.Released())
	assert.True(t, inst.Released())

	assert.Panics(t, func() { frame.Destroy() })
	assert.Panics(t, func() { frame.SetTitle("x") })
	assert.Panics(t, func() { parent.Title() })

	ctx.Close()
}

func TestSetParent(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	parent := ctx.Decorate(nil, nil)
	child := ctx.Decorate(nil, nil)
	require.NotNil(t, parent)
	require.NotNil(t, child)
	defer parent.Destroy()
	defer child.Destroy()

	inst := eng.Instances[0]
	child.SetParent(parent.FrameRef)
	assert.Same(t, inst.Frames[0], inst.Frames[1].Parent)

	child.SetParent(nil)
	assert.Nil(t, inst.Frames[1].Parent)
}

func TestInteractive(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	defer frame.Destroy()

	frame.Move(nil, 12)
	frame.Resize(nil, 13, decor.ResizeEdgeBottomRight)
	frame.ShowWindowMenu(nil, 14, 5, 6)

	ef := eng.Instances[0].Frames[0]
	assert.Equal(t, []uint32{12, 13, 14}, ef.Serials)
	assert.Equal(t, engine.ResizeEdgeBottomRight, ef.LastEdge)
	assert.Equal(t, [2]int{5, 6}, [2]int{ef.MenuX, ef.MenuY})
}

func TestDispatchFailure(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	require.True(t, ctx.Dispatch(0))
	eng.Instances[0].Fail(nil)
	assert.False(t, ctx.Dispatch(0))
}

func TestErrorRouting(t *testing.T) {
	var eng enginetest.Engine

	var first, second []*decor.Error
	ctx1 := decor.NewContext(&eng, nil, func(req decor.Request) { first = append(first, req.Error) })
	defer ctx1.Close()
	ctx2 := decor.NewContext(&eng, nil, func(req decor.Request) { second = append(second, req.Error) })
	defer ctx2.Close()

	const message = "min content size (200x200) is larger than max (100x100) ✓"
	eng.Instances[1].Error(engine.ErrorInvalidFrameConfiguration, message)

	require.True(t, ctx1.Dispatch(0))
	require.True(t, ctx2.Dispatch(0))

	assert.Empty(t, first)
	require.Len(t, second, 1)
	assert.Equal(t, decor.ErrInvalidFrameConfiguration, second[0].Kind)
	assert.Equal(t, message, second[0].Message)
	assert.EqualError(t, second[0], message)
}
