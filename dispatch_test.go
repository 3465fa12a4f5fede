package decor_test

import (
	"testing"

	"deedles.dev/decor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n int
}

func TestDispatchDataIdentity(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var seen *counter
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		c, ok := decor.Get[counter](data)
		require.True(t, ok)
		c.n++
		seen = c
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	inst.Commit(inst.Frames[0])

	var c counter
	require.True(t, ctx.DispatchWith(&c, 0))
	assert.Same(t, &c, seen)
	assert.Equal(t, 1, c.n)
}

func TestDispatchDataWrongType(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var ok bool
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		_, ok = decor.Get[string](data)
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	inst.Commit(inst.Frames[0])
	require.True(t, ctx.DispatchWith(&counter{}, 0))
	assert.False(t, ok)
}

func TestDispatchDataAfterReturn(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var saved decor.DispatchData
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		saved = data
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	inst.Commit(inst.Frames[0])
	require.True(t, ctx.DispatchWith(&counter{}, 0))

	assert.Panics(t, func() { decor.Get[counter](saved) })
}

func TestDispatchDataUnbound(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var data decor.DispatchData
	frame := ctx.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, d decor.DispatchData) {
		data = d
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst := eng.Instances[0]
	inst.Commit(inst.Frames[0])
	require.True(t, ctx.Dispatch(0))

	assert.Panics(t, func() { data.Value() })
}

func TestDispatchDataNesting(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	inst := eng.Instances[0]

	outer := &counter{n: 1}
	inner := &counter{n: 2}

	var order []int
	var frame *decor.Frame
	frame = ctx.Decorate(nil, func(ref *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		c := decor.MustGet[counter](data)
		order = append(order, c.n)

		if _, ok := req.(decor.CommitRequest); ok && (c == outer) {
			// Reenter with a new binding, then check that the outer
			// one is back in place.
			inst.Close(inst.Frames[0])
			frame.Dispatch(inner, func(*decor.FrameRef) {
				require.True(t, ctx.Dispatch(0))
			})
			order = append(order, decor.MustGet[counter](data).n)
		}
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	inst.Commit(inst.Frames[0])
	require.True(t, ctx.DispatchWith(outer, 0))
	assert.Equal(t, []int{1, 2, 1}, order)
}

func TestDispatchDataPanicRestores(t *testing.T) {
	ctx, eng := newContext(t, nil)
	defer ctx.Close()

	var got []*counter
	frame := ctx.Decorate(nil, func(ref *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		got = append(got, decor.MustGet[counter](data))
	})
	require.NotNil(t, frame)
	defer frame.Destroy()

	outer := &counter{}
	frame.Dispatch(outer, func(*decor.FrameRef) {
		assert.Panics(t, func() {
			frame.Dispatch(&counter{}, func(*decor.FrameRef) { panic("boom") })
		})

		inst := eng.Instances[0]
		inst.Commit(inst.Frames[0])
		require.True(t, ctx.Dispatch(0))
	})

	require.Len(t, got, 1)
	assert.Same(t, outer, got[0])
}

func TestDispatchDataAcrossContexts(t *testing.T) {
	ctx1, eng1 := newContext(t, nil)
	defer ctx1.Close()
	ctx2, _ := newContext(t, nil)
	defer ctx2.Close()

	var seen *counter
	f1 := ctx1.Decorate(nil, func(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
		seen = decor.MustGet[counter](data)
	})
	require.NotNil(t, f1)
	defer f1.Destroy()

	f2 := ctx2.Decorate(nil, nil)
	require.NotNil(t, f2)
	defer f2.Destroy()

	var c counter
	f2.Dispatch(&c, func(*decor.FrameRef) {
		inst := eng1.Instances[0]
		inst.Commit(inst.Frames[0])
		require.True(t, ctx1.Dispatch(0))
	})
	assert.Same(t, &c, seen)
}

func TestDispatchFrame(t *testing.T) {
	ctx, _ := newContext(t, nil)
	defer ctx.Close()

	frame := ctx.Decorate(nil, nil)
	require.NotNil(t, frame)
	defer frame.Destroy()
	frame.SetTitle("Example")

	title := decor.DispatchFrame(frame, &counter{}, func(ref *decor.FrameRef) string {
		return ref.Title()
	})
	assert.Equal(t, "Example", title)
}
