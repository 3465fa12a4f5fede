package decor

import "deedles.dev/decor/engine"

// Configuration is the compositor's proposal for a frame. It is only
// valid during the callback that it is delivered to.
type Configuration struct {
	config engine.Configuration
}

func (c *Configuration) get() engine.Configuration {
	if c.config == nil {
		panic("decor: configuration used outside of its configure callback")
	}
	return c.config
}

// ContentSize returns the content size proposed for frame. If ok is
// false, the compositor has left the size up to the application, which
// should keep using whatever size it last used while floating.
func (c *Configuration) ContentSize(frame *FrameRef) (width, height int, ok bool) {
	return c.get().ContentSize(frame.engine())
}

// WindowState returns the proposed window state. If ok is false, the
// window state is unchanged.
func (c *Configuration) WindowState() (state WindowState, ok bool) {
	s, ok := c.get().WindowState()
	return WindowState(s), ok
}

// State is a content size that is about to be committed. A State may
// only be committed once.
type State struct {
	width, height int
	released      bool
}

// NewState returns a new State for content of the given size.
func NewState(width, height int) *State {
	return &State{width: width, height: height}
}

// Size returns the content size of the state.
func (s *State) Size() (width, height int) {
	return s.width, s.height
}

// take marks the state as consumed and returns its size.
func (s *State) take() (width, height int) {
	if s.released {
		panic("decor: state committed more than once")
	}
	s.released = true
	return s.width, s.height
}
