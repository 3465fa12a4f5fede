// Command decordemo opens a decorated window.
//
// The left button moves the window, or resizes it if pressed near an
// edge. The middle button opens the compositor's window menu and the
// right button opens a popup. Keys:
//
//	Esc  close
//	t    cycle through titles
//	v    toggle decorations
//	r    toggle resizing
//	m    toggle maximized
//	f    toggle fullscreen
//	n    minimize
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"

	"deedles.dev/decor"
	wl "deedles.dev/decor/client"
	"deedles.dev/decor/shm"
	"deedles.dev/decor/wire"
	"deedles.dev/decor/xdg"
	"deedles.dev/ximage/xcursor"
	"github.com/charmbracelet/log"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/sys/unix"
)

// Linux evdev key codes.
const (
	keyEsc = 1
	keyR   = 19
	keyT   = 20
	keyF   = 33
	keyV   = 47
	keyN   = 49
	keyM   = 50
)

const (
	checkerSize = 32
	edgeSize    = 8
	popupSize   = 120
)

var titles = []string{
	"decor demo",
	"A much longer title that the compositor might have to truncate",
	"✓ unicode",
}

type state struct {
	titleIndex int

	floatingWidth, floatingHeight int
	width, height                 int
	windowState                   decor.WindowState
	running                       bool

	client     *wl.Client
	registry   *wl.Registry
	compositor *wl.Compositor
	shm        *wl.Shm
	wm         *xdg.WmBase
	seat       *wl.Seat
	pointer    *wl.Pointer
	keyboard   *wl.Keyboard

	ctx     *decor.Context
	frame   *decor.Frame
	surface *wl.Surface
	buffer  *wl.ImageBuffer

	cursorSurface *wl.Surface
	cursorHot     image.Point
	pointerLoc    image.Point

	popup *popup
}

type popup struct {
	surface  *wl.Surface
	xsurface *xdg.Surface
	popup    *xdg.Popup
	buffer   *wl.ImageBuffer
	seat     string
}

func (s *state) init(appID string) error {
	client, err := wl.Dial()
	if err != nil {
		return fmt.Errorf("dial display: %w", err)
	}
	s.client = client

	s.client.Display().Error = func(id, code uint32, msg string) {
		log.Fatal("display error", "id", id, "code", code, "msg", msg)
	}

	s.registry = s.client.Display().GetRegistry()
	s.registry.Global = s.global
	err = s.client.RoundTrip()
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}

	switch {
	case s.compositor == nil:
		return errors.New("no compositor found")
	case s.shm == nil:
		return errors.New("no shm found")
	case s.wm == nil:
		return errors.New("no wmbase found")
	}

	s.ctx = decor.New(s.client, func(req decor.Request) {
		log.Fatal("decoration error", "kind", req.Error.Kind, "msg", req.Error.Message)
	})

	s.surface = s.compositor.CreateSurface()
	s.frame = s.ctx.Decorate(s.surface, s.handleFrame)
	if s.frame == nil {
		return errors.New("failed to decorate surface")
	}
	s.frame.SetTitle(titles[s.titleIndex])
	s.frame.SetAppID(appID)
	s.frame.SetMinContentSize(2*checkerSize, 2*checkerSize)
	s.frame.Map()

	s.initCursor()

	return nil
}

func (s *state) global(name uint32, inter string, version uint32) {
	i := wl.Interface{Name: inter, Version: version}
	switch {
	case wl.IsCompositor(i):
		s.compositor = wl.BindCompositor(s.registry, name, version)
	case wl.IsShm(i):
		s.shm = wl.BindShm(s.registry, name, version)
	case xdg.IsWmBase(i):
		s.wm = xdg.BindWmBase(s.registry, name, version)
	case wl.IsSeat(i):
		if s.seat != nil {
			return
		}
		s.seat = wl.BindSeat(s.registry, name, version)
		s.seat.Capabilities = s.seatCapabilities
	}
}

func (s *state) seatCapabilities(caps wl.SeatCapability) {
	if caps.Has(wl.SeatCapabilityPointer) && (s.pointer == nil) {
		s.pointer = s.seat.GetPointer()
		s.pointer.Enter = s.pointerEnter
		s.pointer.Motion = s.pointerMotion
		s.pointer.Button = s.pointerButton
	}
	if caps.Has(wl.SeatCapabilityKeyboard) && (s.keyboard == nil) {
		s.keyboard = s.seat.GetKeyboard()
		s.keyboard.Key = s.key
	}
}

func (s *state) initCursor() {
	theme, err := xcursor.LoadTheme("")
	if err != nil {
		log.Warn("load cursor theme", "err", err)
		return
	}

	cursors, ok := theme.Cursors["left_ptr"]
	if !ok {
		log.Warn("no left_ptr cursor in theme")
		return
	}
	cimg := cursors.Images[cursors.BestSize(32)][0]
	size := len(cimg.Image.Pix)
	s.cursorHot = cimg.Hot

	file, err := shm.Create("decor-cursor", int64(size))
	if err != nil {
		log.Warn("create SHM file", "err", err)
		return
	}
	defer file.Close()

	mmap, err := shm.MapShared(file, size, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		log.Warn("mmap", "err", err)
		return
	}
	defer mmap.Unmap()
	copy(mmap, cimg.Image.Pix)

	pool := s.shm.CreatePool(file, int32(size))
	defer pool.Destroy()
	buf := pool.CreateBuffer(
		0,
		int32(cimg.Image.Rect.Dx()),
		int32(cimg.Image.Rect.Dy()),
		int32(cimg.Image.Stride()),
		wl.ShmFormatArgb8888,
	)

	s.cursorSurface = s.compositor.CreateSurface()
	s.cursorSurface.Attach(buf, 0, 0)
	s.cursorSurface.Commit()
}

func (s *state) handleFrame(frame *decor.FrameRef, req decor.FrameRequest, data decor.DispatchData) {
	switch req := req.(type) {
	case decor.ConfigureRequest:
		w, h, ok := req.Config.ContentSize(frame)
		if !ok {
			w, h = s.floatingWidth, s.floatingHeight
		}
		if ws, ok := req.Config.WindowState(); ok {
			s.windowState = ws
		}
		log.Debug("configure", "width", w, "height", h, "state", s.windowState)

		frame.Commit(decor.NewState(w, h), req.Config)
		if frame.IsFloating() {
			s.floatingWidth, s.floatingHeight = w, h
		}
		s.width, s.height = w, h
		s.draw()

	case decor.CloseRequest:
		s.running = false

	case decor.DismissPopupRequest:
		if (s.popup != nil) && (s.popup.seat == req.Seat) {
			s.closePopup()
		}
	}
}

func (s *state) draw() {
	if s.buffer == nil {
		buffer, err := wl.NewImageBuffer(s.shm, int32(s.width), int32(s.height))
		if err != nil {
			log.Fatal("create buffer", "err", err)
		}
		s.buffer = buffer
	}
	err := s.buffer.Resize(int32(s.width), int32(s.height))
	if err != nil {
		log.Fatal("resize buffer", "err", err)
	}

	checker(s.buffer.Image(), colornames.Steelblue, colornames.Lightsteelblue)

	s.surface.Attach(s.buffer.Buffer(), 0, 0)
	s.surface.DamageBuffer(0, 0, int32(s.width), int32(s.height))
	s.surface.Commit()
}

func checker(img draw.Image, c1, c2 color.Color) {
	src1, src2 := image.NewUniform(c1), image.NewUniform(c2)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += checkerSize {
		for x := b.Min.X; x < b.Max.X; x += checkerSize {
			src := src1
			if ((x/checkerSize)+(y/checkerSize))%2 != 0 {
				src = src2
			}
			r := image.Rect(x, y, x+checkerSize, y+checkerSize).Intersect(b)
			draw.Draw(img, r, src, image.Point{}, draw.Src)
		}
	}
}

func (s *state) pointerEnter(serial uint32, surface *wl.Surface, x, y wire.Fixed) {
	s.pointerLoc = wire.Point(x, y)
	if s.cursorSurface != nil {
		s.pointer.SetCursor(serial, s.cursorSurface, int32(s.cursorHot.X), int32(s.cursorHot.Y))
	}
}

func (s *state) pointerMotion(time uint32, x, y wire.Fixed) {
	s.pointerLoc = wire.Point(x, y)
}

// edge returns the resize edge that p is close to.
func (s *state) edge(p image.Point) decor.ResizeEdge {
	top := p.Y < edgeSize
	bottom := p.Y >= s.height-edgeSize
	left := p.X < edgeSize
	right := p.X >= s.width-edgeSize

	switch {
	case top && left:
		return decor.ResizeEdgeTopLeft
	case top && right:
		return decor.ResizeEdgeTopRight
	case bottom && left:
		return decor.ResizeEdgeBottomLeft
	case bottom && right:
		return decor.ResizeEdgeBottomRight
	case top:
		return decor.ResizeEdgeTop
	case bottom:
		return decor.ResizeEdgeBottom
	case left:
		return decor.ResizeEdgeLeft
	case right:
		return decor.ResizeEdgeRight
	}
	return decor.ResizeEdgeNone
}

func (s *state) pointerButton(serial, time uint32, button wl.PointerButton, bstate wl.PointerButtonState) {
	if bstate != wl.PointerButtonStatePressed {
		return
	}

	switch button {
	case wl.PointerButtonLeft:
		if s.popup != nil {
			s.closePopup()
			return
		}

		edge := s.edge(s.pointerLoc)
		if (edge != decor.ResizeEdgeNone) && s.frame.HasCapability(decor.CapabilityResize) {
			s.frame.Resize(s.seat, serial, edge)
			return
		}
		s.frame.Move(s.seat, serial)

	case wl.PointerButtonMiddle:
		s.frame.ShowWindowMenu(s.seat, serial, s.pointerLoc.X, s.pointerLoc.Y)

	case wl.PointerButtonRight:
		s.openPopup(serial)
	}
}

func (s *state) openPopup(serial uint32) {
	if (s.popup != nil) || (s.frame.XdgSurface() == nil) {
		return
	}

	positioner := s.wm.CreatePositioner()
	defer positioner.Destroy()
	positioner.SetSize(popupSize, popupSize)
	positioner.SetAnchorRect(int32(s.pointerLoc.X), int32(s.pointerLoc.Y), 1, 1)
	positioner.SetAnchor(xdg.PositionerAnchorBottomRight)
	positioner.SetGravity(xdg.PositionerGravityBottomRight)
	positioner.SetConstraintAdjustment(xdg.PositionerConstraintAdjustmentSlideX | xdg.PositionerConstraintAdjustmentSlideY)

	p := popup{seat: s.seat.SeatName()}
	p.surface = s.compositor.CreateSurface()
	p.xsurface = s.wm.GetXdgSurface(p.surface)
	p.xsurface.Configure = func(serial uint32) {
		p.xsurface.AckConfigure(serial)
		p.draw(s.shm)
	}
	p.popup = p.xsurface.GetPopup(s.frame.XdgSurface(), positioner)
	p.popup.PopupDone = s.closePopup
	p.popup.Grab(s.seat, serial)
	p.surface.Commit()

	s.frame.PopupGrab(p.seat)
	s.popup = &p
}

func (p *popup) draw(sh *wl.Shm) {
	if p.buffer == nil {
		buffer, err := wl.NewImageBuffer(sh, popupSize, popupSize)
		if err != nil {
			log.Error("create popup buffer", "err", err)
			return
		}
		p.buffer = buffer
	}

	checker(p.buffer.Image(), colornames.Darkorange, colornames.Orange)
	p.surface.Attach(p.buffer.Buffer(), 0, 0)
	p.surface.DamageBuffer(0, 0, popupSize, popupSize)
	p.surface.Commit()
}

func (s *state) closePopup() {
	p := s.popup
	if p == nil {
		return
	}
	s.popup = nil

	p.popup.Destroy()
	p.xsurface.Destroy()
	p.surface.Destroy()
	if p.buffer != nil {
		p.buffer.Destroy()
	}
	s.frame.PopupUngrab(p.seat)
}

func (s *state) key(serial, time, key uint32, kstate wl.KeyboardKeyState) {
	if kstate != wl.KeyboardKeyStatePressed {
		return
	}

	switch key {
	case keyEsc:
		s.frame.Close()

	case keyT:
		s.titleIndex = (s.titleIndex + 1) % len(titles)
		s.frame.SetTitle(titles[s.titleIndex])

	case keyV:
		s.frame.SetVisibility(!s.frame.IsVisible())

	case keyR:
		if s.frame.HasCapability(decor.CapabilityResize) {
			s.frame.UnsetCapabilities(decor.CapabilityResize)
			return
		}
		s.frame.SetCapabilities(decor.CapabilityResize)

	case keyM:
		if s.windowState.Has(decor.WindowStateMaximized) {
			s.frame.UnsetMaximized()
			return
		}
		s.frame.SetMaximized()

	case keyF:
		if s.windowState.Has(decor.WindowStateFullscreen) {
			s.frame.UnsetFullscreen()
			return
		}
		s.frame.SetFullscreen(nil)

	case keyN:
		s.frame.SetMinimized()
	}
}

func (s *state) run(ctx context.Context) error {
	s.running = true
	for s.running {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := s.client.Flush()
		if err != nil {
			return fmt.Errorf("flush: %w", err)
		}

		fds := []unix.PollFd{
			{Fd: int32(s.client.Fd()), Events: unix.POLLIN},
			{Fd: int32(s.ctx.Fd()), Events: unix.POLLIN},
		}
		_, err = unix.Poll(fds, 100)
		if (err != nil) && !errors.Is(err, unix.EINTR) {
			return fmt.Errorf("poll: %w", err)
		}

		_, err = s.client.Dispatch(0)
		if err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
		if !s.ctx.Dispatch(0) {
			return errors.New("decoration dispatch failed")
		}
	}
	return nil
}

func (s *state) close() {
	s.closePopup()
	if s.frame != nil {
		s.frame.Destroy()
	}
	if s.ctx != nil {
		s.ctx.Close()
	}
	if s.buffer != nil {
		s.buffer.Destroy()
	}
	if s.surface != nil {
		s.surface.Destroy()
	}
	s.client.Flush()
	s.client.Close()
}

func main() {
	width := flag.Int("width", 640, "initial content width")
	height := flag.Int("height", 480, "initial content height")
	appID := flag.String("app-id", "dev.deedles.decor.demo", "application ID")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s := state{
		floatingWidth:  *width,
		floatingHeight: *height,
	}
	err := s.init(*appID)
	if err != nil {
		log.Fatal("init", "err", err)
	}
	defer s.close()

	err = s.run(ctx)
	if err != nil {
		log.Error("run", "err", err)
	}
}
