package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled automatically by a Client.
//
// Reads must happen from a single goroutine. Writes are serialized
// internally.
type Conn struct {
	conn *net.UnixConn

	wm sync.Mutex

	fm  sync.Mutex
	fds []int
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
	}
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET is not a Unix socket: %T", c)
		}
		return NewConn(uc), nil
	}

	path := SocketPath()
	s, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", path, err)
	}
	return NewConn(s), nil
}

// Pair returns two connected Conns. It is mostly useful for testing,
// with one end acting as the compositor.
func Pair() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	c1, err := fileConn(fds[0], "wayland-client")
	if err != nil {
		unix.Close(fds[1])
		return nil, nil, err
	}
	c2, err := fileConn(fds[1], "wayland-server")
	if err != nil {
		c1.Close()
		return nil, nil, err
	}
	return c1, c2, nil
}

func fileConn(fd int, name string) (*Conn, error) {
	file := os.NewFile(uintptr(fd), name)
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", name, err)
	}
	return NewConn(c.(*net.UnixConn)), nil
}

// Close closes the underlying connection and any received file
// descriptors that were never claimed.
func (c *Conn) Close() error {
	c.fm.Lock()
	fds := c.fds
	c.fds = nil
	c.fm.Unlock()

	errs := make([]error, 0, len(fds)+1)
	for _, fd := range fds {
		errs = append(errs, unix.Close(fd))
	}
	errs = append(errs, c.conn.Close())
	return errors.Join(errs...)
}

// Read implements io.Reader. Any file descriptors received alongside
// the data are buffered until claimed with TakeFiles.
func (c *Conn) Read(buf []byte) (int, error) {
	oob := make([]byte, unix.CmsgSpace(28*4)) // libwayland's MAX_FDS_OUT
	n, oobn, _, _, err := c.conn.ReadMsgUnix(buf, oob)
	if oobn > 0 {
		ferr := c.readFDs(oob[:oobn])
		err = errors.Join(err, ferr)
	}
	return n, err
}

func (c *Conn) readFDs(data []byte) error {
	cmsgs, err := unix.ParseSocketControlMessage(data)
	if err != nil {
		return fmt.Errorf("parse socket control messages: %w", err)
	}

	c.fm.Lock()
	defer c.fm.Unlock()

	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			if errors.Is(err, unix.EINVAL) {
				continue
			}
			return fmt.Errorf("parse unix control message: %w", err)
		}
		c.fds = append(c.fds, fds...)
	}
	return nil
}

// TakeFiles claims the next n received file descriptors.
func (c *Conn) TakeFiles(n int) ([]int, error) {
	c.fm.Lock()
	defer c.fm.Unlock()

	if n > len(c.fds) {
		return nil, fmt.Errorf("need %v file descriptors but only %v received", n, len(c.fds))
	}

	fds := make([]int, n)
	copy(fds, c.fds)
	c.fds = c.fds[:copy(c.fds, c.fds[n:])]
	return fds, nil
}

func (c *Conn) write(data, oob []byte) error {
	c.wm.Lock()
	defer c.wm.Unlock()

	n, _, err := c.conn.WriteMsgUnix(data, oob, nil)
	if err != nil {
		return err
	}
	if n < len(data) {
		_, err = c.conn.Write(data[n:])
	}
	return err
}
