// Package ipc provides the local Unix-socket channel through which the
// presentation layer (popup list, panel applet, CLI sub-commands) talks
// to a running clipvault daemon. The protocol is newline-delimited JSON
// messages, one request and one response per line (see internal/message).
package ipc

import (
	"net"
	"os"
	"path/filepath"
)

// SocketPath returns the path of the daemon's IPC socket:
// $CLIPVAULT_SOCKET if set, else $XDG_RUNTIME_DIR/clipvault.sock,
// else $TMPDIR/clipvault.sock.
func SocketPath() string {
	if s := os.Getenv("CLIPVAULT_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipvault.sock")
	}
	return filepath.Join(os.TempDir(), "clipvault.sock")
}

// IsRunning reports whether a clipvault daemon appears to be listening
// on the IPC socket. It does a cheap dial-and-close; no data is
// exchanged.
func IsRunning() bool {
	c, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path, removing any
// stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the daemon's IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
