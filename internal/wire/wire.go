// Package wire handles reading and writing newline-delimited JSON
// messages over a net.Conn.
//
// Wire format:
//
//	<json>\n
//
// Every line is a single message; framing is identical in both
// directions.
package wire

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/clipvault/clipvault/internal/message"
)

const (
	// MaxMessageSize is the largest message we will read (16 MiB,
	// enough for a base64-encoded screenshot).
	MaxMessageSize = 16 * 1024 * 1024

	writeDeadline = 5 * time.Second
)

// Conn wraps a net.Conn with buffered newline-delimited JSON framing.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
}

// New wraps conn.
func New(conn net.Conn) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
	}
}

// SetReadDeadline sets or clears the read deadline.
func (c *Conn) SetReadDeadline(d time.Duration) {
	if d == 0 {
		_ = c.conn.SetReadDeadline(time.Time{})
	} else {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

type encodable interface {
	Encode() ([]byte, error)
}

func (c *Conn) write(msg encodable) error {
	raw, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	line := append(raw, '\n')
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if _, err := c.conn.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// WriteRequest writes one request line.
func (c *Conn) WriteRequest(r *message.Request) error { return c.write(r) }

// WriteResponse writes one response line.
func (c *Conn) WriteResponse(r *message.Response) error { return c.write(r) }

// WriteEvent writes one pushed event line.
func (c *Conn) WriteEvent(e *message.Event) error { return c.write(e) }

func (c *Conn) readLine() ([]byte, error) {
	line, err := c.br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > MaxMessageSize {
		return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
	}
	return line[:len(line)-1], nil
}

// ReadRequest reads one request line.
func (c *Conn) ReadRequest() (*message.Request, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return message.DecodeRequest(line)
}

// ReadResponse reads one response line.
func (c *Conn) ReadResponse() (*message.Response, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return message.DecodeResponse(line)
}

// ReadEvent reads one pushed event line.
func (c *Conn) ReadEvent() (*message.Event, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return message.DecodeEvent(line)
}
