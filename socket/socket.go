// Package socket carries the line-oriented text protocol over a local
// interprocess connection.
package socket

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Conn is a single persistent connection to the controlling process. Reads
// happen on one dedicated loop (ReadLines); writes may come from a different
// goroutine and are serialized by an internal mutex.
type Conn struct {
	conn net.Conn
	w    *bufio.Writer

	mu        sync.Mutex
	log       *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the unix domain socket at path. The peer is expected to be
// listening already; there is no retry.
func Dial(path string, log *zap.Logger) (*Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to socket %s: %w", path, err)
	}
	log.Info("connected to socket", zap.String("path", path))
	return New(conn, log), nil
}

// New wraps an established connection.
func New(conn net.Conn, log *zap.Logger) *Conn {
	return &Conn{
		conn: conn,
		w:    bufio.NewWriter(conn),
		log:  log,
	}
}

// SendLine writes one newline-terminated line and flushes it. Safe for use
// concurrently with the read loop.
func (c *Conn) SendLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.w.WriteString(line); err != nil {
		return err
	}
	return c.w.Flush()
}

// ReadLines blocks reading the connection, invoking fn once per complete
// line (newline stripped). It returns nil when the peer closes the connection
// and the read error otherwise. Either way the connection is finished and the
// caller should shut down.
func (c *Conn) ReadLines(fn func(line string)) error {
	scan := bufio.NewScanner(c.conn)
	for scan.Scan() {
		if line := scan.Text(); line != "" {
			fn(line)
		}
	}
	return scan.Err()
}

// Close closes the underlying connection. Safe to call more than once; later
// calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		c.log.Debug("socket closed")
	})
	return c.closeErr
}
