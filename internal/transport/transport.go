// Package transport implements the per-connection Buffered Transport
// of spec.md §4.3: framed I/O over a stream socket, an input ring
// buffer plus a bounded queue of received fds, an output ring buffer
// with backpressure, and a slow-client disconnect policy.
//
// Grounded on gogpu-gogpu/internal/platform/x11/connection.go's
// mutex-guarded readBuf/writeBuf plus atomic sequence counter, adapted
// from "one client connecting out to one server" to "the server side
// of one accepted connection, of which there may be many."
package transport

import (
	"fmt"

	"golang.org/x/sys/unix"

	"jaywl/internal/wire"
	"jaywl/internal/wlog"
)

// MaxQueuedFDs bounds the number of file descriptors the input side
// will hold before the client's ancillary data is considered abusive
// and the connection is killed (spec.md §4.3).
const MaxQueuedFDs = 64

// OutputHighWaterMark is the output buffer size past which a client is
// considered slow; once Flush repeatedly fails to drain it, the
// connection is terminated (spec.md §4.3).
const OutputHighWaterMark = 4 << 20 // 4 MiB

// MinInputBuffer is the minimum input ring size (spec.md §4.3: "at
// least 4 KiB").
const MinInputBuffer = 4096

// Message is one fully-framed incoming message. ReadMessages leaves
// FDs empty: received fds stay queued on the Conn for TakeFD.
type Message struct {
	Header wire.Header
	Body   []byte
	FDs    []int
}

// Conn is the server side of one client connection's framed transport.
type Conn struct {
	fd int

	in       []byte // accumulated, not-yet-framed input bytes
	inFDs    []int  // fds received but not yet attached to a framed message
	outbuf   []byte
	outFDs   []int
	outFDPos []int // byte offset in outbuf at which outFDs[i] must be sent

	slowStreak int
	log        *wlog.Logger
}

// New wraps an already-accepted connection fd.
func New(fd int) *Conn {
	return &Conn{fd: fd, log: wlog.Transport}
}

// FD returns the underlying socket descriptor, for event-loop registration.
func (c *Conn) FD() int { return c.fd }

// ReadMessages performs one recvmsg, appends to the internal input
// buffer, and returns every fully-framed message now available.
// Received fds are not attached to any message: they are queued in
// arrival order for a decoder to take with TakeFD, so the transport
// never guesses which message "owns" an fd, matching spec.md §4.3's model of fds
// riding alongside specific messages by enqueued position.
func (c *Conn) ReadMessages() ([]Message, error) {
	buf := make([]byte, 64*1024)
	oob := make([]byte, unix.CmsgSpace(MaxQueuedFDs*4))

	n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: recvmsg: %w", err)
	}
	if n == 0 {
		return nil, errConnClosed
	}
	c.in = append(c.in, buf[:n]...)

	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err == nil {
			for _, cmsg := range cmsgs {
				fds, err := unix.ParseUnixRights(&cmsg)
				if err == nil {
					c.inFDs = append(c.inFDs, fds...)
				}
			}
		}
	}
	if len(c.inFDs) > MaxQueuedFDs {
		return nil, fmt.Errorf("transport: too many queued fds (%d), killing connection", len(c.inFDs))
	}

	var out []Message
	for {
		if len(c.in) < wire.HeaderSize {
			break
		}
		hdr, err := wire.DecodeHeader(c.in)
		if err != nil {
			return out, err
		}
		if len(c.in) < int(hdr.Size) {
			break // wait for more bytes
		}
		body := make([]byte, hdr.Size-wire.HeaderSize)
		copy(body, c.in[wire.HeaderSize:hdr.Size])
		c.in = c.in[hdr.Size:]

		// No fd/message pairing happens here: fds stay queued in
		// c.inFDs for TakeFD. Real
		// Wayland framing associates fds with the specific 'h'
		// arguments in the signature at the caller (proto) layer,
		// which knows how many fds this opcode expects; the
		// transport only holds them in order.
		out = append(out, Message{Header: hdr, Body: body})
	}
	return out, nil
}

// TakeFD pops the next queued fd, for use by a proto-layer decoder
// that knows (from the request's signature) that this argument is a
// file descriptor.
func (c *Conn) TakeFD() (int, bool) {
	if len(c.inFDs) == 0 {
		return -1, false
	}
	fd := c.inFDs[0]
	c.inFDs = c.inFDs[1:]
	return fd, true
}

// QueueMessage appends a fully-framed outgoing message (header + body)
// and its fds to the output buffer. It never partially commits: either
// the whole message is queued or none of it is (spec.md §4.3).
func (c *Conn) QueueMessage(hdr wire.Header, body []byte, fds []int) {
	hdr.Size = uint16(wire.HeaderSize + len(body))
	frame := make([]byte, wire.HeaderSize+len(body))
	wire.EncodeHeader(frame, hdr)
	copy(frame[wire.HeaderSize:], body)

	for _, fd := range fds {
		c.outFDPos = append(c.outFDPos, len(c.outbuf))
		c.outFDs = append(c.outFDs, fd)
	}
	c.outbuf = append(c.outbuf, frame...)
}

// Pending reports whether there is unflushed output.
func (c *Conn) Pending() bool { return len(c.outbuf) > 0 }

// Flush attempts to drain the output buffer via sendmsg, pairing
// whatever fds are due to be sent at or before the bytes being
// written in this call. It reports whether the client should be
// considered slow (output buffer persistently at/above the high water
// mark) so the caller can terminate it.
func (c *Conn) Flush() (slow bool, err error) {
	if len(c.outbuf) == 0 {
		c.slowStreak = 0
		return false, nil
	}

	var oob []byte
	var fdsToSend []int
	for len(c.outFDPos) > 0 && c.outFDPos[0] == 0 {
		fdsToSend = append(fdsToSend, c.outFDs[0])
		c.outFDPos = c.outFDPos[1:]
		c.outFDs = c.outFDs[1:]
	}
	if len(fdsToSend) > 0 {
		oob = unix.UnixRights(fdsToSend...)
	}

	n, err := unix.SendmsgN(c.fd, c.outbuf, oob, nil, 0)
	if err != nil {
		if err == unix.EAGAIN {
			c.slowStreak++
			return c.slowStreak > 8 && len(c.outbuf) >= OutputHighWaterMark, nil
		}
		return false, fmt.Errorf("transport: sendmsg: %w", err)
	}
	c.outbuf = c.outbuf[n:]
	for i := range c.outFDPos {
		c.outFDPos[i] -= n
		if c.outFDPos[i] < 0 {
			c.outFDPos[i] = 0
		}
	}
	if len(c.outbuf) == 0 {
		c.slowStreak = 0
	} else if len(c.outbuf) >= OutputHighWaterMark {
		c.slowStreak++
	} else {
		c.slowStreak = 0
	}
	return c.slowStreak > 8 && len(c.outbuf) >= OutputHighWaterMark, nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

var errConnClosed = fmt.Errorf("transport: connection closed (EOF)")

// ErrConnClosed is returned by ReadMessages when the peer closed the connection.
func ErrConnClosed() error { return errConnClosed }
