// Package wire implements the Wayland wire format (spec.md §6): a
// fixed header (object id + opcode + size) followed by 32-bit-aligned
// arguments, with out-of-band file descriptors riding in SCM_RIGHTS
// ancillary data associated with messages by enqueued position.
//
// The encode/decode shape is grounded on
// gogpu-gogpu/internal/platform/x11/wire.go, another binary display
// protocol with the same "fixed header + padded variable-length
// arguments" structure; the argument-by-signature-character semantics
// are grounded on the teacher's dispatcher() in the original
// wayland.go, which decodes 'i','u','f','s','o','a','h' wire arguments
// — reimplemented here without cgo, using honnef.co/go/safeish for the
// typed-unsafe casts that avoid a copy per fixed-size argument.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"honnef.co/go/safeish"
)

// ErrMalformed is returned for any framing violation: short header,
// length not a multiple of 4, size smaller than the header, etc.
var ErrMalformed = errors.New("wire: malformed message")

// HeaderSize is the size, in bytes, of a message header.
const HeaderSize = 8

// Header is the fixed 8-byte prefix of every message: an object id and
// a packed opcode+size word.
type Header struct {
	ObjectID uint32
	Opcode   uint16
	Size     uint16 // includes the header itself
}

// DecodeHeader reads a Header from the first HeaderSize bytes of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrMalformed, len(buf))
	}
	objID := binary.LittleEndian.Uint32(buf[0:4])
	word := binary.LittleEndian.Uint32(buf[4:8])
	h := Header{
		ObjectID: objID,
		Opcode:   uint16(word & 0xffff),
		Size:     uint16(word >> 16),
	}
	if h.Size < HeaderSize {
		return Header{}, fmt.Errorf("%w: size %d smaller than header", ErrMalformed, h.Size)
	}
	if h.Size%4 != 0 {
		return Header{}, fmt.Errorf("%w: size %d not 4-byte aligned", ErrMalformed, h.Size)
	}
	return h, nil
}

// EncodeHeader writes h's 8 bytes into buf, which must have length >= 8.
func EncodeHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], h.ObjectID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Opcode)|uint32(h.Size)<<16)
}

// Reader decodes successive fixed-size and variable-length arguments
// from a single message body (the bytes after the header).
type Reader struct {
	buf []byte
	off int
	fds []int
	fdi int
}

// NewReader wraps the message body in buf (not including the header)
// together with the fds that arrived alongside this message in
// enqueued-position order.
func NewReader(buf []byte, fds []int) *Reader {
	return &Reader{buf: buf, fds: fds}
}

func (r *Reader) need(n int) error {
	if r.off+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, r.off, len(r.buf))
	}
	return nil
}

// Int32 reads a signed 32-bit integer argument ('i').
func (r *Reader) Int32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := *safeish.Cast[*int32](&r.buf[r.off])
	r.off += 4
	return v, nil
}

// Uint32 reads an unsigned 32-bit integer argument ('u' or 'o' as a raw id).
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := *safeish.Cast[*uint32](&r.buf[r.off])
	r.off += 4
	return v, nil
}

// Fixed reads a 24.8 fixed-point argument ('f') as a float64.
func (r *Reader) Fixed() (float64, error) {
	raw, err := r.Int32()
	if err != nil {
		return 0, err
	}
	return float64(raw) / 256.0, nil
}

// String reads a length-prefixed, NUL-terminated, 4-byte-padded UTF-8
// string argument ('s').
func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	total := pad4(int(n))
	if err := r.need(total); err != nil {
		return "", err
	}
	// n includes the trailing NUL.
	s := string(r.buf[r.off : r.off+int(n)-1])
	r.off += total
	return s, nil
}

// Array reads a length-prefixed, 4-byte-padded byte array argument ('a').
func (r *Reader) Array() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	total := pad4(int(n))
	if err := r.need(total); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:r.off+int(n)])
	r.off += total
	return out, nil
}

// FD pops the next file descriptor associated with this message ('h').
func (r *Reader) FD() (int, error) {
	if r.fdi >= len(r.fds) {
		return -1, fmt.Errorf("%w: missing fd argument", ErrMalformed)
	}
	fd := r.fds[r.fdi]
	r.fdi++
	return fd, nil
}

// Remaining reports whether unconsumed bytes remain in the message body.
func (r *Reader) Remaining() bool { return r.off < len(r.buf) }

func pad4(n int) int { return (n + 3) &^ 3 }

// Writer assembles a message body (arguments only; the header is
// written separately once the final size is known).
type Writer struct {
	buf []byte
	fds []int
}

// PutInt32 appends a signed 32-bit integer argument.
func (w *Writer) PutInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// PutUint32 appends an unsigned 32-bit integer / object-id argument.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutFixed appends a 24.8 fixed-point argument.
func (w *Writer) PutFixed(v float64) {
	w.PutInt32(int32(v * 256.0))
}

// PutString appends a length-prefixed, NUL-terminated, padded string.
func (w *Writer) PutString(s string) {
	n := len(s) + 1
	w.PutUint32(uint32(n))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// PutArray appends a length-prefixed, padded byte array.
func (w *Writer) PutArray(a []byte) {
	w.PutUint32(uint32(len(a)))
	w.buf = append(w.buf, a...)
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// PutFD records fd to be sent via SCM_RIGHTS alongside this message,
// in call order.
func (w *Writer) PutFD(fd int) {
	w.fds = append(w.fds, fd)
}

// Bytes returns the assembled argument bytes (body only).
func (w *Writer) Bytes() []byte { return w.buf }

// FDs returns the fds queued for this message, in order.
func (w *Writer) FDs() []int { return w.fds }
