// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import "encoding/binary"

var order = binary.BigEndian

// buffer is a cursor over a byte slice used while parsing and serializing
// wire-format DHCPv6 structures. It tracks how many bytes have been
// consumed so callers can report the exact length parsed, which is needed
// when unwrapping nested relay messages.
type buffer struct {
	data []byte
	pos  int
}

func newBuffer(b []byte) *buffer {
	return &buffer{data: b}
}

// Len returns the number of unread bytes remaining in the buffer.
func (b *buffer) Len() int {
	return len(b.data) - b.pos
}

// Pos returns the number of bytes consumed so far.
func (b *buffer) Pos() int {
	return b.pos
}

// Has reports whether n more bytes are available.
func (b *buffer) Has(n int) bool {
	return b.Len() >= n
}

// Remaining returns a copy of all unread bytes.
func (b *buffer) Remaining() []byte {
	p := make([]byte, b.Len())
	copy(p, b.data[b.pos:])
	b.pos = len(b.data)
	return p
}

// consume returns the next n bytes without copying, or nil, false if not
// enough bytes remain.
func (b *buffer) consume(n int) ([]byte, bool) {
	if !b.Has(n) {
		return nil, false
	}
	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v, true
}

func (b *buffer) Read8() (uint8, bool) {
	v, ok := b.consume(1)
	if !ok {
		return 0, false
	}
	return v[0], true
}

func (b *buffer) Read16() (uint16, bool) {
	v, ok := b.consume(2)
	if !ok {
		return 0, false
	}
	return order.Uint16(v), true
}

func (b *buffer) Read32() (uint32, bool) {
	v, ok := b.consume(4)
	if !ok {
		return 0, false
	}
	return order.Uint32(v), true
}

// ReadN reads exactly n bytes and returns a copy.
func (b *buffer) ReadN(n int) ([]byte, bool) {
	v, ok := b.consume(n)
	if !ok {
		return nil, false
	}
	cp := make([]byte, n)
	copy(cp, v)
	return cp, true
}

type writer struct {
	data []byte
}

func (w *writer) Bytes() []byte { return w.data }

func (w *writer) append(n int) []byte {
	w.data = append(w.data, make([]byte, n)...)
	return w.data[len(w.data)-n:]
}

func (w *writer) Write8(v uint8) {
	w.append(1)[0] = v
}

func (w *writer) Write16(v uint16) {
	order.PutUint16(w.append(2), v)
}

func (w *writer) Write32(v uint32) {
	order.PutUint32(w.append(4), v)
}

func (w *writer) WriteBytes(p []byte) {
	copy(w.append(len(p)), p)
}
