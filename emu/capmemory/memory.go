/*
   CHERI-MIPS capability coprocessor - tagged physical memory.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package capmemory is the flat byte-addressable backing store the
// capability coprocessor's memory access path reads and writes, extended
// (relative to plain integer memory) with one tag bit per TagGranule-sized
// line so a capability store can mark a granule as holding a valid
// capability and any narrower integer store to that granule clears it.
package capmemory

// TagGranule is the byte granularity a single tag bit covers. Real
// CHERI-MIPS hardware tags memory in 32-byte granules regardless of the
// in-line wire width a codec happens to use (compressed128 and magic128
// both pack into 16 bytes but are still bus-aligned to 32), so this model
// keeps one granularity for all three encodings rather than parameterising
// tag storage per codec.
const TagGranule = 32

// Memory is a flat address space with byte-granularity read/write and a
// tag bit per TagGranule-sized line.
type Memory struct {
	bytes []byte
	tags  map[uint64]bool
}

// New returns a zeroed, untagged memory of the given size in bytes.
func New(size uint64) *Memory {
	return &Memory{bytes: make([]byte, size), tags: make(map[uint64]bool)}
}

// Size returns the memory's capacity in bytes.
func (m *Memory) Size() uint64 { return uint64(len(m.bytes)) }

// TagLine aligns addr down to its tag granule.
func TagLine(addr uint64) uint64 { return addr &^ (TagGranule - 1) }

// InRange reports whether [addr, addr+n) lies entirely within the memory.
func (m *Memory) InRange(addr uint64, n int) bool {
	if n < 0 {
		return false
	}
	end := addr + uint64(n)
	return end >= addr && end <= m.Size()
}

// ReadBytes returns a copy of the n bytes at addr. The second return value
// is false if the range falls outside the memory.
func (m *Memory) ReadBytes(addr uint64, n int) ([]byte, bool) {
	if !m.InRange(addr, n) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, m.bytes[addr:addr+uint64(n)])
	return out, true
}

// WriteBytes writes b at addr and clears the tag bits of every granule it
// touches (a narrower-than-capability store invalidates any capability that
// used to occupy that granule). It returns false if the range falls outside
// the memory.
func (m *Memory) WriteBytes(addr uint64, b []byte) bool {
	if !m.InRange(addr, len(b)) {
		return false
	}
	copy(m.bytes[addr:addr+uint64(len(b))], b)
	for line := TagLine(addr); line < addr+uint64(len(b)); line += TagGranule {
		delete(m.tags, line)
	}
	return true
}

// TagGet returns the tag bit covering addr's granule. Untouched granules
// read as untagged, matching memory that has never had a capability stored
// to it.
func (m *Memory) TagGet(addr uint64) bool { return m.tags[TagLine(addr)] }

// TagSet writes the tag bit covering addr's granule directly, bypassing the
// clear-on-narrow-store rule WriteBytes applies; capability stores call
// this after WriteBytes to set the bit their own write just cleared.
func (m *Memory) TagSet(addr uint64, tag bool) {
	line := TagLine(addr)
	if tag {
		m.tags[line] = true
		return
	}
	delete(m.tags, line)
}
