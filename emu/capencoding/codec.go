/*
   CHERI-MIPS capability coprocessor - memory encodings.

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

// Package capencoding implements the three interchangeable memory
// representations of a capability. One set of semantics in emu/capcpu is
// parameterised over the Codec interface here rather than duplicated per
// encoding.
package capencoding

import "github.com/rcornwell/cherimips/emu/capvalue"

// Codec maps the abstract capability between its in-register form and one
// on-the-wire byte representation.
type Codec interface {
	// Name identifies the codec, e.g. for config/capconfig selection.
	Name() string

	// Width is the number of bytes Compress produces and Decompress expects.
	Width() int

	// Compress encodes cap into its wire bytes. The tag bit travels
	// out-of-band (tag memory); it is not part of the returned bytes.
	Compress(cap capvalue.Capability) []byte

	// Decompress reconstructs a capability from wire bytes and a tag bit.
	// When tag is false the bytes are preserved verbatim (round-trip); when
	// true the bytes are assumed well-formed (representable) per the tag
	// implies representability invariant.
	Decompress(bytes []byte, tag bool) capvalue.Capability

	// Representable reports whether cap with its cursor replaced by
	// newCursor can be exactly represented.
	Representable(cap capvalue.Capability, newCursor uint64) bool

	// RepresentableWhenSealed is the representability test applied to
	// sealed capabilities, where some encodings forbid cursor drift
	// entirely.
	RepresentableWhenSealed(cap capvalue.Capability, newCursor uint64) bool

	// AlignMaskForLength returns the low-bits mask that a base must satisfy
	// to admit a tagged capability of exactly the given length.
	AlignMaskForLength(length uint64) uint64

	// RoundLengthUp returns the smallest length >= length that some
	// suitably aligned base can represent exactly.
	RoundLengthUp(length uint64) uint64
}

// ByName returns the built-in codec registered under name, used by
// config/capconfig to select an encoding from policy.
func ByName(name string) (Codec, bool) {
	switch name {
	case "compressed128":
		return NewCompressed128(), true
	case "magic128":
		return NewMagic128(), true
	case "uncompressed256":
		return NewUncompressed256(), true
	default:
		return nil, false
	}
}
