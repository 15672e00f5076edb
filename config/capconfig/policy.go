/*
   CHERI-MIPS capability coprocessor - policy configuration.

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

// Package capconfig loads the small set of policy switches that change how
// the coprocessor behaves without changing the architecture it implements:
// the name of the wire encoding (a capencoding.ByName key; capcpu.NewHart
// takes the codec itself as a separate argument), whether unaligned integer
// accesses trap, and whether the PCC/load-store otype mismatch is merely
// diagnosed or left silent. UnrepresentableDebuggerDrop is decoded but no
// code reads it: an unrepresentable result only clears the tag. Named
// switches are read from a TOML file the same way the teacher's
// config/configparser reads named switches from its own config file -
// one struct tag per field, sensible zero-value defaults when no file is
// loaded at all.
package capconfig

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Policy holds every coprocessor behavior switch. The zero value is a
// complete, safe default: compressed128 encoding, aligned-only access,
// diagnostics off, UnrepresentableDebuggerDrop off (a switch no code
// reads).
type Policy struct {
	Encoding                    string `toml:"encoding"`
	UnalignedAccess             bool   `toml:"unaligned_access"`
	DiagnoseTypeMismatch        bool   `toml:"diagnose_type_mismatch"`
	UnrepresentableDebuggerDrop bool   `toml:"unrepresentable_debugger_drop"`
}

// EncodingOrDefault returns Encoding, substituting "compressed128" when the
// field was left empty (the zero-value default).
func (p Policy) EncodingOrDefault() string {
	if p.Encoding == "" {
		return "compressed128"
	}
	return p.Encoding
}

// Load reads a Policy from a TOML file at path.
func Load(path string) (Policy, error) {
	var p Policy
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Policy{}, errors.Wrapf(err, "capconfig: decoding %s", path)
	}
	return p, nil
}

// LoadOptional behaves like Load but returns the zero-value default Policy,
// with no error, when path does not exist - matching the teacher's
// "no config file given means defaults" convention in config/configparser.
func LoadOptional(path string) (Policy, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Policy{}, nil
	}
	return Load(path)
}
